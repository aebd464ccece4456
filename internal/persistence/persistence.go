// Package persistence implements the durable store (PM): a single-file
// SQLite database with write-ahead logging, additive-merge upserts for
// concurrent-process deltas, and JSON snapshot import/export.
//
// Connection setup (WAL + busy_timeout pragma DSN, single-writer pool,
// periodic checkpoint loop) and the versioned-migration pattern are
// grounded directly on internal/storage/db.go. The additive-merge upsert
// idiom (ON CONFLICT ... count = count + 1) is grounded on
// internal/suggestions/score/frequency.go's UpdateAll.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pscue/pscue/internal/history"
	"github.com/pscue/pscue/internal/kgraph"
	"github.com/pscue/pscue/internal/sequence"
	"github.com/pscue/pscue/internal/workflow"
)

const walCheckpointInterval = 5 * time.Minute

// DefaultFilename is the database filename within the data directory.
const DefaultFilename = "learned-data.db"

// Store is the durable backing store for every learning component.
type Store struct {
	db        *sql.DB
	stopCh    chan struct{}
	stoppedCh chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Open opens (creating if necessary) the SQLite database at path, enables
// WAL mode and a 5-second busy timeout, and runs schema migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{db: db, stopCh: make(chan struct{}), stoppedCh: make(chan struct{})}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	go s.walCheckpointLoop()
	return s, nil
}

// Close stops the checkpoint loop, performs a final WAL checkpoint, and
// closes the database. Safe to call multiple times.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.stoppedCh
		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			s.closeErr = s.db.Close()
		}
	})
	return s.closeErr
}

func (s *Store) walCheckpointLoop() {
	defer close(s.stoppedCh)
	ticker := time.NewTicker(walCheckpointInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		}
	}
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_meta (
			version INTEGER PRIMARY KEY,
			applied_at_unix_ms INTEGER NOT NULL
		);
	`); err != nil {
		return err
	}

	var currentVersion int
	row := s.db.QueryRowContext(ctx, `SELECT version FROM schema_meta ORDER BY version DESC LIMIT 1`)
	if err := row.Scan(&currentVersion); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1},
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.ExecContext(ctx, m.sql); err != nil {
			return fmt.Errorf("migration v%d: %w", m.version, err)
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR REPLACE INTO schema_meta (version, applied_at_unix_ms) VALUES (?, ?)`,
			m.version, time.Now().UnixMilli()); err != nil {
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
	}
	return nil
}

const migrationV1 = `
CREATE TABLE IF NOT EXISTS commands (
  command TEXT PRIMARY KEY,
  total_usage INTEGER NOT NULL DEFAULT 0,
  first_seen_unix_ms INTEGER NOT NULL,
  last_used_unix_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS arguments (
  command TEXT NOT NULL,
  argument TEXT NOT NULL,
  usage_count INTEGER NOT NULL DEFAULT 0,
  first_seen_unix_ms INTEGER NOT NULL,
  last_used_unix_ms INTEGER NOT NULL,
  is_flag INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (command, argument)
);

CREATE TABLE IF NOT EXISTS co_occurrences (
  command TEXT NOT NULL,
  argument TEXT NOT NULL,
  co_occurred_with TEXT NOT NULL,
  count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (command, argument, co_occurred_with)
);

CREATE TABLE IF NOT EXISTS flag_combinations (
  command TEXT NOT NULL,
  flags TEXT NOT NULL,
  count INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (command, flags)
);

CREATE TABLE IF NOT EXISTS command_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  command TEXT NOT NULL,
  command_line TEXT NOT NULL,
  arguments TEXT NOT NULL,
  timestamp_unix_ms INTEGER NOT NULL,
  success INTEGER NOT NULL DEFAULT 1,
  working_directory TEXT
);

CREATE INDEX IF NOT EXISTS idx_command_history_ts ON command_history(timestamp_unix_ms DESC);

CREATE TABLE IF NOT EXISTS command_sequences (
  prev_command TEXT NOT NULL,
  next_command TEXT NOT NULL,
  frequency INTEGER NOT NULL DEFAULT 0,
  last_seen_unix_ms INTEGER NOT NULL,
  PRIMARY KEY (prev_command, next_command)
);

CREATE TABLE IF NOT EXISTS workflow_transitions (
  from_command TEXT NOT NULL,
  to_command TEXT NOT NULL,
  frequency INTEGER NOT NULL DEFAULT 0,
  total_time_delta_ms INTEGER NOT NULL DEFAULT 0,
  first_seen_unix_ms INTEGER NOT NULL,
  last_seen_unix_ms INTEGER NOT NULL,
  PRIMARY KEY (from_command, to_command)
);
`

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// SaveKnowledgeGraph additively merges every command/argument/flag-combo
// delta from a kgraph snapshot into the database.
func (s *Store) SaveKnowledgeGraph(ctx context.Context, snapshots []kgraph.CommandSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, snap := range snapshots {
		if snap.TotalUsageDelta > 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO commands (command, total_usage, first_seen_unix_ms, last_used_unix_ms)
				VALUES (?, ?, ?, ?)
				ON CONFLICT(command) DO UPDATE SET
					total_usage = total_usage + excluded.total_usage,
					first_seen_unix_ms = MIN(first_seen_unix_ms, excluded.first_seen_unix_ms),
					last_used_unix_ms = MAX(last_used_unix_ms, excluded.last_used_unix_ms)
			`, snap.Command, snap.TotalUsageDelta, toMillis(snap.FirstSeen), toMillis(snap.LastUsed)); err != nil {
				return fmt.Errorf("save command %q: %w", snap.Command, err)
			}
		}

		for _, arg := range snap.Arguments {
			delta, ok := snap.ArgumentDeltas[arg.Text]
			if !ok || delta == 0 {
				continue
			}
			isFlag := 0
			if arg.IsFlag {
				isFlag = 1
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO arguments (command, argument, usage_count, first_seen_unix_ms, last_used_unix_ms, is_flag)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(command, argument) DO UPDATE SET
					usage_count = usage_count + excluded.usage_count,
					first_seen_unix_ms = MIN(first_seen_unix_ms, excluded.first_seen_unix_ms),
					last_used_unix_ms = MAX(last_used_unix_ms, excluded.last_used_unix_ms),
					is_flag = excluded.is_flag
			`, snap.Command, arg.Text, delta, toMillis(arg.FirstSeen), toMillis(arg.LastUsed), isFlag); err != nil {
				return fmt.Errorf("save argument %q/%q: %w", snap.Command, arg.Text, err)
			}

			for other, count := range arg.CoOccurrences {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO co_occurrences (command, argument, co_occurred_with, count)
					VALUES (?, ?, ?, ?)
					ON CONFLICT(command, argument, co_occurred_with) DO UPDATE SET count = excluded.count
				`, snap.Command, arg.Text, other, count); err != nil {
					return fmt.Errorf("save co-occurrence %q/%q/%q: %w", snap.Command, arg.Text, other, err)
				}
			}
		}

		for combo, delta := range snap.FlagDeltas {
			if delta == 0 {
				continue
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO flag_combinations (command, flags, count)
				VALUES (?, ?, ?)
				ON CONFLICT(command, flags) DO UPDATE SET count = count + excluded.count
			`, snap.Command, combo, delta); err != nil {
				return fmt.Errorf("save flag combination %q/%q: %w", snap.Command, combo, err)
			}
		}
	}

	return tx.Commit()
}

// SaveSequences additively merges sequence-learner bigram deltas.
func (s *Store) SaveSequences(ctx context.Context, deltas map[[2]string]uint64, lastSeen time.Time) error {
	if len(deltas) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for pair, delta := range deltas {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO command_sequences (prev_command, next_command, frequency, last_seen_unix_ms)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(prev_command, next_command) DO UPDATE SET
				frequency = frequency + excluded.frequency,
				last_seen_unix_ms = MAX(last_seen_unix_ms, excluded.last_seen_unix_ms)
		`, pair[0], pair[1], delta, toMillis(lastSeen)); err != nil {
			return fmt.Errorf("save sequence %q->%q: %w", pair[0], pair[1], err)
		}
	}
	return tx.Commit()
}

// SaveWorkflowTransitions additively merges workflow-learner deltas.
func (s *Store) SaveWorkflowTransitions(ctx context.Context, deltas []workflow.TransitionDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range deltas {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workflow_transitions (from_command, to_command, frequency, total_time_delta_ms, first_seen_unix_ms, last_seen_unix_ms)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(from_command, to_command) DO UPDATE SET
				frequency = frequency + excluded.frequency,
				total_time_delta_ms = total_time_delta_ms + excluded.total_time_delta_ms,
				first_seen_unix_ms = MIN(first_seen_unix_ms, excluded.first_seen_unix_ms),
				last_seen_unix_ms = MAX(last_seen_unix_ms, excluded.last_seen_unix_ms)
		`, d.From, d.To, d.FrequencyDelta, d.TimeDeltaMsDelta, toMillis(d.FirstSeen), toMillis(d.LastSeen)); err != nil {
			return fmt.Errorf("save workflow transition %q->%q: %w", d.From, d.To, err)
		}
	}
	return tx.Commit()
}

// SaveHistory replaces the stored command-history rows with entries: the
// table always holds exactly the most recent N rows.
func (s *Store) SaveHistory(ctx context.Context, entries []history.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM command_history`); err != nil {
		return err
	}
	for _, e := range entries {
		argsJSON, err := json.Marshal(e.Arguments)
		if err != nil {
			return err
		}
		success := 0
		if e.Success {
			success = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO command_history (command, command_line, arguments, timestamp_unix_ms, success, working_directory)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.Command, e.CommandLine, string(argsJSON), toMillis(e.TimestampUTC), success, e.WorkingDirectory); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadKnowledgeGraph loads every persisted command and argument into g,
// setting g's baseline so the loaded rows contribute no spurious delta.
func (s *Store) LoadKnowledgeGraph(ctx context.Context, g *kgraph.Graph) error {
	cmdRows, err := s.db.QueryContext(ctx, `SELECT command, total_usage, first_seen_unix_ms, last_used_unix_ms FROM commands`)
	if err != nil {
		return err
	}
	defer cmdRows.Close()

	for cmdRows.Next() {
		var command string
		var totalUsage uint64
		var firstSeenMs, lastUsedMs int64
		if err := cmdRows.Scan(&command, &totalUsage, &firstSeenMs, &lastUsedMs); err != nil {
			return err
		}
		g.InitializeCommand(command, totalUsage, fromMillis(firstSeenMs), fromMillis(lastUsedMs))
	}
	if err := cmdRows.Err(); err != nil {
		return err
	}

	argRows, err := s.db.QueryContext(ctx, `SELECT command, argument, usage_count, first_seen_unix_ms, last_used_unix_ms, is_flag FROM arguments`)
	if err != nil {
		return err
	}
	defer argRows.Close()

	for argRows.Next() {
		var command, argument string
		var usageCount uint64
		var firstSeenMs, lastUsedMs int64
		var isFlag int
		if err := argRows.Scan(&command, &argument, &usageCount, &firstSeenMs, &lastUsedMs, &isFlag); err != nil {
			return err
		}
		g.InitializeArgument(command, kgraph.Argument{
			Text:          argument,
			UsageCount:    usageCount,
			FirstSeen:     fromMillis(firstSeenMs),
			LastUsed:      fromMillis(lastUsedMs),
			IsFlag:        isFlag != 0,
			CoOccurrences: make(map[string]uint64),
		})
	}
	return argRows.Err()
}

// LoadSequences loads every persisted bigram into t, with no pending delta.
func (s *Store) LoadSequences(ctx context.Context, t *sequence.Table) error {
	rows, err := s.db.QueryContext(ctx, `SELECT prev_command, next_command, frequency, last_seen_unix_ms FROM command_sequences`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var prev, next string
		var frequency uint64
		var lastSeenMs int64
		if err := rows.Scan(&prev, &next, &frequency, &lastSeenMs); err != nil {
			return err
		}
		t.Initialize(prev, next, frequency, fromMillis(lastSeenMs))
	}
	return rows.Err()
}

// LoadWorkflowTransitions loads every persisted transition into g, with no
// pending delta.
func (s *Store) LoadWorkflowTransitions(ctx context.Context, g *workflow.Graph) error {
	rows, err := s.db.QueryContext(ctx, `SELECT from_command, to_command, frequency, total_time_delta_ms, first_seen_unix_ms, last_seen_unix_ms FROM workflow_transitions`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var from, to string
		var frequency uint64
		var totalDeltaMs int64
		var firstSeenMs, lastSeenMs int64
		if err := rows.Scan(&from, &to, &frequency, &totalDeltaMs, &firstSeenMs, &lastSeenMs); err != nil {
			return err
		}
		g.Initialize(from, to, frequency, totalDeltaMs, fromMillis(firstSeenMs), fromMillis(lastSeenMs))
	}
	return rows.Err()
}

// LoadHistory loads the persisted command-history rows into h, oldest first
// so the ring buffer's eviction order matches original recency.
func (s *Store) LoadHistory(ctx context.Context, h *history.History) error {
	rows, err := s.db.QueryContext(ctx, `SELECT command, command_line, arguments, timestamp_unix_ms, success, working_directory FROM command_history ORDER BY timestamp_unix_ms ASC`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e history.Entry
		var argsJSON string
		var timestampMs int64
		var success int
		var workingDir sql.NullString
		if err := rows.Scan(&e.Command, &e.CommandLine, &argsJSON, &timestampMs, &success, &workingDir); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(argsJSON), &e.Arguments); err != nil {
			return fmt.Errorf("decode history arguments: %w", err)
		}
		e.TimestampUTC = fromMillis(timestampMs)
		e.Success = success != 0
		e.WorkingDirectory = workingDir.String
		h.AddEntry(e)
	}
	return rows.Err()
}

// Snapshot is the full JSON export format for migration/backup: every row of
// every table the store owns, so an Import can reconstruct the database
// exactly (clear mode) or fold it into an existing one (merge mode).
type Snapshot struct {
	ExportedAtUTC       string                       `json:"exported_at_utc"`
	Commands            []SnapshotCommand            `json:"commands"`
	CoOccurrences       []SnapshotCoOccurrence       `json:"co_occurrences"`
	FlagCombinations    []SnapshotFlagCombination    `json:"flag_combinations"`
	CommandSequences    []SnapshotSequence           `json:"command_sequences"`
	WorkflowTransitions []SnapshotWorkflowTransition `json:"workflow_transitions"`
	History             []history.Entry              `json:"history"`
}

// SnapshotCommand is one command's exported row, its arguments nested
// beneath it.
type SnapshotCommand struct {
	Command    string            `json:"command"`
	TotalUsage uint64            `json:"total_usage"`
	FirstSeen  time.Time         `json:"first_seen"`
	LastUsed   time.Time         `json:"last_used"`
	Arguments  []kgraph.Argument `json:"arguments"`
}

// SnapshotCoOccurrence is one exported co_occurrences row.
type SnapshotCoOccurrence struct {
	Command        string `json:"command"`
	Argument       string `json:"argument"`
	CoOccurredWith string `json:"co_occurred_with"`
	Count          uint64 `json:"count"`
}

// SnapshotFlagCombination is one exported flag_combinations row.
type SnapshotFlagCombination struct {
	Command string `json:"command"`
	Flags   string `json:"flags"`
	Count   uint64 `json:"count"`
}

// SnapshotSequence is one exported command_sequences row.
type SnapshotSequence struct {
	PrevCommand string    `json:"prev_command"`
	NextCommand string    `json:"next_command"`
	Frequency   uint64    `json:"frequency"`
	LastSeen    time.Time `json:"last_seen"`
}

// SnapshotWorkflowTransition is one exported workflow_transitions row.
type SnapshotWorkflowTransition struct {
	FromCommand      string    `json:"from_command"`
	ToCommand        string    `json:"to_command"`
	Frequency        uint64    `json:"frequency"`
	TotalTimeDeltaMs int64     `json:"total_time_delta_ms"`
	FirstSeen        time.Time `json:"first_seen"`
	LastSeen         time.Time `json:"last_seen"`
}

// Export produces a full JSON snapshot of the database for backup/migration,
// covering every table: commands, arguments, co_occurrences,
// flag_combinations, command_sequences, workflow_transitions, and history.
func (s *Store) Export(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{ExportedAtUTC: time.Now().UTC().Format(time.RFC3339)}

	cmdRows, err := s.db.QueryContext(ctx, `SELECT command, total_usage, first_seen_unix_ms, last_used_unix_ms FROM commands`)
	if err != nil {
		return nil, err
	}
	defer cmdRows.Close()

	byCommand := make(map[string]*SnapshotCommand)
	for cmdRows.Next() {
		var sc SnapshotCommand
		var firstSeenMs, lastUsedMs int64
		if err := cmdRows.Scan(&sc.Command, &sc.TotalUsage, &firstSeenMs, &lastUsedMs); err != nil {
			return nil, err
		}
		sc.FirstSeen, sc.LastUsed = fromMillis(firstSeenMs), fromMillis(lastUsedMs)
		byCommand[sc.Command] = &sc
	}
	if err := cmdRows.Err(); err != nil {
		return nil, err
	}

	argRows, err := s.db.QueryContext(ctx, `SELECT command, argument, usage_count, first_seen_unix_ms, last_used_unix_ms, is_flag FROM arguments`)
	if err != nil {
		return nil, err
	}
	defer argRows.Close()
	for argRows.Next() {
		var command string
		var arg kgraph.Argument
		var firstSeenMs, lastUsedMs int64
		var isFlag int
		if err := argRows.Scan(&command, &arg.Text, &arg.UsageCount, &firstSeenMs, &lastUsedMs, &isFlag); err != nil {
			return nil, err
		}
		arg.FirstSeen, arg.LastUsed = fromMillis(firstSeenMs), fromMillis(lastUsedMs)
		arg.IsFlag = isFlag != 0
		if sc, ok := byCommand[command]; ok {
			sc.Arguments = append(sc.Arguments, arg)
		}
	}
	if err := argRows.Err(); err != nil {
		return nil, err
	}

	for _, sc := range byCommand {
		snap.Commands = append(snap.Commands, *sc)
	}

	coRows, err := s.db.QueryContext(ctx, `SELECT command, argument, co_occurred_with, count FROM co_occurrences`)
	if err != nil {
		return nil, err
	}
	defer coRows.Close()
	for coRows.Next() {
		var co SnapshotCoOccurrence
		if err := coRows.Scan(&co.Command, &co.Argument, &co.CoOccurredWith, &co.Count); err != nil {
			return nil, err
		}
		snap.CoOccurrences = append(snap.CoOccurrences, co)
	}
	if err := coRows.Err(); err != nil {
		return nil, err
	}

	flagRows, err := s.db.QueryContext(ctx, `SELECT command, flags, count FROM flag_combinations`)
	if err != nil {
		return nil, err
	}
	defer flagRows.Close()
	for flagRows.Next() {
		var fc SnapshotFlagCombination
		if err := flagRows.Scan(&fc.Command, &fc.Flags, &fc.Count); err != nil {
			return nil, err
		}
		snap.FlagCombinations = append(snap.FlagCombinations, fc)
	}
	if err := flagRows.Err(); err != nil {
		return nil, err
	}

	seqRows, err := s.db.QueryContext(ctx, `SELECT prev_command, next_command, frequency, last_seen_unix_ms FROM command_sequences`)
	if err != nil {
		return nil, err
	}
	defer seqRows.Close()
	for seqRows.Next() {
		var seq SnapshotSequence
		var lastSeenMs int64
		if err := seqRows.Scan(&seq.PrevCommand, &seq.NextCommand, &seq.Frequency, &lastSeenMs); err != nil {
			return nil, err
		}
		seq.LastSeen = fromMillis(lastSeenMs)
		snap.CommandSequences = append(snap.CommandSequences, seq)
	}
	if err := seqRows.Err(); err != nil {
		return nil, err
	}

	wfRows, err := s.db.QueryContext(ctx, `SELECT from_command, to_command, frequency, total_time_delta_ms, first_seen_unix_ms, last_seen_unix_ms FROM workflow_transitions`)
	if err != nil {
		return nil, err
	}
	defer wfRows.Close()
	for wfRows.Next() {
		var wt SnapshotWorkflowTransition
		var firstSeenMs, lastSeenMs int64
		if err := wfRows.Scan(&wt.FromCommand, &wt.ToCommand, &wt.Frequency, &wt.TotalTimeDeltaMs, &firstSeenMs, &lastSeenMs); err != nil {
			return nil, err
		}
		wt.FirstSeen, wt.LastSeen = fromMillis(firstSeenMs), fromMillis(lastSeenMs)
		snap.WorkflowTransitions = append(snap.WorkflowTransitions, wt)
	}
	if err := wfRows.Err(); err != nil {
		return nil, err
	}

	histRows, err := s.db.QueryContext(ctx, `SELECT command, command_line, arguments, timestamp_unix_ms, success, working_directory FROM command_history ORDER BY timestamp_unix_ms ASC`)
	if err != nil {
		return nil, err
	}
	defer histRows.Close()
	for histRows.Next() {
		var e history.Entry
		var argsJSON string
		var timestampMs int64
		var success int
		var workingDir sql.NullString
		if err := histRows.Scan(&e.Command, &e.CommandLine, &argsJSON, &timestampMs, &success, &workingDir); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(argsJSON), &e.Arguments); err != nil {
			return nil, fmt.Errorf("decode history arguments: %w", err)
		}
		e.TimestampUTC = fromMillis(timestampMs)
		e.Success = success != 0
		e.WorkingDirectory = workingDir.String
		snap.History = append(snap.History, e)
	}
	if err := histRows.Err(); err != nil {
		return nil, err
	}

	return snap, nil
}

// ImportMode selects how Import reconciles a Snapshot with the existing
// database.
type ImportMode int

const (
	// ImportClear wipes every table before loading the snapshot, so the
	// database ends up containing exactly the snapshot's rows.
	ImportClear ImportMode = iota
	// ImportMerge additively folds the snapshot into whatever is already
	// stored, using the same upsert rules as the Save* methods.
	ImportMerge
)

var importTables = []string{
	"commands", "arguments", "co_occurrences", "flag_combinations",
	"command_sequences", "workflow_transitions", "command_history",
}

// Import loads a Snapshot into the database, either clearing every table
// first (ImportClear) or additively merging it with existing rows
// (ImportMerge).
func (s *Store) Import(ctx context.Context, snap *Snapshot, mode ImportMode) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if mode == ImportClear {
		for _, table := range importTables {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	for _, sc := range snap.Commands {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO commands (command, total_usage, first_seen_unix_ms, last_used_unix_ms)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(command) DO UPDATE SET
				total_usage = total_usage + excluded.total_usage,
				first_seen_unix_ms = MIN(first_seen_unix_ms, excluded.first_seen_unix_ms),
				last_used_unix_ms = MAX(last_used_unix_ms, excluded.last_used_unix_ms)
		`, sc.Command, sc.TotalUsage, toMillis(sc.FirstSeen), toMillis(sc.LastUsed)); err != nil {
			return fmt.Errorf("import command %q: %w", sc.Command, err)
		}

		for _, arg := range sc.Arguments {
			isFlag := 0
			if arg.IsFlag {
				isFlag = 1
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO arguments (command, argument, usage_count, first_seen_unix_ms, last_used_unix_ms, is_flag)
				VALUES (?, ?, ?, ?, ?, ?)
				ON CONFLICT(command, argument) DO UPDATE SET
					usage_count = usage_count + excluded.usage_count,
					first_seen_unix_ms = MIN(first_seen_unix_ms, excluded.first_seen_unix_ms),
					last_used_unix_ms = MAX(last_used_unix_ms, excluded.last_used_unix_ms),
					is_flag = excluded.is_flag
			`, sc.Command, arg.Text, arg.UsageCount, toMillis(arg.FirstSeen), toMillis(arg.LastUsed), isFlag); err != nil {
				return fmt.Errorf("import argument %q/%q: %w", sc.Command, arg.Text, err)
			}
		}
	}

	for _, co := range snap.CoOccurrences {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO co_occurrences (command, argument, co_occurred_with, count)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(command, argument, co_occurred_with) DO UPDATE SET count = count + excluded.count
		`, co.Command, co.Argument, co.CoOccurredWith, co.Count); err != nil {
			return fmt.Errorf("import co-occurrence %q/%q/%q: %w", co.Command, co.Argument, co.CoOccurredWith, err)
		}
	}

	for _, fc := range snap.FlagCombinations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO flag_combinations (command, flags, count)
			VALUES (?, ?, ?)
			ON CONFLICT(command, flags) DO UPDATE SET count = count + excluded.count
		`, fc.Command, fc.Flags, fc.Count); err != nil {
			return fmt.Errorf("import flag combination %q/%q: %w", fc.Command, fc.Flags, err)
		}
	}

	for _, seq := range snap.CommandSequences {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO command_sequences (prev_command, next_command, frequency, last_seen_unix_ms)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(prev_command, next_command) DO UPDATE SET
				frequency = frequency + excluded.frequency,
				last_seen_unix_ms = MAX(last_seen_unix_ms, excluded.last_seen_unix_ms)
		`, seq.PrevCommand, seq.NextCommand, seq.Frequency, toMillis(seq.LastSeen)); err != nil {
			return fmt.Errorf("import sequence %q->%q: %w", seq.PrevCommand, seq.NextCommand, err)
		}
	}

	for _, wt := range snap.WorkflowTransitions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workflow_transitions (from_command, to_command, frequency, total_time_delta_ms, first_seen_unix_ms, last_seen_unix_ms)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(from_command, to_command) DO UPDATE SET
				frequency = frequency + excluded.frequency,
				total_time_delta_ms = total_time_delta_ms + excluded.total_time_delta_ms,
				first_seen_unix_ms = MIN(first_seen_unix_ms, excluded.first_seen_unix_ms),
				last_seen_unix_ms = MAX(last_seen_unix_ms, excluded.last_seen_unix_ms)
		`, wt.FromCommand, wt.ToCommand, wt.Frequency, wt.TotalTimeDeltaMs, toMillis(wt.FirstSeen), toMillis(wt.LastSeen)); err != nil {
			return fmt.Errorf("import workflow transition %q->%q: %w", wt.FromCommand, wt.ToCommand, err)
		}
	}

	for _, e := range snap.History {
		argsJSON, err := json.Marshal(e.Arguments)
		if err != nil {
			return err
		}
		success := 0
		if e.Success {
			success = 1
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO command_history (command, command_line, arguments, timestamp_unix_ms, success, working_directory)
			VALUES (?, ?, ?, ?, ?, ?)
		`, e.Command, e.CommandLine, string(argsJSON), toMillis(e.TimestampUTC), success, e.WorkingDirectory); err != nil {
			return fmt.Errorf("import history entry %q: %w", e.Command, err)
		}
	}

	return tx.Commit()
}
