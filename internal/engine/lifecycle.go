package engine

import (
	"context"
	"time"

	"github.com/pscue/pscue/internal/pslog"
)

// Load restores every persisted component at startup. Each component loads
// independently: a failure loading one (e.g. a corrupted table) is logged
// and that component starts empty, without blocking the others.
func (e *Engine) Load(ctx context.Context) {
	if e.PM == nil {
		return
	}
	if err := e.PM.LoadKnowledgeGraph(ctx, e.KG); err != nil {
		pslog.LogPersistenceError(e.log, "load_knowledge_graph", err)
	}
	if err := e.PM.LoadSequences(ctx, e.SL); err != nil {
		pslog.LogPersistenceError(e.log, "load_sequences", err)
	}
	if err := e.PM.LoadWorkflowTransitions(ctx, e.WL); err != nil {
		pslog.LogPersistenceError(e.log, "load_workflow_transitions", err)
	}
	if err := e.PM.LoadHistory(ctx, e.CH); err != nil {
		pslog.LogPersistenceError(e.log, "load_history", err)
	}
}

// Save persists every component's accumulated deltas. A component's
// baseline/delta state only advances on confirmed success, so a failed save
// never loses an in-memory delta — it is simply retried on the next tick.
func (e *Engine) Save(ctx context.Context) {
	if e.PM == nil {
		return
	}

	if err := e.PM.SaveKnowledgeGraph(ctx, e.KG.Snapshot()); err != nil {
		pslog.LogPersistenceError(e.log, "save_knowledge_graph", err)
	} else {
		e.KG.UpdateBaseline()
	}

	if deltas := e.SL.Deltas(); len(deltas) > 0 {
		if err := e.PM.SaveSequences(ctx, deltas, time.Now()); err != nil {
			pslog.LogPersistenceError(e.log, "save_sequences", err)
		} else {
			e.SL.ClearDeltas()
		}
	}

	if deltas := e.WL.Deltas(); len(deltas) > 0 {
		if err := e.PM.SaveWorkflowTransitions(ctx, deltas); err != nil {
			pslog.LogPersistenceError(e.log, "save_workflow_transitions", err)
		} else {
			e.WL.ClearDeltas()
		}
	}

	if err := e.PM.SaveHistory(ctx, e.CH.Snapshot()); err != nil {
		pslog.LogPersistenceError(e.log, "save_history", err)
	}
}

// StartAutosave launches a single fire-and-forget periodic save task. It
// exits when ctx is cancelled; callers should cancel ctx and then call
// Shutdown to perform the final save.
func (e *Engine) StartAutosave(ctx context.Context) {
	interval := time.Duration(e.cfg.Daemon.AutoSaveMinutes) * time.Minute
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	e.autosaveDone = make(chan struct{})

	go func() {
		defer close(e.autosaveDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.Save(ctx)
			}
		}
	}()
}

// Shutdown waits for the autosave task to stop, performs a final save, and
// closes the persistence store. Callers must cancel the context passed to
// StartAutosave before calling Shutdown.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.autosaveDone != nil {
		<-e.autosaveDone
	}
	e.Save(ctx)
	if e.PM == nil {
		return nil
	}
	return e.PM.Close()
}
