package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pscue/pscue/internal/transport"
)

// Timeouts for different operation kinds, tuned against
// internal/ipc/dial.go constants of the same names.
const (
	// FireAndForgetTimeout bounds operations whose result the caller
	// discards (e.g. usage-feedback signals).
	FireAndForgetTimeout = 10 * time.Millisecond

	// SuggestTimeout bounds a single completion request on the hot path.
	SuggestTimeout = 50 * time.Millisecond

	// InteractiveTimeout bounds longer, user-visible operations.
	InteractiveTimeout = 5 * time.Second

	// DialTimeout bounds the initial connection attempt.
	DialTimeout = 50 * time.Millisecond
)

// Client is a short-lived connection to the predictor daemon, used by the
// completer process for the lifetime of one completion request.
type Client struct {
	conn net.Conn
	r    *bufio.Reader

	mu sync.Mutex
}

// Dial connects to the daemon over t within timeout.
func Dial(t transport.Transport, timeout time.Duration) (*Client, error) {
	conn, err := t.Dial(timeout)
	if err != nil {
		return nil, fmt.Errorf("ipc: dial: %w", err)
	}
	return &Client{conn: conn, r: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Complete sends a completion request and waits for the response, honoring
// ctx's deadline for the round trip.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	var resp CompletionResponse
	payload, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	if err := c.roundTrip(ctx, false, payload, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// Debug sends a debug request and waits for the response.
func (c *Client) Debug(ctx context.Context, req DebugRequest) (DebugResponse, error) {
	var resp DebugResponse
	payload, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	if err := c.roundTrip(ctx, true, payload, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// Ping is a convenience Debug("ping") call used by daemon discovery.
func (c *Client) Ping(ctx context.Context) bool {
	resp, err := c.Debug(ctx, DebugRequest{RequestType: DebugPing})
	return err == nil && resp.Success
}

func (c *Client) roundTrip(ctx context.Context, debug bool, payload []byte, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
	}
	defer c.conn.SetDeadline(time.Time{})

	if err := writeFrame(c.conn, debug, payload); err != nil {
		return fmt.Errorf("ipc: write: %w", err)
	}

	f, err := readFrame(c.r)
	if err != nil {
		return fmt.Errorf("ipc: read: %w", err)
	}
	return json.Unmarshal(f.Payload, out)
}
