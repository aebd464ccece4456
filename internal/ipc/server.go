package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/pscue/pscue/internal/transport"
)

// Handler answers the two request kinds this protocol carries. Both
// methods must fold internal failures into a response value: the
// suggestion path never surfaces errors to the caller.
type Handler interface {
	Complete(ctx context.Context, req CompletionRequest) CompletionResponse
	Debug(ctx context.Context, req DebugRequest) DebugResponse
}

// Server accepts connections on a transport.Transport and serves the
// framed protocol, one goroutine per connection.
type Server struct {
	transport transport.Transport
	handler   Handler
	log       *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a Server bound to t, dispatching requests to h.
func NewServer(t transport.Transport, h Handler, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{transport: t, handler: h, log: log}
}

// Serve listens and accepts connections until ctx is cancelled or an
// unrecoverable accept error occurs.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := s.transport.Listen()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = s.transport.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				wg.Wait()
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				wg.Wait()
				return nil
			}
			s.log.Warn("ipc accept failed", "error", err)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

// handleConn serves frames on conn until the client disconnects, a
// protocol error occurs, or ctx is cancelled. It abandons in-flight work
// promptly on client disconnect.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	s.log.Debug("ipc connection opened", "conn_id", connID)
	defer func() {
		s.log.Debug("ipc connection closed", "conn_id", connID)
		conn.Close()
	}()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	r := bufio.NewReader(conn)
	for {
		f, err := readFrame(r)
		if err != nil {
			return
		}

		var respPayload []byte
		if f.Debug {
			var req DebugRequest
			if err := json.Unmarshal(f.Payload, &req); err != nil {
				respPayload, _ = json.Marshal(DebugResponse{Success: false, Message: "bad request"})
			} else {
				resp := s.handler.Debug(ctx, req)
				respPayload, _ = json.Marshal(resp)
			}
		} else {
			var req CompletionRequest
			if err := json.Unmarshal(f.Payload, &req); err != nil {
				// A malformed completion request has nowhere else to report
				// to; respond with an empty completion set rather than drop.
				respPayload, _ = json.Marshal(CompletionResponse{})
			} else {
				resp := s.handler.Complete(ctx, req)
				respPayload, _ = json.Marshal(resp)
			}
		}

		if err := writeFrame(conn, f.Debug, respPayload); err != nil {
			return
		}
	}
}

// Close shuts down the listener, if running.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.transport.Close()
}
