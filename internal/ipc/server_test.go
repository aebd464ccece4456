package ipc

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct{}

func (fakeHandler) Complete(ctx context.Context, req CompletionRequest) CompletionResponse {
	return CompletionResponse{Completions: []CompletionItem{{Text: "status", Score: 0.9}}}
}

func (fakeHandler) Debug(ctx context.Context, req DebugRequest) DebugResponse {
	if req.RequestType == DebugPing {
		return DebugResponse{Success: true}
	}
	return DebugResponse{Success: false, Message: "unknown"}
}

func TestHandleConn_CompletionRoundTrip(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	s := &Server{handler: fakeHandler{}}
	done := make(chan struct{})
	go func() {
		s.handleConn(context.Background(), serverConn)
		close(done)
	}()

	c := &Client{conn: clientConn, r: bufio.NewReader(clientConn)}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := c.Complete(ctx, CompletionRequest{Command: "git"})
	require.NoError(t, err)
	require.Len(t, resp.Completions, 1)
	assert.Equal(t, "status", resp.Completions[0].Text)

	clientConn.Close()
	<-done
}

func TestHandleConn_DebugPing(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	s := &Server{handler: fakeHandler{}}
	go s.handleConn(context.Background(), serverConn)

	c := &Client{conn: clientConn, r: bufio.NewReader(clientConn)}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ok := c.Ping(ctx)
	assert.True(t, ok)
}

func TestHandleConn_MalformedCompletionReturnsEmptyResponse(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	s := &Server{handler: fakeHandler{}}
	go s.handleConn(context.Background(), serverConn)

	require.NoError(t, writeFrame(clientConn, false, []byte("not json")))
	f, err := readFrame(bufio.NewReader(clientConn))
	require.NoError(t, err)
	assert.JSONEq(t, `{"completions":null,"cached":false,"timestamp":"0001-01-01T00:00:00Z"}`, string(f.Payload))
}
