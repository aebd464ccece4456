//go:build !windows

package transport

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixTransport_ListenAndDial(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "test.sock")
	tr := NewUnixTransport(sockPath)

	listener, err := tr.Listen()
	require.NoError(t, err)
	defer tr.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, _ := listener.Accept()
		accepted <- conn
	}()

	conn, err := tr.Dial(time.Second)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case c := <-accepted:
		require.NotNil(t, c)
		c.Close()
	case <-time.After(time.Second):
		t.Fatal("listener never accepted connection")
	}
}

func TestUnixTransport_ListenCleansUpStaleSocketFile(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "stale.sock")

	// Create a listener and close it without removing the socket file to
	// simulate a crashed daemon leaving a stale socket behind.
	l, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	l.Close()

	tr := NewUnixTransport(sockPath)
	_, err = tr.Listen()
	require.NoError(t, err)
	tr.Close()
}

func TestUnixTransport_SocketPath(t *testing.T) {
	tr := NewUnixTransport("/tmp/custom.sock")
	assert.Equal(t, "/tmp/custom.sock", tr.SocketPath())
}

func TestDefaultUnixSocketPath_RespectsEnvOverride(t *testing.T) {
	t.Setenv("PSCUE_SOCKET_PATH", "/tmp/override.sock")
	assert.Equal(t, "/tmp/override.sock", DefaultUnixSocketPath())
}

func TestIsLikelyStaleDialError(t *testing.T) {
	assert.False(t, IsLikelyStaleDialError(nil))
}
