// Package transport provides IPC transport abstractions for the pscue
// predictor daemon. It supports Unix domain sockets on macOS/Linux and
// named pipes on Windows.
//
// Grounded on internal/suggestions/transport/transport.go's Transport
// interface and its Unix/Windows split.
package transport

import (
	"net"
	"strings"
	"time"
)

// Transport defines the interface for daemon IPC communication.
// Implementations provide platform-specific transport mechanisms
// (Unix sockets, Windows named pipes).
type Transport interface {
	// Listen creates and returns a listener for the transport. The
	// implementation is responsible for creating any necessary directories
	// and cleaning up stale sockets/pipes.
	Listen() (net.Listener, error)

	// Dial connects to the transport with the specified timeout.
	Dial(timeout time.Duration) (net.Conn, error)

	// Close releases any resources held by the transport, including
	// removing socket files on Unix systems.
	Close() error

	// SocketPath returns the path to the socket file or pipe name.
	SocketPath() string
}

// IsLikelyStaleDialError reports whether err looks like the daemon on the
// other end is simply gone, as opposed to a transient failure — used by
// the daemon spawn logic to decide whether it's safe to delete a stale
// socket/pipe.
func IsLikelyStaleDialError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") || strings.Contains(msg, "no such file or directory")
}
