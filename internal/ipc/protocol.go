// Package ipc implements the local length-framed request/response protocol
// that feeds a short-lived completer process from the long-lived predictor
// daemon, plus the daemon spawn/discovery logic a client uses to find or
// start that daemon.
//
// Framing uses a custom length-prefixed binary frame over a Unix-domain
// socket rather than gRPC, so no protobuf/grpc dependency is wired here.
package ipc

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// MaxFrameSize is the largest payload this protocol accepts. Oversized
// frames cause the connection to be dropped.
const MaxFrameSize = 1 << 20 // 1 MiB

// debugMarker prefixes a debug-request/response frame ahead of its length.
const debugMarker = 'D'

// CompletionRequest is the JSON payload of a completion frame.
type CompletionRequest struct {
	Command                string `json:"command"`
	CommandLine             string `json:"command_line"`
	WordToComplete          string `json:"word_to_complete"`
	IncludeDynamicArguments bool   `json:"include_dynamic_arguments"`
}

// CompletionItem is a single ranked suggestion in a completion response.
type CompletionItem struct {
	Text        string  `json:"text"`
	Description string  `json:"description,omitempty"`
	Score       float64 `json:"score"`
}

// CompletionResponse is the JSON payload of a completion response frame.
type CompletionResponse struct {
	Completions []CompletionItem `json:"completions"`
	Cached      bool             `json:"cached"`
	Timestamp   time.Time        `json:"timestamp"`
}

// DebugRequestType enumerates the accepted debug request kinds.
type DebugRequestType string

const (
	DebugPing  DebugRequestType = "ping"
	DebugStats DebugRequestType = "stats"
	DebugCache DebugRequestType = "cache"
	DebugClear DebugRequestType = "clear"
)

// DebugRequest is the JSON payload of a 'D'-prefixed debug frame.
type DebugRequest struct {
	RequestType DebugRequestType `json:"request_type"`
	Filter      string           `json:"filter,omitempty"`
}

// DebugResponse is the JSON payload of a 'D'-prefixed debug response frame.
type DebugResponse struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message,omitempty"`
	Stats       map[string]any `json:"stats,omitempty"`
	CacheEntries int           `json:"cache_entries,omitempty"`
}

// frame is a decoded wire frame: Debug distinguishes the two request/
// response kinds sharing this connection, Payload is the raw JSON body.
type frame struct {
	Debug   bool
	Payload []byte
}

// readFrame reads one frame from r. A frame is an optional leading 'D'
// byte, a 4-byte little-endian length, then that many bytes of UTF-8 JSON.
// A frame whose declared length exceeds MaxFrameSize is a protocol error;
// the caller must drop the connection without attempting to resync.
func readFrame(r *bufio.Reader) (frame, error) {
	first, err := r.Peek(1)
	if err != nil {
		return frame{}, err
	}

	debug := first[0] == debugMarker
	if debug {
		if _, err := r.Discard(1); err != nil {
			return frame{}, err
		}
	}

	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return frame{}, err
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return frame{}, fmt.Errorf("ipc: frame of %d bytes exceeds max frame size %d", n, MaxFrameSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return frame{}, err
	}
	return frame{Debug: debug, Payload: payload}, nil
}

// writeFrame writes a frame to w in the same shape readFrame expects.
func writeFrame(w io.Writer, debug bool, payload []byte) error {
	if len(payload) > MaxFrameSize {
		return fmt.Errorf("ipc: response of %d bytes exceeds max frame size %d", len(payload), MaxFrameSize)
	}
	buf := make([]byte, 0, 5+len(payload))
	if debug {
		buf = append(buf, debugMarker)
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, payload...)
	_, err := w.Write(buf)
	return err
}
