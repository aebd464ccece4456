package ipc

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFrameReadFrame_RoundTripsCompletionFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, false, []byte(`{"command":"git"}`)))

	f, err := readFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.False(t, f.Debug)
	assert.Equal(t, `{"command":"git"}`, string(f.Payload))
}

func TestWriteFrameReadFrame_RoundTripsDebugFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, true, []byte(`{"request_type":"ping"}`)))

	f, err := readFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.True(t, f.Debug)
	assert.Equal(t, `{"request_type":"ping"}`, string(f.Payload))
}

func TestReadFrame_OversizeFrameErrors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, false, make([]byte, 10)))
	// Corrupt the length prefix to declare more than MaxFrameSize.
	raw := buf.Bytes()
	raw[0] = 0xff
	raw[1] = 0xff
	raw[2] = 0xff
	raw[3] = 0x7f

	_, err := readFrame(bufio.NewReader(bytes.NewReader(raw)))
	assert.Error(t, err)
}

func TestWriteFrame_OversizePayloadRejected(t *testing.T) {
	var buf bytes.Buffer
	err := writeFrame(&buf, false, make([]byte, MaxFrameSize+1))
	assert.Error(t, err)
}

func TestReadFrame_MultipleFramesInSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, false, []byte("one")))
	require.NoError(t, writeFrame(&buf, true, []byte("two")))

	r := bufio.NewReader(&buf)
	f1, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, "one", string(f1.Payload))
	assert.False(t, f1.Debug)

	f2, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, "two", string(f2.Payload))
	assert.True(t, f2.Debug)
}
