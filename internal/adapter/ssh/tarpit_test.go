package ssh

import (
	"bytes"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is a goroutine-safe bytes.Buffer for the writer goroutine
// to land output in.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestTarpitWriterPassthrough(t *testing.T) {
	var out syncBuffer
	w := newTarpitWriter(&out, false)

	_, err := w.WriteString("hello ")
	require.NoError(t, err)
	_, err = w.Write([]byte("world"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.Equal(t, "hello world", out.String())
}

func TestTarpitWriterDribblesBytes(t *testing.T) {
	var out syncBuffer
	w := newTarpitWriter(&out, true)

	start := time.Now()
	_, err := w.WriteString("ab")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "ab", out.String())
	// Two bytes at >=10ms each.
	assert.GreaterOrEqual(t, time.Since(start), 2*tarpitDelayMin)
}

func TestTarpitWriterRejectsWritesAfterClose(t *testing.T) {
	var out syncBuffer
	w := newTarpitWriter(&out, false)
	require.NoError(t, w.Close())

	_, err := w.Write([]byte("late"))
	assert.Equal(t, io.ErrClosedPipe, err)
}

func TestTarpitWriterCloseTwice(t *testing.T) {
	var out syncBuffer
	w := newTarpitWriter(&out, false)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestTarpitWriterNeverBlocksWhenQueueFull(t *testing.T) {
	// A tarpitted writer drains at ~10ms/byte; flood it far beyond the
	// queue size and make sure Write keeps returning immediately.
	var out syncBuffer
	w := newTarpitWriter(&out, true)
	defer func() {
		// Closing waits for the drain, which would take forever here;
		// just make sure the writes themselves didn't block.
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < tarpitQueueSize*2; i++ {
			_, _ = w.Write([]byte("x"))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Write blocked on a full queue")
	}
}
