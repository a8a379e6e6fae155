package ssh

import (
	"io"
	"math/rand"
	"sync"
	"time"
)

const (
	tarpitQueueSize = 1000
	tarpitDelayMin  = 10 * time.Millisecond
	tarpitDelayMax  = 700 * time.Millisecond
)

// tarpitWriter decouples command output from channel writes through a
// bounded queue so the session loop never blocks on a slow client. In
// tarpit mode the consumer dribbles output one byte at a time with a
// random delay, wasting as much attacker time as possible.
type tarpitWriter struct {
	out    io.Writer
	tarpit bool

	mu     sync.Mutex
	closed bool
	queue  chan []byte
	done   chan struct{}
}

func newTarpitWriter(out io.Writer, tarpit bool) *tarpitWriter {
	w := &tarpitWriter{
		out:    out,
		tarpit: tarpit,
		queue:  make(chan []byte, tarpitQueueSize),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *tarpitWriter) run() {
	defer close(w.done)
	for chunk := range w.queue {
		if !w.tarpit {
			if _, err := w.out.Write(chunk); err != nil {
				return
			}
			continue
		}
		for _, b := range chunk {
			delay := tarpitDelayMin + time.Duration(rand.Int63n(int64(tarpitDelayMax-tarpitDelayMin)))
			time.Sleep(delay)
			if _, err := w.out.Write([]byte{b}); err != nil {
				return
			}
		}
	}
}

// Write queues p for delivery. It never blocks: when the queue is full
// (a tarpitted client far behind) the chunk is dropped, which is fine
// for output nobody legitimate is reading.
func (w *tarpitWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, io.ErrClosedPipe
	}

	chunk := make([]byte, len(p))
	copy(chunk, p)

	select {
	case w.queue <- chunk:
	default:
	}
	return len(p), nil
}

// WriteString queues s for delivery.
func (w *tarpitWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Close stops accepting writes and waits for queued output to drain.
func (w *tarpitWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	close(w.queue)
	w.mu.Unlock()

	<-w.done
	return nil
}
