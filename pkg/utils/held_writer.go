package utils

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// HeldWriter keeps writes in memory while a full-screen program owns the
// terminal, then hands them to the real destination with Release. Writes past
// the limit are counted and discarded. Safe for concurrent use.
type HeldWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	limit   int
	dropped int
}

// NewHeldWriter returns a writer holding at most limit bytes. A limit of zero
// or less holds everything.
func NewHeldWriter(limit int) *HeldWriter {
	return &HeldWriter{limit: limit}
}

// Write stores p, or counts it as dropped once the limit is reached. It never
// fails so a logger writing through it is never interrupted.
func (h *HeldWriter) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.limit > 0 && h.buf.Len()+len(p) > h.limit {
		h.dropped += len(p)
		return len(p), nil
	}
	return h.buf.Write(p)
}

// Release writes everything held to w and resets the writer. When bytes were
// dropped a trailing note says how many.
func (h *HeldWriter) Release(w io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buf.Len() > 0 {
		if _, err := h.buf.WriteTo(w); err != nil {
			return err
		}
	}

	if h.dropped > 0 {
		dropped := h.dropped
		h.dropped = 0
		if _, err := fmt.Fprintf(w, "(%d bytes of output dropped)\n", dropped); err != nil {
			return err
		}
	}

	return nil
}
