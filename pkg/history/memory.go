package history

import (
	"sync"

	"github.com/indexwatch/relevance-router/pkg/decision"
)

// Memory is a fixed-capacity in-memory decision log.
type Memory struct {
	mu  sync.Mutex
	buf []Entry
	cap int
}

// NewMemory creates an in-memory store with the given capacity (capped at
// 10k).
func NewMemory(capacity int) *Memory {
	return &Memory{cap: capCapacity(capacity)}
}

// Push appends a snapshot, dropping the oldest entries past capacity.
func (m *Memory) Push(d decision.Decision) {
	e := entryFrom(d)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = append(m.buf, e)
	if excess := len(m.buf) - m.cap; excess > 0 {
		m.buf = append(m.buf[:0], m.buf[excess:]...)
	}
}

// LastN returns up to n most recent entries, oldest first.
func (m *Memory) LastN(n int) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := len(m.buf) - n
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(m.buf)-start)
	copy(out, m.buf[start:])
	return out
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }
