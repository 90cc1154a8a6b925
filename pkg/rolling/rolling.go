// Package rolling keeps a sliding time window over sentiment scores for
// informative metrics. Alerts are driven by disruption logic, not by this.
package rolling

import (
	"sync"
	"time"
)

type sample struct {
	ts    int64
	score int
}

// Window is a thread-safe rolling time window over integer scores.
type Window struct {
	mu     sync.Mutex
	buf    []sample
	window time.Duration
}

// NewWindow creates a rolling window of the given duration.
func NewWindow(window time.Duration) *Window {
	return &Window{window: window}
}

// New48h is the default 48 hour window.
func New48h() *Window {
	return NewWindow(48 * time.Hour)
}

// Record appends an observation at tsUnix (0 means now) and discards entries
// older than the window.
func (w *Window) Record(score int, tsUnix int64) {
	now := time.Now().Unix()
	if tsUnix == 0 {
		tsUnix = now
	}
	cutoff := now - int64(w.window.Seconds())

	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, sample{ts: tsUnix, score: score})
	i := 0
	for i < len(w.buf) && w.buf[i].ts < cutoff {
		i++
	}
	if i > 0 {
		w.buf = append(w.buf[:0], w.buf[i:]...)
	}
}

// AverageAndCount returns the mean score and sample count within the window.
func (w *Window) AverageAndCount() (avg float64, n int) {
	cutoff := time.Now().Unix() - int64(w.window.Seconds())

	w.mu.Lock()
	defer w.mu.Unlock()

	sum := 0
	for i := len(w.buf) - 1; i >= 0; i-- {
		if w.buf[i].ts < cutoff {
			// Older samples sit at the front; stop early.
			break
		}
		sum += w.buf[i].score
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}

// WindowSecs reports the window length for diagnostics.
func (w *Window) WindowSecs() int64 { return int64(w.window.Seconds()) }
