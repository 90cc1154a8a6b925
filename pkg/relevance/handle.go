package relevance

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
	"github.com/indexwatch/relevance-router/pkg/observability/metrics"
)

// Handle is a shared, swappable view of a compiled Engine. Scoring runs under
// a read lock; reloads swap the engine under a write lock, so concurrent
// scorers always see a consistent rule set.
type Handle struct {
	mu  sync.RWMutex
	eng *Engine

	path string
}

// NewHandle wraps an already compiled engine.
func NewHandle(eng *Engine) *Handle {
	return &Handle{eng: eng}
}

// LoadHandle loads the rule file at path and wraps it. The path is remembered
// for later reloads.
func LoadHandle(path string) (*Handle, error) {
	eng, err := LoadEngine(path)
	if err != nil {
		return nil, err
	}
	return &Handle{eng: eng, path: path}, nil
}

// Score evaluates text against the current engine.
func (h *Handle) Score(text string) Relevance {
	h.mu.RLock()
	eng := h.eng
	h.mu.RUnlock()
	return eng.Score(text)
}

// Threshold returns the current engine's effective threshold.
func (h *Handle) Threshold() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.eng.Threshold()
}

// Swap replaces the engine. Nil engines are ignored.
func (h *Handle) Swap(eng *Engine) {
	if eng == nil {
		return
	}
	h.mu.Lock()
	h.eng = eng
	h.mu.Unlock()
}

// Reload recompiles the rule file and swaps it in. On any error the current
// engine stays in place, so a half-written or invalid file never takes down
// scoring.
func (h *Handle) Reload() error {
	eng, err := LoadEngine(h.path)
	if err != nil {
		metrics.GateReloads.WithLabelValues("error").Inc()
		return err
	}
	h.Swap(eng)
	metrics.GateReloads.WithLabelValues("success").Inc()
	return nil
}

// Reloader triggers a callback on some cadence until its context ends.
// The file watcher below is the production implementation; tests substitute
// a manual trigger.
type Reloader interface {
	Run(ctx context.Context, onChange func())
}

// PollReloader watches a file's modification time and fires onChange when it
// moves. Polling keeps the watcher dependency-free and works on every
// filesystem, including bind mounts where inotify is unreliable.
type PollReloader struct {
	Path     string
	Interval time.Duration
}

// Run polls until ctx is done. The first observation establishes the
// baseline; only subsequent changes fire onChange.
func (p *PollReloader) Run(ctx context.Context, onChange func()) {
	interval := p.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	var last time.Time
	if fi, err := os.Stat(p.Path); err == nil {
		last = fi.ModTime()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fi, err := os.Stat(p.Path)
			if err != nil {
				continue
			}
			if mt := fi.ModTime(); mt.After(last) {
				last = mt
				onChange()
			}
		}
	}
}

// HotReloadEnabled reports whether the rule file should be watched for
// changes. Reloading is opt-in via RELEVANCE_HOT_RELOAD=1 and restricted to
// development environments.
func HotReloadEnabled() bool {
	return os.Getenv(EnvHotReload) == "1" && isDevEnvironment()
}

// StartHotReload wires a reloader to the handle when hot reload is enabled.
// Reload failures are logged and the previous engine keeps serving.
func (h *Handle) StartHotReload(ctx context.Context, r Reloader) {
	if !HotReloadEnabled() {
		return
	}
	if r == nil {
		r = &PollReloader{Path: h.path}
	}
	go r.Run(ctx, func() {
		if err := h.Reload(); err != nil {
			logging.Warnf("relevance reload failed, keeping previous rules: %v", err)
			return
		}
		logging.Infof("relevance rules reloaded from %s", h.path)
	})
}
