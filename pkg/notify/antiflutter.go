package notify

import (
	"sync"
	"time"

	"github.com/indexwatch/relevance-router/pkg/decision"
)

// AntiFlutter suppresses repeated alerts inside a cooldown window. The first
// alert always passes; during cooldown only a change of direction to BUY or
// SELL passes, so an oscillating signal produces at most one alert per
// direction per window.
type AntiFlutter struct {
	mu       sync.Mutex
	cooldown time.Duration

	lastAt   time.Time
	lastKind decision.Verdict
	hasLast  bool
}

// NewAntiFlutter creates a limiter with the given cooldown.
func NewAntiFlutter(cooldown time.Duration) *AntiFlutter {
	return &AntiFlutter{cooldown: cooldown}
}

// ShouldAlert reports whether an alert of kind at time now may go out.
func (a *AntiFlutter) ShouldAlert(kind decision.Verdict, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.hasLast {
		return true
	}
	if now.Sub(a.lastAt) >= a.cooldown {
		return true
	}
	// During cooldown: only a direction change to BUY or SELL passes.
	if kind == a.lastKind {
		return false
	}
	return kind == decision.VerdictBuy || kind == decision.VerdictSell
}

// RecordAlert notes that an alert of kind went out at now.
func (a *AntiFlutter) RecordAlert(kind decision.Verdict, now time.Time) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastKind = kind
	a.lastAt = now
	a.hasLast = true
}
