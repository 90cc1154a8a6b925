// Package aihint produces short, neutral one-line hints for borderline
// decisions via an LLM provider. Calls are cached on disk and capped by a
// daily budget so the adapter stays cheap and optional.
package aihint

import (
	"context"
	"strings"
)

// maxReasonLen caps the hint length after sanitization.
const maxReasonLen = 160

// Result is the provider output. ShortReason is a single sanitized ASCII
// sentence suitable for appending to decision reasons.
type Result struct {
	ShortReason string `json:"short_reason"`
}

// Client is the public face of the adapter. A nil result with a nil error
// means no hint is available (disabled, over budget, or empty output).
type Client interface {
	Analyze(ctx context.Context, input string) (*Result, error)
	ProviderName() string
}

// Provider is a raw hint backend. CachingClient wraps one.
type Provider interface {
	Fetch(ctx context.Context, input string) (*Result, error)
	Name() string
}

// DisabledClient never produces hints.
type DisabledClient struct{}

func (DisabledClient) Analyze(context.Context, string) (*Result, error) { return nil, nil }
func (DisabledClient) ProviderName() string                             { return "disabled" }

// MockProvider returns a fixed hint without any network access.
type MockProvider struct{}

func (MockProvider) Fetch(context.Context, string) (*Result, error) {
	return &Result{ShortReason: "Neutral hint (mock)"}, nil
}
func (MockProvider) Name() string { return "mock" }

// SanitizeReason folds a provider response to one ASCII line: newlines and
// tabs become spaces, non-ASCII runes become spaces, runs of spaces collapse,
// and the result is trimmed and capped at 160 bytes.
func SanitizeReason(input string) string {
	var b strings.Builder
	b.Grow(maxReasonLen)
	prevSpace := false
	for _, r := range input {
		c := r
		switch {
		case r == '\r' || r == '\n' || r == '\t':
			c = ' '
		case r > 127:
			c = ' '
		}
		if c == ' ' {
			if !prevSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			prevSpace = true
		} else {
			b.WriteRune(c)
			prevSpace = false
		}
		if b.Len() >= maxReasonLen {
			break
		}
	}
	return strings.TrimSpace(b.String())
}
