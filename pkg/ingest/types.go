// Package ingest pulls statements from external providers, normalizes them,
// applies the source whitelist, and deduplicates repeats inside a time
// window. The output feeds the decision pipeline.
package ingest

import "context"

// Event is one normalized statement from a provider.
type Event struct {
	// ID is assigned when the event survives filtering.
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	// PublishedAt is Unix seconds.
	PublishedAt int64  `json:"published_at"`
	Text        string `json:"text"`
	URL         string `json:"url,omitempty"`
	// PriorityHint lets providers mark e.g. central bank feeds.
	PriorityHint int `json:"priority_hint,omitempty"`
}

// Provider fetches the latest raw events from one upstream feed.
type Provider interface {
	FetchLatest(ctx context.Context) ([]Event, error)
	Name() string
}
