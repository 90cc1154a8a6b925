// Package history logs recent decisions for diagnostics, volume context, and
// anti-flutter checks. Two backends: a capacity-bounded in-memory buffer and
// a Badger-backed persistent log with the same interface.
package history

import (
	"time"

	"github.com/indexwatch/relevance-router/pkg/decision"
)

// maxCapacity bounds any history backend.
const maxCapacity = 10_000

// Entry is a compact record of a past decision. No full explainability is
// retained, only what lookback logic needs.
type Entry struct {
	TSUnix     int64            `json:"ts_unix"`
	Verdict    decision.Verdict `json:"verdict"`
	Confidence float64          `json:"confidence"`
	// TopSources holds up to three contributor sources.
	TopSources []string `json:"sources"`
	// TopScores holds the corresponding scores.
	TopScores []int `json:"scores"`
}

// Store is the common decision-log interface.
type Store interface {
	// Push appends a snapshot of d.
	Push(d decision.Decision)
	// LastN returns up to n most recent entries, oldest first.
	LastN(n int) []Entry
	// Close releases backend resources.
	Close() error
}

func entryFrom(d decision.Decision) Entry {
	e := Entry{
		TSUnix:     time.Now().Unix(),
		Verdict:    d.Decision,
		Confidence: d.Confidence,
	}
	for i, c := range d.TopContributors {
		if i == 3 {
			break
		}
		e.TopSources = append(e.TopSources, c.Source)
		e.TopScores = append(e.TopScores, c.Score)
	}
	return e
}

func capCapacity(cap int) int {
	if cap <= 0 || cap > maxCapacity {
		return maxCapacity
	}
	return cap
}
