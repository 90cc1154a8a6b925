package ingest

import (
	"html"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const maxTextRunes = 1500

var (
	tagRe = regexp.MustCompile(`(?is)</?[^>]+>`)
	// \s under RE2 is ASCII-only; \p{Z} picks up NBSP and friends.
	wsRe = regexp.MustCompile(`[\s\p{Z}]+`)

	quoteFolder = strings.NewReplacer(
		"“", `"`, "”", `"`, "«", `"`, "»", `"`,
		"‘", "'", "’", "'",
	)
)

// NormalizeText decodes HTML entities, strips tags, folds smart quotes to
// ASCII, collapses whitespace, trims trailing sentence punctuation, and caps
// the length at 1500 runes.
func NormalizeText(s string) string {
	out := html.UnescapeString(s)
	out = tagRe.ReplaceAllString(out, "")
	out = quoteFolder.Replace(out)
	out = strings.TrimSpace(wsRe.ReplaceAllString(out, " "))
	out = strings.TrimRight(out, "!?.,")

	if runes := []rune(out); len(runes) > maxTextRunes {
		out = string(runes[:maxTextRunes])
	}
	return out
}

// IsWhitelisted reports whether source appears in the whitelist, ignoring
// case. An empty whitelist admits everything (callers check that).
func IsWhitelisted(source string, whitelist []string) bool {
	for _, w := range whitelist {
		if strings.EqualFold(w, source) {
			return true
		}
	}
	return false
}

// NormalizeFilterDedup normalizes texts, drops empty or non-whitelisted
// events, and removes duplicate texts among events published within
// dedupWindowSecs of now. Older duplicates are kept; they were presumably
// seen in a previous run. Kept events receive an ID.
func NormalizeFilterDedup(now int64, raw []Event, whitelist []string, dedupWindowSecs int64) (kept []Event, filtered, deduped int) {
	var pass []Event
	for _, ev := range raw {
		ev.Text = NormalizeText(ev.Text)
		if ev.Text == "" || (len(whitelist) > 0 && !IsWhitelisted(ev.Source, whitelist)) {
			filtered++
			continue
		}
		pass = append(pass, ev)
	}

	seen := make(map[string]bool, len(pass))
	for _, ev := range pass {
		recent := now-ev.PublishedAt <= dedupWindowSecs
		if recent && seen[ev.Text] {
			deduped++
			continue
		}
		if recent {
			seen[ev.Text] = true
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		kept = append(kept, ev)
	}
	return kept, filtered, deduped
}
