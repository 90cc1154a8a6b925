package aihint

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/indexwatch/relevance-router/pkg/relevance"
)

const (
	// EnvScoreBand overrides how far from the threshold a score may sit and
	// still trigger a hint.
	EnvScoreBand = "AI_SCORE_BAND"
	// EnvOnlyTopSources toggles the source allowlist; "0" disables it.
	EnvOnlyTopSources = "AI_ONLY_TOP_SOURCES"
	// EnvSources replaces the built-in allowlist with a comma-separated one.
	EnvSources = "AI_SOURCES"
	// EnvEnabled set to "0" or "false" turns gating off entirely.
	EnvEnabled = "AI_ENABLED"

	defaultScoreBand = 0.08
	defaultThreshold = 0.50
)

// Hints only pay off for statements from market movers; everything else is
// noise the band check would let through.
var defaultTopSources = []string{
	"trump", "powell", "yellen", "fed", "fomc", "treasury",
	"whitehouse", "white house", "reuters", "bloomberg", "wsj",
}

var thresholdTagRe = regexp.MustCompile(`(?i)threshold[a-z_]*\s*[:=]\s*(-?[0-9]+(?:\.[0-9]+)?)`)

// ExtractThreshold pulls the gate threshold out of relevance reason tags
// such as "threshold_ok:0.30" or "threshold=0.72". The first value inside
// [0,1] wins; malformed or out-of-range values are skipped.
func ExtractThreshold(rel relevance.Relevance) (float64, bool) {
	for _, reason := range rel.Reasons {
		m := thresholdTagRe.FindStringSubmatch(reason)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil || v < 0 || v > 1 {
			continue
		}
		return v, true
	}
	return 0, false
}

// ShouldCall decides whether a hint request is worth making for this source
// and relevance outcome. Hints are reserved for scores near the gate
// threshold, where a second opinion can actually change the decision.
//
// AI_TEST_MODE=mock bypasses the source and band checks so tests exercise
// the full pipeline.
func ShouldCall(source string, rel relevance.Relevance) bool {
	if os.Getenv(EnvTestMode) == "mock" {
		return rel.Score > 0
	}
	if v := os.Getenv(EnvEnabled); v == "0" || strings.EqualFold(v, "false") {
		return false
	}

	if os.Getenv(EnvOnlyTopSources) != "0" && !sourceAllowed(source) {
		return false
	}

	threshold, ok := ExtractThreshold(rel)
	if !ok {
		threshold = defaultThreshold
	}
	band := scoreBand()

	diff := rel.Score - threshold
	if diff < 0 {
		diff = -diff
	}
	return diff <= band
}

func sourceAllowed(source string) bool {
	allow := defaultTopSources
	if raw := os.Getenv(EnvSources); raw != "" {
		allow = strings.Split(raw, ",")
	}
	s := strings.ToLower(strings.TrimSpace(source))
	for _, a := range allow {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if s == a || strings.Contains(s, a) {
			return true
		}
	}
	return false
}

func scoreBand() float64 {
	if raw := os.Getenv(EnvScoreBand); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 && v <= 1 {
			return v
		}
	}
	return defaultScoreBand
}
