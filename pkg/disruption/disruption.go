// Package disruption detects shock-like statements from three components:
// source credibility, sentiment intensity, and freshness. Pure logic, no I/O.
package disruption

import (
	"strings"
	"time"

	"github.com/indexwatch/relevance-router/pkg/sourceweights"
)

// Trigger thresholds, kept readable for easy tuning.
const (
	TriggerWSourceMin   = 0.80
	TriggerWStrengthMin = 0.90
	// TriggerMaxAgeSecs is the hard freshness cutoff.
	TriggerMaxAgeSecs = 30 * 60
	// recencySoftStartSecs is where the soft decay begins.
	recencySoftStartSecs = 15 * 60
	// strengthCap saturates intensity: |score| >= 2 reads as 1.0.
	strengthCap = 2
)

// Input is one statement to evaluate.
type Input struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	// Score is the aggregate lexicon sentiment score.
	Score int `json:"score"`
	// TSUnix is the publish/seen time in Unix seconds.
	TSUnix int64 `json:"ts_unix"`
}

// Result carries the component weights alongside the trigger flag so callers
// can explain why an item did or did not fire.
type Result struct {
	Triggered bool    `json:"triggered"`
	WSource   float64 `json:"w_source"`
	WStrength float64 `json:"w_strength"`
	AgeSecs   int64   `json:"age_secs"`
}

// Evaluate scores an input with the built-in source heuristic. Production
// callers should prefer EvaluateWithWeights and a configured table.
func Evaluate(in Input) Result {
	return evaluate(in, heuristicSourceWeight(in.Source))
}

// EvaluateWithWeights scores an input using an externally configured source
// weight table.
func EvaluateWithWeights(in Input, sw *sourceweights.Config) Result {
	return evaluate(in, clamp01(sw.WeightFor(in.Source)))
}

func evaluate(in Input, wSource float64) Result {
	age := NowUnix() - in.TSUnix
	if age < 0 {
		age = 0
	}

	wStrength := StrengthWeight(in.Score)
	wRecency := RecencyWeight(age)

	triggered := wSource >= TriggerWSourceMin &&
		wStrength >= TriggerWStrengthMin &&
		wRecency > 0

	return Result{
		Triggered: triggered,
		WSource:   wSource,
		WStrength: wStrength,
		AgeSecs:   age,
	}
}

// StrengthWeight normalizes intensity by absolute lexicon score.
func StrengthWeight(score int) float64 {
	if score < 0 {
		score = -score
	}
	return clamp01(float64(score) / float64(strengthCap))
}

// RecencyWeight is 1.0 up to 15 minutes, decays linearly to 0.0 by 30
// minutes, and stays 0.0 afterwards.
func RecencyWeight(ageSecs int64) float64 {
	switch {
	case ageSecs <= recencySoftStartSecs:
		return 1.0
	case ageSecs <= TriggerMaxAgeSecs:
		span := float64(TriggerMaxAgeSecs - recencySoftStartSecs)
		over := float64(ageSecs - recencySoftStartSecs)
		w := 1.0 - over/span
		if w < 0 {
			return 0
		}
		return w
	default:
		return 0
	}
}

// heuristicSourceWeight is the dependency-free fallback table.
func heuristicSourceWeight(source string) float64 {
	switch strings.ToLower(strings.TrimSpace(source)) {
	case "trump":
		return 0.95
	case "fed":
		return 0.90
	case "yellen":
		return 0.85
	default:
		return 0.60
	}
}

// NowUnix returns the current Unix time in seconds.
func NowUnix() int64 { return time.Now().Unix() }

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
