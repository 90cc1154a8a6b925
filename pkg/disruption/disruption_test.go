package disruption

import (
	"testing"

	"github.com/indexwatch/relevance-router/pkg/sourceweights"
	"github.com/stretchr/testify/assert"
)

func TestStrongRecentSourceTriggers(t *testing.T) {
	res := Evaluate(Input{
		Source: "Trump",
		Text:   "The economy is strong.",
		Score:  3,
		TSUnix: NowUnix(),
	})
	assert.True(t, res.Triggered)
	assert.GreaterOrEqual(t, res.WSource, 0.9)
	assert.GreaterOrEqual(t, res.WStrength, 0.9)
	assert.LessOrEqual(t, res.AgeSecs, int64(TriggerMaxAgeSecs))
}

func TestWeakScoreDoesNotTrigger(t *testing.T) {
	res := Evaluate(Input{Source: "Fed", Text: "We are monitoring.", Score: 1, TSUnix: NowUnix()})
	assert.False(t, res.Triggered)
}

func TestOldItemDoesNotTrigger(t *testing.T) {
	res := Evaluate(Input{
		Source: "Trump",
		Text:   "Strong statement.",
		Score:  3,
		TSUnix: NowUnix() - 31*60,
	})
	assert.False(t, res.Triggered)
	assert.Greater(t, res.AgeSecs, int64(1800))
}

func TestRecencyWeight(t *testing.T) {
	assert.InDelta(t, 1.0, RecencyWeight(0), 1e-9)
	assert.InDelta(t, 1.0, RecencyWeight(15*60), 1e-9)
	assert.InDelta(t, 0.5, RecencyWeight(1350), 1e-9)
	assert.InDelta(t, 0.0, RecencyWeight(30*60), 1e-9)
	assert.InDelta(t, 0.0, RecencyWeight(31*60), 1e-9)
}

func TestStrengthWeight(t *testing.T) {
	assert.InDelta(t, 0.0, StrengthWeight(0), 1e-9)
	assert.InDelta(t, 0.5, StrengthWeight(1), 1e-9)
	assert.InDelta(t, 0.5, StrengthWeight(-1), 1e-9)
	assert.InDelta(t, 1.0, StrengthWeight(2), 1e-9)
	assert.InDelta(t, 1.0, StrengthWeight(-5), 1e-9)
}

func TestEvaluateWithWeights(t *testing.T) {
	cfg := &sourceweights.Config{
		DefaultWeight: 0.60,
		Weights:       map[string]float64{"bigsource": 0.90, "lowsource": 0.70},
	}

	triggered := EvaluateWithWeights(Input{
		Source: "BigSource", Text: "Strong surge", Score: 2, TSUnix: NowUnix(),
	}, cfg)
	assert.True(t, triggered.Triggered)

	blocked := EvaluateWithWeights(Input{
		Source: "LowSource", Text: "Strong surge", Score: 2, TSUnix: NowUnix(),
	}, cfg)
	assert.False(t, blocked.Triggered, "low source weight must block the trigger")
	assert.Less(t, blocked.WSource, 0.80)
	assert.GreaterOrEqual(t, blocked.WStrength, 0.90)
}

func TestSoftTaperStillTriggersAtTwentyMinutes(t *testing.T) {
	res := EvaluateWithWeights(Input{
		Source: "Fed", Text: "Strong statement", Score: 3, TSUnix: NowUnix() - 20*60,
	}, sourceweights.DefaultSeed())
	assert.True(t, res.Triggered)
}

func TestFutureTimestampClampsToZeroAge(t *testing.T) {
	res := Evaluate(Input{Source: "Fed", Text: "x", Score: 3, TSUnix: NowUnix() + 3600})
	assert.Zero(t, res.AgeSecs)
	assert.True(t, res.Triggered)
}
