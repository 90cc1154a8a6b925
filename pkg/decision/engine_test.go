package decision

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/indexwatch/relevance-router/pkg/disruption"
	"github.com/indexwatch/relevance-router/pkg/relevance"
	"github.com/indexwatch/relevance-router/pkg/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(source, text string) sentiment.BatchItem {
	return sentiment.BatchItem{Source: source, Text: text}
}

func trig(wSource, wStrength float64, age int64) disruption.Result {
	return disruption.Result{Triggered: true, WSource: wSource, WStrength: wStrength, AgeSecs: age}
}

func notrig(wSource, wStrength float64, age int64) disruption.Result {
	return disruption.Result{Triggered: false, WSource: wSource, WStrength: wStrength, AgeSecs: age}
}

func TestBuyOnStrongPositiveTrigger(t *testing.T) {
	d := MakeDecision([]ScoredItem{
		{Item: item("Trump", "Economy strong"), Score: 2, Result: trig(0.95, 1.0, 10)},
		{Item: item("Analyst", "blah"), Score: 0, Result: notrig(0.6, 0.0, 10)},
	})
	assert.Equal(t, VerdictBuy, d.Decision)
	assert.GreaterOrEqual(t, d.Confidence, 0.75)
	assert.LessOrEqual(t, d.Confidence, 0.95)
	assert.NotEmpty(t, d.Reasons)
}

func TestSellOnStrongNegativeTrigger(t *testing.T) {
	d := MakeDecision([]ScoredItem{
		{Item: item("Fed", "Markets will crash"), Score: -3, Result: trig(0.95, 1.0, 60)},
	})
	assert.Equal(t, VerdictSell, d.Decision)
	assert.Greater(t, d.Confidence, 0.55)
}

func TestConflictYieldsHold(t *testing.T) {
	d := MakeDecision([]ScoredItem{
		{Item: item("Trump", "Economy strong"), Score: 2, Result: trig(0.95, 1.0, 10)},
		{Item: item("Fed", "Serious risks ahead"), Score: -2, Result: trig(0.95, 1.0, 20)},
	})
	assert.Equal(t, VerdictHold, d.Decision)
	assert.InDelta(t, 0.55, d.Confidence, 1e-9)
}

func TestNoTriggersYieldHoldWithBaseline(t *testing.T) {
	d := MakeDecision([]ScoredItem{
		{Item: item("Analyst", "nothing happening"), Score: 1, Result: notrig(0.6, 0.5, 10)},
	})
	assert.Equal(t, VerdictHold, d.Decision)
	assert.InDelta(t, 0.55, d.Confidence, 1e-9)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0].Message, "No disruptive statements")
}

func TestIndependenceBonusRaisesConfidence(t *testing.T) {
	one := MakeDecision([]ScoredItem{
		{Item: item("Fed", "surge one"), Score: 2, Result: trig(0.95, 1.0, 10)},
		{Item: item("Fed", "surge two"), Score: 2, Result: trig(0.95, 1.0, 10)},
	})
	two := MakeDecision([]ScoredItem{
		{Item: item("Fed", "surge one"), Score: 2, Result: trig(0.95, 1.0, 10)},
		{Item: item("Powell", "surge two"), Score: 2, Result: trig(0.95, 1.0, 10)},
	})
	assert.Greater(t, two.Confidence, one.Confidence)
}

func TestConfidenceCappedAt95(t *testing.T) {
	d := MakeDecision([]ScoredItem{
		{Item: item("Fed", "a"), Score: 2, Result: trig(1.0, 1.0, 0)},
		{Item: item("Powell", "b"), Score: 2, Result: trig(1.0, 1.0, 0)},
		{Item: item("Trump", "c"), Score: 2, Result: trig(1.0, 1.0, 0)},
	})
	assert.InDelta(t, 0.95, d.Confidence, 1e-9)
}

func TestTopContributorsPreferTriggered(t *testing.T) {
	d := MakeDecision([]ScoredItem{
		{Item: item("Analyst", "loud but untriggered"), Score: 5, Result: notrig(0.6, 1.0, 10)},
		{Item: item("Fed", "quiet but triggered"), Score: -2, Result: trig(0.95, 1.0, 10)},
	})
	require.NotEmpty(t, d.TopContributors)
	assert.Equal(t, "Fed", d.TopContributors[0].Source)
	assert.LessOrEqual(t, len(d.TopContributors), 3)
}

func TestDecisionSerializationShape(t *testing.T) {
	d := New(VerdictBuy, 0.78)
	d.Reasons = append(d.Reasons, NewReason("Trump said economy is strong (+2)"))
	d.TopContributors = append(d.TopContributors,
		NewContributor("Trump", "The economy is strong.", 2, "2025-08-16T10:00:00Z").
			WithWeights(0.95, 0.92, 1.0))

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var v map[string]any
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, "BUY", v["decision"])
	assert.InDelta(t, 0.78, v["confidence"].(float64), 1e-6)

	contribs := v["top_contributors"].([]any)
	c := contribs[0].(map[string]any)
	assert.Equal(t, "Trump", c["source"])
	assert.Equal(t, "The economy is strong.", c["text"])
	assert.Equal(t, float64(2), c["score"])
	assert.Equal(t, "2025-08-16T10:00:00Z", c["ts"])
}

func TestReasonOmitsEmptyOptionalFields(t *testing.T) {
	raw, err := json.Marshal(NewReason("plain"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "weight")
	assert.NotContains(t, string(raw), "kind")

	raw, err = json.Marshal(NewReason("full").Weighted(2.0).WithKind(KindVolume))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"weight":1`)
	assert.Contains(t, string(raw), `"kind":"volume"`)
}

const gateCfgYAML = `
relevance:
  threshold: 0.30

weights:
  hard: 3
  macro: 2

anchors:
  - id: djia_core_names
    category: hard
    pattern: '(?i)\b(djia|dow jones|the dow|dow)\b'
  - id: powell_near_fed_rates
    category: macro
    pattern: '(?i)\bpowell\b'
    near:
      pattern: '(?i)\b(fed|fomc|rates?)\b'
      window: 10

combos:
  pass_any:
    - need: [macro, hard]
`

func gateHandle(t *testing.T) *relevance.Handle {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "relevance.yaml")
	require.NoError(t, os.WriteFile(path, []byte(gateCfgYAML), 0o644))
	h, err := relevance.LoadHandle(path)
	require.NoError(t, err)
	return h
}

func TestApplyRelevanceGateNeutralizes(t *testing.T) {
	h := gateHandle(t)

	d := New(VerdictBuy, 0.80)
	d.ApplyRelevanceGate("A celebrity adopted a puppy today.", h)

	assert.Equal(t, VerdictBuy, d.Decision, "verdict is kept for transparency")
	assert.Zero(t, d.Confidence)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0].Message, "neutralized by relevance gate")
}

func TestApplyRelevanceGatePasses(t *testing.T) {
	h := gateHandle(t)

	d := New(VerdictBuy, 0.80)
	d.ApplyRelevanceGate("Powell said the Dow rose after the FOMC meeting.", h)

	assert.InDelta(t, 0.80, d.Confidence, 1e-9)
	require.NotEmpty(t, d.Reasons)
	assert.Contains(t, d.Reasons[0].Message, "relevance gate passed")

	found := false
	for _, r := range d.Reasons {
		if strings.HasPrefix(r.Message, "rel: ") {
			found = true
		}
	}
	assert.True(t, found, "raw gate reasons should surface with a rel: prefix")
}
