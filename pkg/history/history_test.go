package history

import (
	"testing"

	"github.com/indexwatch/relevance-router/pkg/decision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDecision(v decision.Verdict, conf float64, sources ...string) decision.Decision {
	d := decision.New(v, conf)
	for i, s := range sources {
		d.TopContributors = append(d.TopContributors,
			decision.NewContributor(s, "text", i+1, "2025-08-16T10:00:00Z"))
	}
	return d
}

func TestMemoryPushAndLastN(t *testing.T) {
	m := NewMemory(100)
	m.Push(sampleDecision(decision.VerdictBuy, 0.8, "Trump", "Fed"))
	m.Push(sampleDecision(decision.VerdictSell, 0.7, "Powell"))

	rows := m.LastN(10)
	require.Len(t, rows, 2)
	assert.Equal(t, decision.VerdictBuy, rows[0].Verdict)
	assert.Equal(t, decision.VerdictSell, rows[1].Verdict)
	assert.Equal(t, []string{"Trump", "Fed"}, rows[0].TopSources)
	assert.Equal(t, []int{1, 2}, rows[0].TopScores)
}

func TestMemoryCapacityBound(t *testing.T) {
	m := NewMemory(3)
	for i := 0; i < 10; i++ {
		m.Push(sampleDecision(decision.VerdictHold, float64(i)/10))
	}
	rows := m.LastN(100)
	require.Len(t, rows, 3)
	assert.InDelta(t, 0.9, rows[2].Confidence, 1e-9)
	assert.InDelta(t, 0.7, rows[0].Confidence, 1e-9)
}

func TestMemoryContributorsCappedAtThree(t *testing.T) {
	m := NewMemory(10)
	m.Push(sampleDecision(decision.VerdictBuy, 0.9, "a", "b", "c", "d", "e"))
	rows := m.LastN(1)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0].TopSources, 3)
}

func TestMemoryLastNOnEmpty(t *testing.T) {
	m := NewMemory(10)
	assert.Empty(t, m.LastN(5))
}

func TestBadgerPushAndLastN(t *testing.T) {
	b, err := NewBadger(t.TempDir(), 100)
	require.NoError(t, err)
	defer b.Close()

	b.Push(sampleDecision(decision.VerdictBuy, 0.8, "Trump"))
	b.Push(sampleDecision(decision.VerdictSell, 0.7, "Fed"))
	b.Push(sampleDecision(decision.VerdictHold, 0.55))

	rows := b.LastN(2)
	require.Len(t, rows, 2)
	assert.Equal(t, decision.VerdictSell, rows[0].Verdict)
	assert.Equal(t, decision.VerdictHold, rows[1].Verdict)
}

func TestBadgerCapacityPrunesOldest(t *testing.T) {
	b, err := NewBadger(t.TempDir(), 5)
	require.NoError(t, err)
	defer b.Close()

	for i := 0; i < 12; i++ {
		b.Push(sampleDecision(decision.VerdictBuy, float64(i)/100))
	}

	rows := b.LastN(100)
	require.Len(t, rows, 5)
	assert.InDelta(t, 0.11, rows[4].Confidence, 1e-9)
}

func TestBadgerSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	b, err := NewBadger(dir, 100)
	require.NoError(t, err)
	b.Push(sampleDecision(decision.VerdictBuy, 0.8, "Trump"))
	require.NoError(t, b.Close())

	b, err = NewBadger(dir, 100)
	require.NoError(t, err)
	defer b.Close()

	rows := b.LastN(10)
	require.Len(t, rows, 1)
	assert.Equal(t, decision.VerdictBuy, rows[0].Verdict)
	assert.Equal(t, []string{"Trump"}, rows[0].TopSources)
}
