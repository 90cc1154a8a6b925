package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreTextPositive(t *testing.T) {
	sa := New()
	score, n := sa.ScoreText("good job")
	assert.Greater(t, score, 0)
	assert.Equal(t, 2, n)
}

func TestScoreTextNegative(t *testing.T) {
	sa := New()
	score, _ := sa.ScoreText("Markets crash as panic spreads")
	assert.Less(t, score, 0)
}

func TestNegationInverts(t *testing.T) {
	sa := New()
	plain, _ := sa.ScoreText("markets rally")
	negated, _ := sa.ScoreText("markets did not rally")
	assert.Greater(t, plain, 0)
	assert.Equal(t, -plain, negated)
}

func TestNegationLookbackWindow(t *testing.T) {
	sa := New()

	// Negator three tokens back still inverts.
	within, _ := sa.ScoreText("not a big rally")
	assert.Less(t, within, 0)

	// Four tokens back is out of the window.
	outside, _ := sa.ScoreText("not really such a rally")
	assert.Greater(t, outside, 0)
}

func TestUnknownWordsScoreZero(t *testing.T) {
	sa := New()
	score, n := sa.ScoreText("quarterly shareholder memorandum")
	assert.Zero(t, score)
	assert.Equal(t, 3, n)
}

func TestEmptyText(t *testing.T) {
	sa := New()
	score, n := sa.ScoreText("")
	assert.Zero(t, score)
	assert.Zero(t, n)
}

func TestCaseInsensitive(t *testing.T) {
	sa := New()
	a, _ := sa.ScoreText("RALLY")
	b, _ := sa.ScoreText("rally")
	assert.Equal(t, a, b)
}
