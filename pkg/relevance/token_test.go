package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeBasic(t *testing.T) {
	toks := Tokenize("The Dow is down.")
	texts := make([]string, 0, len(toks))
	for _, tok := range toks {
		texts = append(texts, tok.Text)
	}
	assert.Equal(t, []string{"The", "Dow", "is", "down"}, texts)
	require.Len(t, toks, 4)
	assert.Less(t, toks[1].Start, toks[1].End)
	assert.Equal(t, 1, toks[1].Index)
}

func TestTokenizeEmptyAndPunctuation(t *testing.T) {
	assert.Empty(t, Tokenize(""))
	assert.Empty(t, Tokenize("... !!! ---"))

	toks := Tokenize("naïve café_97")
	require.Len(t, toks, 2)
	assert.Equal(t, "naïve", toks[0].Text)
	assert.Equal(t, "café_97", toks[1].Text)
}

func TestParseTags(t *testing.T) {
	c := ParseCashtags("Watch $dji and $DoW, ignore $es_f.")
	assert.Equal(t, []string{"DJI", "DOW"}, c)

	h := ParseHashtags("News #DJIA #dowjones #FOMC")
	assert.Equal(t, []string{"djia", "dowjones", "fomc"}, h)

	assert.Empty(t, ParseCashtags("no tags here"))
}

func TestBuildTokenIndex(t *testing.T) {
	text := " Hi, there"
	idx := buildTokenIndex(text, Tokenize(text))
	require.Len(t, idx, len(text)+1)

	// Leading space precedes the first token.
	assert.Equal(t, noToken, idx[0])
	// Inside "Hi".
	assert.Equal(t, 0, idx[1])
	assert.Equal(t, 0, idx[2])
	// The comma and space backfill to the previous token.
	assert.Equal(t, 0, idx[4])
	// Inside "there".
	assert.Equal(t, 1, idx[6])
	// One past the end of the text.
	assert.Equal(t, 1, idx[len(text)])
}

func TestTokenIndexForStart(t *testing.T) {
	text := " Hi, there"
	idx := buildTokenIndex(text, Tokenize(text))

	_, ok := tokenIndexForStart(idx, 0)
	assert.False(t, ok, "offset before the first token has no index")

	got, ok := tokenIndexForStart(idx, 5)
	require.True(t, ok)
	assert.Equal(t, 1, got)

	_, ok = tokenIndexForStart(idx, len(idx))
	assert.False(t, ok, "out of range offset")
}

func TestWithinWindow(t *testing.T) {
	assert.True(t, withinWindow([]int{0}, []int{4}, 4))
	assert.False(t, withinWindow([]int{0}, []int{5}, 4))
	assert.True(t, withinWindow([]int{10, 2}, []int{0}, 3))
	assert.False(t, withinWindow(nil, []int{1}, 100))
	assert.False(t, withinWindow([]int{1}, nil, 100))
}
