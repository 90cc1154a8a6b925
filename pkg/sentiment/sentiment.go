// Package sentiment scores short statements with a lexicon and simple
// negation handling. Pure functions, no I/O beyond the embedded lexicon.
package sentiment

import (
	_ "embed"
	"encoding/json"
	"strings"
	"unicode"
)

//go:embed lexicon.json
var lexiconRaw []byte

var lexicon = func() map[string]int {
	m := make(map[string]int)
	if err := json.Unmarshal(lexiconRaw, &m); err != nil {
		panic("sentiment: embedded lexicon is invalid: " + err.Error())
	}
	return m
}()

// negators invert the score of a word they precede by 1 to 3 tokens.
// Single tokens only ("no longer" is covered by "no").
var negators = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"isn't":   true,
	"wasn't":  true,
	"aren't":  true,
	"won't":   true,
	"can't":   true,
	"cannot":  true,
	"without": true,
}

// Analyzer is a stateless lexicon-based scorer.
type Analyzer struct{}

// New returns an Analyzer.
func New() Analyzer { return Analyzer{} }

// ScoreText scores text and returns the summed lexicon score plus the token
// count. A negator within the last 1 to 3 tokens inverts the current word's
// score.
func (Analyzer) ScoreText(text string) (score int, tokens int) {
	words := tokenize(text)
	for i, w := range words {
		base := lexicon[w]
		if base == 0 {
			continue
		}
		negated := false
		for k := 1; k <= 3 && i-k >= 0; k++ {
			if negators[words[i-k]] {
				negated = true
				break
			}
		}
		if negated {
			base = -base
		}
		score += base
	}
	return score, len(words)
}

// tokenize splits on non-alphanumeric runes and lowercases.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.ToLower(f))
	}
	return out
}

// BatchItem is one source+text pair for batch scoring endpoints.
type BatchItem struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}
