package relevance

import (
	"regexp"
	"sort"
	"strings"
)

// Token is one word token with its byte span and sequential index.
type Token struct {
	Text  string
	Start int
	End   int
	Index int
}

// \w under RE2 is ASCII-only, so spell out the Unicode word classes.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize splits text into Unicode word tokens. Punctuation and whitespace
// are separators, never tokens. Empty input yields an empty slice.
func Tokenize(text string) []Token {
	spans := wordRe.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(spans))
	for i, span := range spans {
		tokens = append(tokens, Token{
			Text:  text[span[0]:span[1]],
			Start: span[0],
			End:   span[1],
			Index: i,
		})
	}
	return tokens
}

var (
	cashtagRe = regexp.MustCompile(`(?i)\$[a-z]{1,5}\b`)
	hashtagRe = regexp.MustCompile(`(?i)#[a-z0-9_]+\b`)
)

// ParseCashtags extracts cashtags like $DJI or $dow and returns distinct
// uppercase symbols without the dollar sign, sorted.
func ParseCashtags(text string) []string {
	return collectTags(cashtagRe.FindAllString(text, -1), strings.ToUpper)
}

// ParseHashtags extracts hashtags like #DJIA and returns distinct lowercase
// tags without the hash, sorted.
func ParseHashtags(text string) []string {
	return collectTags(hashtagRe.FindAllString(text, -1), strings.ToLower)
}

func collectTags(raw []string, fold func(string) string) []string {
	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		t := fold(tag[1:])
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// noToken marks byte positions that precede the first token.
const noToken = -1

// buildTokenIndex returns a byte-position to token-index lookup covering
// every offset in text (length len(text)+1). Positions inside or at the
// boundary of a token map to that token; gaps backfill with the previous
// token's index; positions before the first token stay at noToken.
func buildTokenIndex(text string, tokens []Token) []int {
	idx := make([]int, len(text)+1)
	for i := range idx {
		idx[i] = noToken
	}
	for _, t := range tokens {
		for i := t.Start; i <= t.End; i++ {
			idx[i] = t.Index
		}
	}
	last := noToken
	for i := range idx {
		if idx[i] == noToken {
			idx[i] = last
		} else {
			last = idx[i]
		}
	}
	return idx
}

// tokenIndexForStart maps a regex match's start offset into a token index.
// The boolean is false when no token precedes the offset.
func tokenIndexForStart(byteToTok []int, start int) (int, bool) {
	if start < 0 || start >= len(byteToTok) {
		return 0, false
	}
	if idx := byteToTok[start]; idx != noToken {
		return idx, true
	}
	return 0, false
}

// withinWindow reports whether any index in a is within window tokens
// (inclusive, either direction) of any index in b.
func withinWindow(a, b []int, window int) bool {
	for _, x := range a {
		for _, y := range b {
			dist := x - y
			if dist < 0 {
				dist = -dist
			}
			if dist <= window {
				return true
			}
		}
	}
	return false
}
