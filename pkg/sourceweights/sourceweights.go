// Package sourceweights maps information sources (people, agencies, outlets)
// to trust/impact weights in [0,1].
//
// Lookup order: alias resolution, exact match, substring fallback, default.
// All lookups normalize case, dashes, and punctuation first, so "Jerome
// Powell", "jerome-powell", and "JEROME POWELL" resolve identically.
package sourceweights

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
)

// Config holds the weight table. Zero value is unusable; start from
// DefaultSeed or LoadFromFile.
type Config struct {
	// DefaultWeight applies when no rule matches.
	DefaultWeight float64 `json:"default_weight"`
	// Weights keys are canonical normalized source names.
	Weights map[string]float64 `json:"weights"`
	// Aliases map alternative spellings and handles to canonical names.
	Aliases map[string]string `json:"aliases"`
}

// LoadFromFile reads a JSON weight table. Any read or parse error falls back
// to the built-in seed so a broken config never silences scoring.
func LoadFromFile(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warnf("source weights: %v, using built-in seed", err)
		return DefaultSeed()
	}
	cfg := &Config{DefaultWeight: 0.60}
	if err := json.Unmarshal(data, cfg); err != nil {
		logging.Warnf("source weights: parsing %s: %v, using built-in seed", path, err)
		return DefaultSeed()
	}
	if cfg.Weights == nil {
		cfg.Weights = map[string]float64{}
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	return cfg
}

// WeightFor resolves the weight for a source name.
func (c *Config) WeightFor(source string) float64 {
	s := normalize(source)

	if canon, ok := c.Aliases[s]; ok {
		if w, ok := c.Weights[normalize(canon)]; ok {
			return clamp01(w)
		}
	}

	if w, ok := c.Weights[s]; ok {
		return clamp01(w)
	}

	for k, w := range c.Weights {
		if strings.Contains(s, k) {
			return clamp01(w)
		}
	}

	return clamp01(c.DefaultWeight)
}

// DefaultSeed returns the built-in table of common political, financial, and
// tech sources.
func DefaultSeed() *Config {
	weights := map[string]float64{
		"trump":               0.98,
		"biden":               0.95,
		"powell":              0.97,
		"fed":                 0.95,
		"fomc":                0.95,
		"yellen":              0.93,
		"musk":                0.97,
		"xi":                  0.95,
		"wsj":                 0.90,
		"wall street journal": 0.90,
		"reuters":             0.85,
		"bloomberg":           0.85,
		"financial times":     0.90,
		"new york times":      0.88,
		"apple":               0.90,
		"microsoft":           0.90,
		"alphabet":            0.88,
		"google":              0.88,
		"meta":                0.88,
		"facebook":            0.88,
		"jamie dimon":         0.90,
		"jpmorgan":            0.88,
		"blackrock":           0.86,
		"goldman sachs":       0.86,
		"vanguard":            0.84,
		"ecb":                 0.86,
		"boe":                 0.84,
	}
	aliases := map[string]string{
		"@realdonaldtrump":        "trump",
		"president":               "biden",
		"potus":                   "biden",
		"jerome powell":           "powell",
		"federal reserve":         "fed",
		"janet yellen":            "yellen",
		"u s treasury":            "yellen",
		"treasury":                "yellen",
		"elon":                    "musk",
		"@elonmusk":               "musk",
		"xi jinping":              "xi",
		"xijinping":               "xi",
		"the wall street journal": "wall street journal",
		"wsj com":                 "wsj",
		"ft":                      "financial times",
		"nytimes":                 "new york times",
		"nyt":                     "new york times",
		"google inc":              "google",
		"alphabet inc":            "alphabet",
		"meta platforms":          "meta",
		"facebook inc":            "facebook",
		"jp morgan":               "jpmorgan",
		"j p morgan":              "jpmorgan",
		"gs":                      "goldman sachs",
		"european central bank":   "ecb",
		"bank of england":         "boe",
	}
	return &Config{DefaultWeight: 0.60, Weights: weights, Aliases: aliases}
}

var separatorReplacer = strings.NewReplacer(
	"—", " ", "–", " ", "-", " ", "_", " ", "/", " ", "\\", " ",
	"\n", " ", "\r", " ", "\t", " ",
	".", " ", ",", " ", "‚", " ", "’", " ", "'", " ",
)

// normalize lowercases, folds separators and punctuation to spaces, and
// collapses whitespace runs.
func normalize(s string) string {
	out := separatorReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
	return strings.Join(strings.Fields(out), " ")
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
