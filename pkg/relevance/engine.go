// Package relevance implements the configuration-driven gate that decides
// whether a short text statement is about the tracked market index.
//
// Evaluation runs in a fixed order: blockers (hard veto), the single-stock
// guard, combo templates, then the weighted score against the threshold.
// Earlier stages short-circuit later ones. Score is a total function: absence
// of matches is a normal negative outcome, never an error.
package relevance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
	"github.com/indexwatch/relevance-router/pkg/observability/metrics"
)

// Relevance is the result of one gate evaluation. Score is clamped to [0,1];
// a blocked or neutralized text carries score 0. Matched lists the qualifying
// anchor ids, sorted and deduplicated. Reasons carries machine-readable tags
// (blocker:*, combo:*, combos_ok/combos_fail, threshold_ok:*/threshold_fail:*,
// single_stock_only_without_broader_context).
type Relevance struct {
	Score   float64  `json:"score"`
	Matched []string `json:"matched"`
	Reasons []string `json:"reasons"`
}

type nearMatcher struct {
	re     *regexp.Regexp
	window int
}

type compiledAnchor struct {
	cfg  AnchorConfig
	re   *regexp.Regexp
	near *nearMatcher
}

type compiledBlocker struct {
	cfg        BlockerConfig
	re         *regexp.Regexp
	near       *nearMatcher
	unlessNear *nearMatcher
}

// Engine holds one immutable compiled rule set. Build a new Engine for every
// configuration change; never mutate one in place.
type Engine struct {
	cfg      *Config
	anchors  []compiledAnchor
	blockers []compiledBlocker

	// broadContext is the category set that satisfies the single-stock guard.
	broadContext map[string]bool
}

// NewEngine compiles a parsed config. Every anchor, blocker, near, and
// unless_near pattern must compile; the first failure is returned as a
// *ConfigError naming the rule.
func NewEngine(cfg *Config) (*Engine, error) {
	eng := &Engine{
		cfg:          cfg,
		broadContext: map[string]bool{"hard": true, "macro": true, "semi": true},
	}

	for _, a := range cfg.Anchors {
		re, err := regexp.Compile(a.Pattern)
		if err != nil {
			return nil, &ConfigError{RuleID: a.ID, Field: "pattern", Err: err}
		}
		near, err := compileNear(a.Near)
		if err != nil {
			return nil, &ConfigError{RuleID: a.ID, Field: "near", Err: err}
		}
		eng.anchors = append(eng.anchors, compiledAnchor{cfg: a, re: re, near: near})
	}

	for _, b := range cfg.Blockers {
		re, err := regexp.Compile(b.Pattern)
		if err != nil {
			return nil, &ConfigError{RuleID: b.ID, Field: "pattern", Err: err}
		}
		near, err := compileNear(b.Near)
		if err != nil {
			return nil, &ConfigError{RuleID: b.ID, Field: "near", Err: err}
		}
		unless, err := compileNear(b.UnlessNear)
		if err != nil {
			return nil, &ConfigError{RuleID: b.ID, Field: "unless_near", Err: err}
		}
		eng.blockers = append(eng.blockers, compiledBlocker{cfg: b, re: re, near: near, unlessNear: unless})
	}

	return eng, nil
}

// CompileEngine parses and compiles a raw YAML rule file in one step.
func CompileEngine(data []byte) (*Engine, error) {
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	return NewEngine(cfg)
}

// LoadEngine reads the rule file at path (or RELEVANCE_CONFIG_PATH when path
// is empty), compiles it, and applies the RELEVANCE_THRESHOLD override.
func LoadEngine(path string) (*Engine, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("reading %s: %w", path, err)}
	}
	eng, err := CompileEngine(data)
	if err != nil {
		return nil, err
	}
	if t, ok := thresholdFromEnv(); ok {
		eng.cfg.Relevance.Threshold = t
	}
	return eng, nil
}

func compileNear(nc *NearConfig) (*nearMatcher, error) {
	if nc == nil {
		return nil, nil
	}
	re, err := regexp.Compile(nc.Pattern)
	if err != nil {
		return nil, err
	}
	return &nearMatcher{re: re, window: nc.Window}, nil
}

// Threshold returns the effective gating threshold.
func (e *Engine) Threshold() float64 { return e.cfg.Relevance.Threshold }

// matchTokenIndices collects the token index of every match of re in text.
// Matches whose start offset has no preceding token are dropped, which makes
// them non-qualifying for proximity purposes.
func matchTokenIndices(re *regexp.Regexp, text string, byteToTok []int) []int {
	var out []int
	for _, span := range re.FindAllStringIndex(text, -1) {
		if idx, ok := tokenIndexForStart(byteToTok, span[0]); ok {
			out = append(out, idx)
		}
	}
	return out
}

// FindBlockers returns the reason strings of every blocker that fires on
// text, honoring near and unless_near constraints.
func (e *Engine) FindBlockers(text string) []string {
	byteToTok := buildTokenIndex(text, Tokenize(text))

	var hits []string
	for _, b := range e.blockers {
		mainIdxs := matchTokenIndices(b.re, text, byteToTok)
		if len(mainIdxs) == 0 {
			continue
		}

		if b.near != nil {
			nearIdxs := matchTokenIndices(b.near.re, text, byteToTok)
			if !withinWindow(mainIdxs, nearIdxs, b.near.window) {
				continue
			}
		}

		if b.unlessNear != nil {
			unlessIdxs := matchTokenIndices(b.unlessNear.re, text, byteToTok)
			if withinWindow(mainIdxs, unlessIdxs, b.unlessNear.window) {
				// Exception applies, do not block.
				continue
			}
		}

		hits = append(hits, fmt.Sprintf("blocker:%s:%s", b.cfg.ID, b.cfg.Reason))
	}
	return hits
}

// collectAnchorStats runs anchor matching and returns the sorted deduplicated
// matched ids, per-category counts (one increment per anchor definition, not
// per occurrence), and whether any matched anchor carries the single-stock tag.
func (e *Engine) collectAnchorStats(text string) (matched []string, counts map[string]int, singleStock bool) {
	byteToTok := buildTokenIndex(text, Tokenize(text))
	counts = make(map[string]int)

	for _, a := range e.anchors {
		mainIdxs := matchTokenIndices(a.re, text, byteToTok)
		if len(mainIdxs) == 0 {
			continue
		}
		if a.near != nil {
			nearIdxs := matchTokenIndices(a.near.re, text, byteToTok)
			if !withinWindow(mainIdxs, nearIdxs, a.near.window) {
				continue
			}
		}

		matched = append(matched, a.cfg.ID)
		counts[a.cfg.Category]++
		if a.cfg.Tag == singleStockTag {
			singleStock = true
		}
	}

	sort.Strings(matched)
	matched = dedupSorted(matched)
	return matched, counts, singleStock
}

func dedupSorted(in []string) []string {
	out := in[:0]
	for i, s := range in {
		if i == 0 || s != in[i-1] {
			out = append(out, s)
		}
	}
	return out
}

// expandAlias resolves a combo slot name through the alias map; unknown names
// stand for themselves.
func (e *Engine) expandAlias(name string) []string {
	if targets, ok := e.cfg.Aliases[name]; ok {
		return targets
	}
	return []string{name}
}

// combosSatisfied checks the pass_any templates in declaration order and
// returns whether one can be filled from the category counts. Slot filling is
// first-fit: each need consumes one unit of the first expanded category with
// remaining count. The satisfying template appends a combo:<used> reason.
func (e *Engine) combosSatisfied(counts map[string]int, reasons *[]string) bool {
	if len(e.cfg.Combos.PassAny) == 0 {
		return true
	}

	for _, tpl := range e.cfg.Combos.PassAny {
		pool := make(map[string]int, len(counts))
		for k, v := range counts {
			pool[k] = v
		}

		used := make([]string, 0, len(tpl.Need))
		ok := true
		for _, need := range tpl.Need {
			filled := false
			for _, choice := range e.expandAlias(need) {
				if pool[choice] > 0 {
					pool[choice]--
					used = append(used, choice)
					filled = true
					break
				}
			}
			if !filled {
				ok = false
				break
			}
		}
		if ok {
			*reasons = append(*reasons, "combo:"+strings.Join(used, "+"))
			return true
		}
	}
	return false
}

// weightedScore maps category counts to [0,1]. Each category's contribution
// is capped at 3 occurrences so repetition of a single anchor cannot dominate.
func (e *Engine) weightedScore(counts map[string]int) float64 {
	num, denom := 0, 0
	for cat, w := range e.cfg.Weights {
		cnt := counts[cat]
		if cnt > 3 {
			cnt = 3
		}
		num += cnt * w
		denom += 3 * w
	}
	if denom <= 0 {
		return 0
	}
	return clamp01(float64(num) / float64(denom))
}

// Score evaluates text against the compiled rules.
func (e *Engine) Score(text string) Relevance {
	rel := Relevance{}
	threshold := e.cfg.Relevance.Threshold

	// 1) Hard blockers veto everything downstream.
	if blocked := e.FindBlockers(text); len(blocked) > 0 {
		rel.Reasons = blocked
		metrics.GateEvaluations.WithLabelValues("blocked").Inc()
		devLog("blocked", text, rel.Matched, rel.Reasons, 0, threshold)
		return rel
	}

	// 2) Anchors and category stats.
	matched, counts, singleStock := e.collectAnchorStats(text)

	// Single-stock guard: a ticker that also names an unrelated company only
	// counts when broader market context is present.
	if singleStock {
		broad := 0
		for cat := range e.broadContext {
			broad += counts[cat]
		}
		if broad == 0 {
			rel.Matched = matched
			rel.Reasons = append(rel.Reasons, "single_stock_only_without_broader_context")
			metrics.GateEvaluations.WithLabelValues("neutralized").Inc()
			devLog("neutralized_single_stock", text, rel.Matched, rel.Reasons, 0, threshold)
			return rel
		}
	}

	// 3) Combos and the weighted score, both always computed for diagnostics.
	var reasons []string
	combosOK := e.combosSatisfied(counts, &reasons)
	score := e.weightedScore(counts)
	passedThreshold := score >= threshold

	rel.Matched = matched
	if combosOK {
		reasons = append(reasons, "combos_ok")
	} else {
		reasons = append(reasons, "combos_fail")
	}
	if passedThreshold {
		reasons = append(reasons, fmt.Sprintf("threshold_ok:%.2f", threshold))
	} else {
		reasons = append(reasons, fmt.Sprintf("threshold_fail:%.2f", threshold))
	}
	rel.Reasons = append(rel.Reasons, reasons...)

	// 4) Threshold gate: neutralize the score but keep the diagnostics.
	if combosOK && passedThreshold {
		rel.Score = score
		metrics.GateEvaluations.WithLabelValues("passed").Inc()
		devLog("passed", text, rel.Matched, rel.Reasons, rel.Score, threshold)
	} else {
		metrics.GateEvaluations.WithLabelValues("neutralized").Inc()
		devLog("neutralized", text, rel.Matched, rel.Reasons, score, threshold)
	}
	metrics.GateScore.Observe(rel.Score)
	return rel
}

// AnonHash returns a short anonymized fingerprint of text for log lines that
// must never contain the raw input.
func AnonHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:6])
}

func devLog(event, text string, matched, reasons []string, score, threshold float64) {
	if !devLoggingEnabled() {
		return
	}
	logging.Debugf("relevance %s id=%s score=%.2f threshold=%.2f matched=%v reasons=%v",
		event, AnonHash(text), score, threshold, truncate(matched, 5), truncate(reasons, 5))
}

func truncate(v []string, max int) []string {
	if len(v) <= max {
		return v
	}
	return v[:max]
}

// devLoggingEnabled gates anonymized per-evaluation logs behind
// RELEVANCE_DEV_LOG=1 plus a development environment.
func devLoggingEnabled() bool {
	if os.Getenv("RELEVANCE_DEV_LOG") != "1" {
		return false
	}
	return isDevEnvironment()
}

// isDevEnvironment reports whether APP_ENV names a development environment.
func isDevEnvironment() bool {
	switch strings.ToLower(os.Getenv(EnvAppEnv)) {
	case "local", "development", "dev":
		return true
	}
	return false
}
