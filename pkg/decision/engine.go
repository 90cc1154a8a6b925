package decision

import (
	"fmt"
	"sort"
	"time"

	"github.com/indexwatch/relevance-router/pkg/disruption"
	"github.com/indexwatch/relevance-router/pkg/sentiment"
)

// ScoredItem bundles one statement with its sentiment score and disruption
// evaluation.
type ScoredItem struct {
	Item   sentiment.BatchItem
	Score  int
	Result disruption.Result
}

// MakeDecision maps scored statements to a verdict.
//
// Policy: the dominant direction of triggered items yields BUY/SELL;
// conflicting directions or no triggers yield HOLD. Confidence blends trigger
// count, average component quality, and source independence. Pure function,
// suitable for offline evaluation.
func MakeDecision(scored []ScoredItem) Decision {
	var pos, neg []ScoredItem
	for _, s := range scored {
		if !s.Result.Triggered {
			continue
		}
		switch {
		case s.Score > 0:
			pos = append(pos, s)
		case s.Score < 0:
			neg = append(neg, s)
		}
	}

	var verdict Verdict
	var main []ScoredItem
	switch {
	case len(pos) > 0 && len(neg) == 0:
		verdict, main = VerdictBuy, pos
	case len(neg) > 0 && len(pos) == 0:
		verdict, main = VerdictSell, neg
	case len(pos) > 0 && len(neg) > 0:
		verdict = VerdictHold
		if len(pos) >= len(neg) {
			main = pos
		} else {
			main = neg
		}
	default:
		verdict = VerdictHold
	}

	confidence := 0.55
	if len(main) > 0 && verdict != VerdictHold {
		k := float64(len(main))
		if k > 2 {
			k = 2
		}

		acc := 0.0
		uniq := map[string]bool{}
		for _, s := range main {
			acc += (s.Result.WSource + s.Result.WStrength) * 0.5
			uniq[s.Item.Source] = true
		}
		avg := acc / float64(len(main))

		// Independence bonus: +0.05 per extra unique source, capped at +0.10.
		extra := float64(len(uniq) - 1)
		if extra < 0 {
			extra = 0
		}
		if extra > 2 {
			extra = 2
		}

		confidence = 0.60 + 0.15*k + 0.10*avg + 0.05*extra
		if confidence > 0.95 {
			confidence = 0.95
		}
	}

	var reasons []Reason
	if len(main) > 0 {
		for _, s := range capItems(main, 3) {
			msg := fmt.Sprintf(
				"Trigger met: source>=0.80, strength>=0.90, age<=1800s (actual: w_source %.2f, w_strength %.2f, age %ds) - %s",
				s.Result.WSource, s.Result.WStrength, s.Result.AgeSecs, s.Item.Source)
			reasons = append(reasons, NewReason(msg).
				WithKind(KindThreshold).
				Weighted((s.Result.WSource+s.Result.WStrength)/2))
		}
		for _, s := range capItems(main, 3) {
			msg := fmt.Sprintf("%s: %q (score %+d, w_source %.2f, w_strength %.2f, age %ds)",
				s.Item.Source, s.Item.Text, s.Score, s.Result.WSource, s.Result.WStrength, s.Result.AgeSecs)
			reasons = append(reasons, NewReason(msg).
				WithKind(KindThreshold).
				Weighted((s.Result.WSource+s.Result.WStrength)/2))
		}
	} else {
		reasons = append(reasons, NewReason("No disruptive statements within the last 30 minutes.").
			WithKind(KindThreshold).
			Weighted(0.4))
	}

	// Top contributors: triggered items first, then by absolute score.
	all := make([]ScoredItem, len(scored))
	copy(all, scored)
	sort.SliceStable(all, func(i, j int) bool {
		return contributorRank(all[i]) > contributorRank(all[j])
	})

	var contributors []Contributor
	for _, s := range capItems(all, 3) {
		contributors = append(contributors, NewContributor(s.Item.Source, s.Item.Text, s.Score, isoNow()).
			WithWeights(s.Result.WSource, s.Result.WStrength, linearRecency(s.Result.AgeSecs)))
	}

	return Decision{
		Decision:        verdict,
		Confidence:      confidence,
		Reasons:         reasons,
		TopContributors: contributors,
	}
}

func contributorRank(s ScoredItem) int {
	score := s.Score
	if score < 0 {
		score = -score
	}
	if s.Result.Triggered {
		score += 1000
	}
	return score
}

func capItems(items []ScoredItem, n int) []ScoredItem {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

// linearRecency decays from 1.0 at age 0 to 0.0 at 1800s.
func linearRecency(ageSecs int64) float64 {
	if ageSecs <= 0 {
		return 1.0
	}
	w := (1800.0 - float64(ageSecs)) / 1800.0
	if w < 0 {
		return 0
	}
	return w
}

func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
