package decision

import (
	"fmt"

	"github.com/indexwatch/relevance-router/pkg/observability/logging"
	"github.com/indexwatch/relevance-router/pkg/relevance"
)

// ApplyRelevanceGate folds a relevance evaluation of the input text into the
// decision.
//
// Contract: a neutralized relevance score (<= 0) zeroes the confidence and
// appends a threshold-kind reason; the original verdict is kept for
// transparency. A positive score appends a passing reason. The gate's raw
// reasons are surfaced with a "rel: " prefix for introspection.
func (d *Decision) ApplyRelevanceGate(inputText string, h *relevance.Handle) {
	d.ApplyRelevance(inputText, h.Score(inputText))
}

// ApplyRelevance is the same gate for callers that already hold the
// evaluation, so the engine is not consulted twice for one input.
func (d *Decision) ApplyRelevance(inputText string, rel relevance.Relevance) {
	passed := rel.Score > 0

	if passed {
		d.Reasons = append(d.Reasons,
			NewReason(fmt.Sprintf("relevance gate passed (rel %.2f)", rel.Score)).WithKind(KindThreshold))
	} else {
		d.Confidence = 0
		d.Reasons = append(d.Reasons,
			NewReason("neutralized by relevance gate (rel <= 0.00)").WithKind(KindThreshold))
	}

	firstReason := ""
	if len(rel.Reasons) > 0 {
		firstReason = rel.Reasons[0]
	}
	hash := relevance.AnonHash(inputText)
	if passed {
		logging.Debugf("relevance gate passed rel=%.2f matched=%v reason0=%s hash=%s",
			rel.Score, capStrings(rel.Matched, 8), firstReason, hash)
	} else {
		logging.Infof("relevance gate neutralized rel=%.2f matched=%v reason0=%s hash=%s",
			rel.Score, capStrings(rel.Matched, 8), firstReason, hash)
	}

	for _, r := range rel.Reasons {
		d.Reasons = append(d.Reasons, NewReason("rel: "+r))
	}
}

func capStrings(v []string, n int) []string {
	if len(v) <= n {
		return v
	}
	return v[:n]
}
