package apiserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/indexwatch/relevance-router/pkg/aihint"
	"github.com/indexwatch/relevance-router/pkg/decision"
	"github.com/indexwatch/relevance-router/pkg/disruption"
	"github.com/indexwatch/relevance-router/pkg/notify"
	"github.com/indexwatch/relevance-router/pkg/observability/metrics"
	"github.com/indexwatch/relevance-router/pkg/sentiment"
	"github.com/indexwatch/relevance-router/pkg/sourceweights"
)

// volumeWindowSecs bounds the lookback for the volume confidence factor.
const volumeWindowSecs = 600

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	Score       int `json:"score"`
	TokensCount int `json:"tokens_count"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := s.parseJSONRequest(r, &req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	score, tokens := s.analyzer.ScoreText(req.Text)
	s.rolling.Record(score, 0)

	s.writeJSONResponse(w, http.StatusOK, analyzeResponse{Score: score, TokensCount: tokens})
}

type batchScore struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Score  int    `json:"score"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var items []sentiment.BatchItem
	if err := s.parseJSONRequest(r, &items); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	out := make([]batchScore, 0, len(items))
	for _, it := range items {
		score, _ := s.analyzer.ScoreText(it.Text)
		s.rolling.Record(score, 0)
		out = append(out, batchScore{Source: it.Source, Text: it.Text, Score: score})
	}
	s.writeJSONResponse(w, http.StatusOK, out)
}

// DecideItem is one statement in a decision batch.
type DecideItem struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	TSUnix int64  `json:"ts_unix,omitempty"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	t0 := time.Now()

	var items []DecideItem
	if err := s.parseJSONRequest(r, &items); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	d := s.Decide(r.Context(), items)

	metrics.DecisionVerdicts.WithLabelValues(string(d.Decision)).Inc()
	metrics.DecisionLatency.Observe(time.Since(t0).Seconds())

	s.writeJSONResponse(w, http.StatusOK, d)
}

// Decide runs the full pipeline: sentiment scoring, disruption weighting,
// the pure decision engine, the relevance gate on the combined text, the
// volume factor, and optionally an AI hint plus outbound notifications.
// The ingest scheduler feeds batches through here as well.
func (s *Server) Decide(ctx context.Context, items []DecideItem) decision.Decision {
	now := s.now()

	scored := make([]decision.ScoredItem, 0, len(items))
	texts := make([]string, 0, len(items))
	topSource := ""
	for _, it := range items {
		score, _ := s.analyzer.ScoreText(it.Text)
		s.rolling.Record(score, 0)
		ts := it.TSUnix
		if ts == 0 {
			ts = now
		}

		s.weightsMu.RLock()
		res := disruption.EvaluateWithWeights(disruption.Input{
			Source: it.Source,
			Text:   it.Text,
			Score:  score,
			TSUnix: ts,
		}, s.weights)
		s.weightsMu.RUnlock()

		scored = append(scored, decision.ScoredItem{
			Item:   sentiment.BatchItem{Source: it.Source, Text: it.Text},
			Score:  score,
			Result: res,
		})
		texts = append(texts, it.Text)
		if topSource == "" || res.Triggered {
			topSource = it.Source
		}
	}

	d := decision.MakeDecision(scored)

	// The gate sees the batch as one statement; a batch that is not about
	// the index as a whole must not alert.
	combined := strings.Join(texts, " ")
	rel := s.relevance.Score(combined)
	d.ApplyRelevance(combined, rel)

	vf, recentTriggers, uniqSources := s.volumeFactor(now)
	oldConf := d.Confidence
	newConf := clampTo(oldConf*vf, 0, 0.99)
	d.Confidence = newConf
	d.Reasons = append(d.Reasons, decision.NewReason(fmt.Sprintf(
		"Volume context (last %ds): %d triggers from %d sources -> confidence x%.3f (%.3f→%.3f)",
		volumeWindowSecs, recentTriggers, uniqSources, vf, oldConf, newConf,
	)).WithKind(decision.KindThreshold).Weighted((vf-0.90)/(1.05-0.90)))

	if aihint.ShouldCall(topSource, rel) {
		if hint, err := s.hints.Analyze(ctx, combined); err == nil && hint != nil {
			d.Reasons = append(d.Reasons, decision.NewReason("AI hint: "+hint.ShortReason).WithKind(decision.KindOther))
		}
	}

	s.hist.Push(d)
	s.maybeNotify(ctx, d)
	return d
}

// volumeFactor scales confidence by recent alert volume. More BUY/SELL
// verdicts from more distinct sources inside the window nudge the factor
// from 0.90 up to 1.05.
func (s *Server) volumeFactor(now int64) (vf float64, recentTriggers, uniqSources int) {
	rows := s.hist.LastN(200)
	uniq := make(map[string]bool)
	for _, h := range rows {
		if now-h.TSUnix > volumeWindowSecs {
			continue
		}
		if h.Verdict != decision.VerdictBuy && h.Verdict != decision.VerdictSell {
			continue
		}
		recentTriggers++
		for i, src := range h.TopSources {
			if i == 5 {
				break
			}
			uniq[src] = true
		}
	}

	rt := min(recentTriggers, 5)
	us := min(len(uniq), 5)
	vf = clampTo(0.90+0.02*float64(rt)+0.01*float64(us), 0.90, 1.05)
	return vf, recentTriggers, len(uniq)
}

func (s *Server) maybeNotify(ctx context.Context, d decision.Decision) {
	if s.notifier == nil {
		return
	}
	if d.Decision != decision.VerdictBuy && d.Decision != decision.VerdictSell {
		return
	}
	if d.Confidence <= 0 {
		return
	}
	now := time.Now()
	if s.flutter != nil {
		if !s.flutter.ShouldAlert(d.Decision, now) {
			return
		}
		s.flutter.RecordAlert(d.Decision, now)
	}

	reasons := make([]string, 0, len(d.Reasons))
	for _, rs := range d.Reasons {
		reasons = append(reasons, rs.Message)
	}
	s.notifier.Notify(ctx, notify.Event{
		Decision:   d.Decision,
		Confidence: d.Confidence,
		Reasons:    reasons,
		TS:         now,
	})
}

type rollingInfo struct {
	WindowSecs int64   `json:"window_secs"`
	Average    float64 `json:"average"`
	Count      int     `json:"count"`
}

func (s *Server) handleDebugRolling(w http.ResponseWriter, _ *http.Request) {
	avg, n := s.rolling.AverageAndCount()
	s.writeJSONResponse(w, http.StatusOK, rollingInfo{
		WindowSecs: s.rolling.WindowSecs(),
		Average:    avg,
		Count:      n,
	})
}

type historyRow struct {
	TSUnix     int64    `json:"ts_unix"`
	Verdict    string   `json:"verdict"`
	Confidence float64  `json:"confidence"`
	Sources    []string `json:"sources"`
	Scores     []int    `json:"scores"`
}

func (s *Server) handleDebugHistory(w http.ResponseWriter, _ *http.Request) {
	rows := s.hist.LastN(10)
	out := make([]historyRow, 0, len(rows))
	for _, h := range rows {
		out = append(out, historyRow{
			TSUnix:     h.TSUnix,
			Verdict:    string(h.Verdict),
			Confidence: h.Confidence,
			Sources:    h.TopSources,
			Scores:     h.TopScores,
		})
	}
	s.writeJSONResponse(w, http.StatusOK, out)
}

func (s *Server) handleDebugLastDecision(w http.ResponseWriter, _ *http.Request) {
	rows := s.hist.LastN(1)
	if len(rows) == 0 {
		s.writeJSONResponse(w, http.StatusOK, nil)
		return
	}
	h := rows[len(rows)-1]
	s.writeJSONResponse(w, http.StatusOK, historyRow{
		TSUnix:     h.TSUnix,
		Verdict:    string(h.Verdict),
		Confidence: h.Confidence,
		Sources:    h.TopSources,
		Scores:     h.TopScores,
	})
}

func (s *Server) handleDebugSourceWeight(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	s.weightsMu.RLock()
	weight := s.weights.WeightFor(source)
	s.weightsMu.RUnlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "source='%s' -> weight=%.2f", source, weight)
}

func (s *Server) handleReloadSourceWeights(w http.ResponseWriter, _ *http.Request) {
	fresh := sourceweights.LoadFromFile(s.weightsPath)
	s.weightsMu.Lock()
	s.weights = fresh
	s.weightsMu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("reloaded"))
}

func clampTo(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
