// Package decision defines the verdict model and the pure engine that maps
// scored, disruption-evaluated statements to a BUY/HOLD/SELL decision with
// explainability.
package decision

// Verdict is the final call. Serialized uppercase per the API contract.
type Verdict string

const (
	VerdictBuy  Verdict = "BUY"
	VerdictHold Verdict = "HOLD"
	VerdictSell Verdict = "SELL"
)

// ReasonKind is a coarse category that keeps UI and tests consistent.
type ReasonKind string

const (
	KindSourceStrength ReasonKind = "source_strength"
	KindRecency        ReasonKind = "recency"
	KindConsensus      ReasonKind = "consensus"
	KindVolume         ReasonKind = "volume"
	KindRollingTrend   ReasonKind = "rolling_trend"
	KindThreshold      ReasonKind = "threshold"
	KindOther          ReasonKind = "other"
)

// Reason is one human-readable explanation line.
type Reason struct {
	Message string     `json:"message"`
	Weight  *float64   `json:"weight,omitempty"`
	Kind    ReasonKind `json:"kind,omitempty"`
}

// NewReason builds a bare reason.
func NewReason(message string) Reason { return Reason{Message: message} }

// Weighted attaches a clamped weight.
func (r Reason) Weighted(w float64) Reason {
	c := clamp01(w)
	r.Weight = &c
	return r
}

// WithKind attaches a category.
func (r Reason) WithKind(k ReasonKind) Reason {
	r.Kind = k
	return r
}

// Contributor is one piece of evidence: who said what, with what score, when.
type Contributor struct {
	Source string `json:"source"`
	Text   string `json:"text"`
	Score  int    `json:"score"`
	// TS is the statement timestamp, ISO 8601.
	TS string `json:"ts"`

	WSource   *float64 `json:"w_source,omitempty"`
	WStrength *float64 `json:"w_strength,omitempty"`
	WRecency  *float64 `json:"w_recency,omitempty"`
}

// NewContributor builds a contributor without component weights.
func NewContributor(source, text string, score int, ts string) Contributor {
	return Contributor{Source: source, Text: text, Score: score, TS: ts}
}

// WithWeights attaches the clamped disruption component weights.
func (c Contributor) WithWeights(wSource, wStrength, wRecency float64) Contributor {
	s, st, rc := clamp01(wSource), clamp01(wStrength), clamp01(wRecency)
	c.WSource, c.WStrength, c.WRecency = &s, &st, &rc
	return c
}

// Decision is the API response shape.
type Decision struct {
	Decision        Verdict       `json:"decision"`
	Confidence      float64       `json:"confidence"`
	Reasons         []Reason      `json:"reasons,omitempty"`
	TopContributors []Contributor `json:"top_contributors,omitempty"`
}

// New builds a skeletal decision with a clamped confidence.
func New(v Verdict, confidence float64) Decision {
	return Decision{Decision: v, Confidence: clamp01(confidence)}
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
