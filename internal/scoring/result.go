// internal/scoring/result.go
package scoring

import "time"

const (
	MinScore  = 300
	MaxScore  = 850
	BaseScore = 300
)

type RiskTier string

const (
	RiskLow      RiskTier = "low"
	RiskMedium   RiskTier = "medium"
	RiskHigh     RiskTier = "high"
	RiskVeryHigh RiskTier = "very_high"
)

// Outcome tells callers which pipeline produced a result.
type Outcome string

const (
	OutcomeFull     Outcome = "full"
	OutcomeDegraded Outcome = "degraded"
)

type HistoryStatus string

const (
	HistoryLoaded      HistoryStatus = "loaded"
	HistoryEmpty       HistoryStatus = "empty"
	HistoryUnavailable HistoryStatus = "unavailable"
)

// CategoryScore is the raw and weighted contribution of one scorer.
type CategoryScore struct {
	Raw      float64 `json:"raw"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
}

// Breakdown explains how a full-path score was assembled.
type Breakdown struct {
	Categories   map[Category]CategoryScore `json:"categories"`
	WeightedSum  float64                    `json:"weightedSum"`
	MLAdjustment float64                    `json:"mlAdjustment"`
	SimilarCases int                        `json:"similarCases"`
	SampleSize   int                        `json:"sampleSize"`
}

type CreditScoreResult struct {
	Score                int        `json:"score"`
	RiskTier             RiskTier   `json:"riskTier"`
	Confidence           float64    `json:"confidence"`
	ProbabilityOfDefault float64    `json:"probabilityOfDefault"`
	PositiveFactors      []string   `json:"positiveFactors"`
	NegativeFactors      []string   `json:"negativeFactors"`
	NeutralFactors       []string   `json:"neutralFactors"`
	Recommendations      []string   `json:"recommendations"`
	Breakdown            *Breakdown `json:"breakdown,omitempty"`
}

// Result is the tagged outcome of Engine.Score.
type Result struct {
	CreditScoreResult
	Outcome        Outcome       `json:"outcome"`
	DegradedReason string        `json:"degradedReason,omitempty"`
	HistoryStatus  HistoryStatus `json:"historyStatus"`
	Weights        Weights       `json:"weights"`
	ScoredAt       time.Time     `json:"scoredAt"`
}

func (r Result) Degraded() bool {
	return r.Outcome == OutcomeDegraded
}
