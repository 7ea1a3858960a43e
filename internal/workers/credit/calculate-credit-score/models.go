// internal/workers/credit/calculate-credit-score/models.go
package calculatecreditscore

import "credit-scoring-workers/internal/scoring"

type Input struct {
	ApplicationID    string                   `json:"applicationId"`
	ApplicantProfile scoring.ApplicantProfile `json:"applicantProfile"`
}

type Output struct {
	CreditScore          int      `json:"creditScore"`
	RiskRating           string   `json:"riskRating"`
	Confidence           float64  `json:"confidence"`
	ProbabilityOfDefault float64  `json:"probabilityOfDefault"`
	PositiveFactors      []string `json:"positiveFactors"`
	NegativeFactors      []string `json:"negativeFactors"`
	NeutralFactors       []string `json:"neutralFactors"`
	Recommendations      []string `json:"recommendations"`
	ScoringOutcome       string   `json:"scoringOutcome"`
	DegradedReason       string   `json:"degradedReason"`
	HistoryStatus        string   `json:"historyStatus"`
	ScoredAt             string   `json:"scoredAt"`
	ResultPersisted      bool     `json:"resultPersisted"`
}
