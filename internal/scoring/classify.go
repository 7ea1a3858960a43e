// internal/scoring/classify.go
package scoring

import "math"

const (
	minDefaultProbability = 0.01
	maxDefaultProbability = 0.9

	degradedConfidence         = 0.3
	degradedDefaultProbability = 0.2
)

// ClampScore bounds a computed score to the published range.
func ClampScore(v float64) int {
	if math.IsNaN(v) {
		return MinScore
	}
	return int(math.Round(math.Min(MaxScore, math.Max(MinScore, v))))
}

func ClassifyRisk(score int) RiskTier {
	switch {
	case score >= 750:
		return RiskLow
	case score >= 650:
		return RiskMedium
	case score >= 500:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// ProbabilityOfDefault is a heuristic estimate kept within [0.01, 0.9].
func ProbabilityOfDefault(p ApplicantProfile) float64 {
	pd := 0.10

	if p.MonthlyIncome < IncomeBandLow {
		pd += 0.20
	}

	switch p.PreviousRepaymentHistory {
	case RepaymentDefault:
		pd += 0.30
	case RepaymentPoor:
		pd += 0.15
	}

	if !p.HasCollateral {
		pd += 0.10
	}
	if !p.HasGuarantors {
		pd += 0.05
	}

	switch r := p.DebtRatio(); {
	case r > 0.6:
		pd += 0.20
	case r > 0.4:
		pd += 0.10
	}

	return math.Min(maxDefaultProbability, math.Max(minDefaultProbability, pd))
}

// Confidence reflects how much evidence backs the score.
func Confidence(p ApplicantProfile, sampleSize int) float64 {
	c := 0.5
	if p.CreditBureauScore != nil {
		c += 0.2
	}
	if p.RepaymentKnown() {
		c += 0.1
	}
	if p.HasCollateral {
		c += 0.1
	}
	if p.HasGuarantors {
		c += 0.1
	}
	switch {
	case sampleSize > 100:
		c += 0.1
	case sampleSize > 50:
		c += 0.05
	}
	return math.Min(1, c)
}
