// internal/scoring/calibration.go
package scoring

import "math"

// MinCalibrationRecords is the smallest sample any calibrator acts on.
const MinCalibrationRecords = 50

// Calibrator derives call-local weights from a historical sample. It must
// return a new value and never retain or modify its inputs.
type Calibrator interface {
	Name() string
	Calibrate(base Weights, sample []HistoricalRecord) Weights
}

// StaticCalibrator keeps the base weights whatever the sample size. History
// reaches the score only through the ML adjustment.
type StaticCalibrator struct{}

func (StaticCalibrator) Name() string { return "static" }

func (StaticCalibrator) Calibrate(base Weights, _ []HistoricalRecord) Weights {
	return base
}

// OutcomeCalibrator shifts weight toward income and debt-to-income when the
// sample shows those dimensions separate defaulters from repayers.
type OutcomeCalibrator struct {
	MinRecords   int
	GapThreshold float64
	Shift        float64
	MinGroupSize int
}

func NewOutcomeCalibrator() OutcomeCalibrator {
	return OutcomeCalibrator{
		MinRecords:   MinCalibrationRecords,
		GapThreshold: 0.10,
		Shift:        0.05,
		MinGroupSize: 10,
	}
}

func (OutcomeCalibrator) Name() string { return "outcome" }

func (c OutcomeCalibrator) Calibrate(base Weights, sample []HistoricalRecord) Weights {
	minRecords := c.MinRecords
	if minRecords < MinCalibrationRecords {
		minRecords = MinCalibrationRecords
	}
	if len(sample) < minRecords {
		return base
	}

	out := base
	changed := false

	lowIncome, adequateIncome := defaultRates(sample, func(r HistoricalRecord) (bool, bool) {
		return r.MonthlyIncome < IncomeBandLow, true
	}, c.MinGroupSize)
	if gap := lowIncome - adequateIncome; !math.IsNaN(gap) && gap > c.GapThreshold {
		out = out.With(CategoryIncome, out.Income+c.Shift)
		changed = true
	}

	highDebt, lowDebt := defaultRates(sample, func(r HistoricalRecord) (bool, bool) {
		if r.MonthlyIncome <= 0 {
			return false, false
		}
		ratio := r.RequestedAmount / (r.MonthlyIncome * 12)
		return ratio > 0.5, true
	}, c.MinGroupSize)
	if gap := highDebt - lowDebt; !math.IsNaN(gap) && gap > c.GapThreshold {
		out = out.With(CategoryDebtToIncome, out.DebtToIncome+c.Shift)
		changed = true
	}

	if !changed {
		return base
	}
	return out.Normalize()
}

// defaultRates splits the sample with classify and returns the default rate
// of the matching and non-matching groups. A group below minSize yields NaN.
func defaultRates(sample []HistoricalRecord, classify func(HistoricalRecord) (in bool, ok bool), minSize int) (float64, float64) {
	var inTotal, inDefaults, outTotal, outDefaults int
	for _, r := range sample {
		in, ok := classify(r)
		if !ok {
			continue
		}
		if in {
			inTotal++
			if r.Defaulted {
				inDefaults++
			}
		} else {
			outTotal++
			if r.Defaulted {
				outDefaults++
			}
		}
	}
	if inTotal < minSize || outTotal < minSize || inTotal == 0 || outTotal == 0 {
		return math.NaN(), math.NaN()
	}
	return float64(inDefaults) / float64(inTotal), float64(outDefaults) / float64(outTotal)
}

// CalibratorFor maps a configured strategy name to a calibrator. Unknown
// names fall back to the static strategy.
func CalibratorFor(name string) Calibrator {
	if name == "outcome" {
		return NewOutcomeCalibrator()
	}
	return StaticCalibrator{}
}

// similarCases returns the records within 20% of the applicant's income with
// the same loan type and income source.
func similarCases(p ApplicantProfile, sample []HistoricalRecord) []HistoricalRecord {
	lo, hi := p.MonthlyIncome*0.8, p.MonthlyIncome*1.2
	var out []HistoricalRecord
	for _, r := range sample {
		if r.MonthlyIncome < lo || r.MonthlyIncome > hi {
			continue
		}
		if r.LoanType != p.LoanType || r.IncomeSource != p.IncomeSource {
			continue
		}
		out = append(out, r)
	}
	return out
}

// mlAdjustment nudges the score toward the default rate of similar cases.
func mlAdjustment(p ApplicantProfile, sample []HistoricalRecord) (float64, int) {
	similar := similarCases(p, sample)
	if len(similar) == 0 {
		return 0, 0
	}

	var defaults int
	for _, r := range similar {
		if r.Defaulted {
			defaults++
		}
	}

	rate := float64(defaults) / float64(len(similar))
	switch {
	case rate > 0.3:
		return -50, len(similar)
	case rate > 0.2:
		return -30, len(similar)
	case rate < 0.05:
		return 30, len(similar)
	case rate < 0.1:
		return 15, len(similar)
	}
	return 0, len(similar)
}
