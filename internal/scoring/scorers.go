// internal/scoring/scorers.go
package scoring

import (
	"math"
	"strings"
)

// Income bands in TZS per month.
const (
	IncomeBandTop    = 2_000_000
	IncomeBandHigh   = 1_000_000
	IncomeBandMedium = 500_000
	IncomeBandLow    = 200_000
)

const thinBusinessApplicantPenalty = 0.7

var recognizedBusinessTypes = map[string]struct{}{
	"retail":        {},
	"wholesale":     {},
	"manufacturing": {},
	"agriculture":   {},
	"services":      {},
	"transport":     {},
	"hospitality":   {},
	"construction":  {},
	"technology":    {},
}

var businessLoanSourceMultiplier = map[IncomeSource]float64{
	IncomeBusiness:     1.0,
	IncomeSelfEmployed: 0.9,
	IncomeEmployment:   0.6,
	IncomeOther:        0.4,
}

var personalLoanSourceMultiplier = map[IncomeSource]float64{
	IncomeEmployment:   1.0,
	IncomeSelfEmployed: 0.8,
	IncomeBusiness:     0.7,
	IncomeOther:        0.5,
}

var maritalBonus = map[MaritalStatus]float64{
	MaritalMarried:  20,
	MaritalWidowed:  15,
	MaritalDivorced: 10,
	MaritalSingle:   5,
}

var repaymentPoints = map[RepaymentHistory]float64{
	RepaymentExcellent: 80,
	RepaymentGood:      60,
	RepaymentFair:      40,
	RepaymentPoor:      10,
	RepaymentDefault:   -50,
}

var collateralTypeBonus = map[CollateralType]float64{
	CollateralProperty:  20,
	CollateralSavings:   25,
	CollateralVehicle:   15,
	CollateralEquipment: 10,
	CollateralOther:     5,
}

var educationBonus = map[EducationLevel]float64{
	EducationPhD:       25,
	EducationMasters:   20,
	EducationDegree:    15,
	EducationDiploma:   10,
	EducationSecondary: 5,
	EducationPrimary:   0,
}

var loanTypeBase = map[LoanType]float64{
	LoanHome:         30,
	LoanEducation:    25,
	LoanBusiness:     20,
	LoanAgricultural: 15,
	LoanVehicle:      10,
	LoanPersonal:     5,
	LoanEmergency:    0,
}

var businessLoanSourceBonus = map[IncomeSource]float64{
	IncomeBusiness:     30,
	IncomeSelfEmployed: 20,
	IncomeEmployment:   10,
	IncomeOther:        -10,
}

func incomeBand(monthly float64) float64 {
	switch {
	case monthly >= IncomeBandTop:
		return 200
	case monthly >= IncomeBandHigh:
		return 150
	case monthly >= IncomeBandMedium:
		return 100
	case monthly >= IncomeBandLow:
		return 50
	default:
		return 0
	}
}

func clampStability(v int) float64 {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return float64(v)
}

func tenureBonus(p ApplicantProfile) float64 {
	if p.isBusinessIncome() {
		switch y := p.YearsInBusiness; {
		case y > 5:
			return 60
		case y > 3:
			return 40
		case y > 1:
			return 20
		}
		return 0
	}
	switch y := p.YearsEmployed; {
	case y > 5:
		return 40
	case y > 3:
		return 25
	case y > 1:
		return 10
	}
	return 0
}

func businessDocumentationBonus(b *BusinessProfile) float64 {
	if b == nil {
		return 0
	}
	var bonus float64
	if b.NetProfit > 0 {
		bonus += 20
	}
	if b.EmployeeCount > 0 {
		bonus += 15
	}
	if b.HasBankStatements {
		bonus += 10
	}
	if b.HasTaxReturns {
		bonus += 15
	}
	if b.IsRegistered() {
		bonus += 25
	}
	if isRecognizedBusinessType(b.Type) {
		bonus += 15
	}
	return bonus
}

func isRecognizedBusinessType(t string) bool {
	_, ok := recognizedBusinessTypes[strings.ToLower(strings.TrimSpace(t))]
	return ok
}

// IncomeScore weighs absolute income by source fit, stability, tenure and
// business documentation. The result is unbounded above.
func IncomeScore(p ApplicantProfile) float64 {
	multipliers := personalLoanSourceMultiplier
	if p.BusinessLoanForIndividual {
		multipliers = businessLoanSourceMultiplier
	}

	score := incomeBand(p.MonthlyIncome) * multipliers[p.IncomeSource] * clampStability(p.IncomeStability) / 10
	score += tenureBonus(p)
	score += businessDocumentationBonus(p.Business)

	if p.BusinessLoanForIndividual && p.MonthlyIncome < IncomeBandMedium {
		score *= thinBusinessApplicantPenalty
	}
	return math.Round(score)
}

func StabilityScore(p ApplicantProfile) float64 {
	var score float64

	switch y := p.YearsAtResidence; {
	case y > 5:
		score += 50
	case y > 3:
		score += 30
	case y > 1:
		score += 15
	}

	switch y := p.YearsWithPhoneNumber; {
	case y > 3:
		score += 30
	case y > 1:
		score += 15
	}

	score += maritalBonus[p.MaritalStatus]

	switch d := p.Dependents; {
	case d == 0:
		score += 10
	case d <= 3:
		score += 15
	default:
		score += 5
	}
	return score
}

// DebtToIncomeScore is 100 for a ratio below 0.2 stepping down to 0 at 0.6.
func DebtToIncomeScore(p ApplicantProfile) float64 {
	switch r := p.DebtRatio(); {
	case r < 0.2:
		return 100
	case r < 0.3:
		return 80
	case r < 0.4:
		return 60
	case r < 0.5:
		return 40
	case r < 0.6:
		return 20
	default:
		return 0
	}
}

// creditHistoryRaw is the credit history total before the zero floor.
func creditHistoryRaw(p ApplicantProfile) float64 {
	var score float64

	switch {
	case !p.HasPriorLoans():
		score += 20
	case p.RepaymentKnown():
		score += repaymentPoints[p.PreviousRepaymentHistory]
	}

	if p.CreditBureauScore != nil {
		switch b := *p.CreditBureauScore; {
		case b >= 450:
			score += 50
		case b >= 400:
			score += 30
		case b >= 350:
			score += 10
		case b >= 300:
			score -= 10
		default:
			score -= 30
		}
	}

	if p.CreditBureauConsent {
		score += 20
	} else {
		score -= 10
	}
	return score
}

// CreditHistoryScore floors the category total at zero, so a default with
// no offsetting positives scores the same as no signal at all.
func CreditHistoryScore(p ApplicantProfile) float64 {
	return math.Max(0, creditHistoryRaw(p))
}

func CollateralScore(p ApplicantProfile) float64 {
	if !p.HasCollateral {
		return 0
	}

	score := 30.0
	if p.RequestedAmount > 0 {
		switch c := p.CollateralValue / p.RequestedAmount; {
		case c >= 2:
			score += 50
		case c >= 1.5:
			score += 40
		case c >= 1:
			score += 30
		case c >= 0.5:
			score += 20
		}
	}
	return score + collateralTypeBonus[p.CollateralType]
}

// GuarantorScore gives 20 for declared guarantors plus 30 for two or more
// or 15 for exactly one. A declared but uncounted guarantor keeps the base.
func GuarantorScore(p ApplicantProfile) float64 {
	if !p.HasGuarantors {
		return 0
	}
	switch {
	case p.GuarantorCount >= 2:
		return 50
	case p.GuarantorCount == 1:
		return 35
	default:
		return 20
	}
}

func DemographicsScore(p ApplicantProfile) float64 {
	var score float64
	switch a := p.Age; {
	case a >= 25 && a <= 55:
		score += 30
	case a >= 22 && a <= 60:
		score += 20
	case a >= 18 && a <= 65:
		score += 10
	}
	return score + educationBonus[p.EducationLevel]
}

// LoanTypeScore rewards lower-risk loan purposes and business loans backed
// by matching income and paperwork.
func LoanTypeScore(p ApplicantProfile) float64 {
	score := loanTypeBase[p.LoanType]

	if p.LoanType == LoanBusiness {
		if p.BusinessLoanForIndividual {
			score += businessLoanSourceBonus[p.IncomeSource]
			if b := p.Business; b != nil {
				if b.IsRegistered() {
					score += 15
				}
				if b.NetProfit > 0 {
					score += 20
				}
				if b.HasBankStatements && b.HasTaxReturns {
					score += 15
				}
			}
		} else {
			score += 25
		}
	}

	if p.LoanType == LoanPersonal && p.IncomeSource == IncomeBusiness {
		score -= 5
	}
	return score
}

// scorers runs in Categories order.
var scorers = map[Category]func(ApplicantProfile) float64{
	CategoryIncome:        IncomeScore,
	CategoryStability:     StabilityScore,
	CategoryDebtToIncome:  DebtToIncomeScore,
	CategoryCreditHistory: CreditHistoryScore,
	CategoryCollateral:    CollateralScore,
	CategoryGuarantors:    GuarantorScore,
	CategoryDemographics:  DemographicsScore,
	CategoryLoanType:      LoanTypeScore,
}
