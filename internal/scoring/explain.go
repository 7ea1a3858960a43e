// internal/scoring/explain.go
package scoring

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	printer    = message.NewPrinter(language.English)
	titleCaser = cases.Title(language.English)
)

// Factors groups explanation strings by their effect on the score.
type Factors struct {
	Positive []string
	Negative []string
	Neutral  []string
}

func (f *Factors) positive(format string, args ...interface{}) {
	f.Positive = append(f.Positive, printer.Sprintf(format, args...))
}

func (f *Factors) negative(format string, args ...interface{}) {
	f.Negative = append(f.Negative, printer.Sprintf(format, args...))
}

func (f *Factors) neutral(format string, args ...interface{}) {
	f.Neutral = append(f.Neutral, printer.Sprintf(format, args...))
}

// Explain derives factors in a fixed category order: income level, income
// source fit, business documentation, debt ratio, repayment history,
// collateral and guarantors.
func Explain(p ApplicantProfile) Factors {
	f := Factors{
		Positive: []string{},
		Negative: []string{},
		Neutral:  []string{},
	}

	explainIncome(&f, p)
	explainSourceFit(&f, p)
	explainBusinessDocuments(&f, p)
	explainDebtRatio(&f, p)
	explainRepayment(&f, p)
	explainCollateral(&f, p)
	explainGuarantors(&f, p)

	return f
}

func explainIncome(f *Factors, p ApplicantProfile) {
	switch m := p.MonthlyIncome; {
	case m >= IncomeBandHigh:
		f.positive("High monthly income (TZS %.0f)", m)
	case m >= IncomeBandMedium:
		f.positive("Adequate monthly income (TZS %.0f)", m)
	case m >= IncomeBandLow:
		f.neutral("Moderate monthly income (TZS %.0f)", m)
	default:
		f.negative("Low monthly income (TZS %.0f)", m)
	}
}

func explainSourceFit(f *Factors, p ApplicantProfile) {
	switch {
	case p.LoanType == LoanBusiness && !p.BusinessLoanForIndividual:
		f.positive("Registered business applying for business financing")
	case p.LoanType == LoanBusiness:
		switch p.IncomeSource {
		case IncomeBusiness, IncomeSelfEmployed:
			f.positive("Business income matches the business loan purpose")
		case IncomeEmployment:
			f.neutral("Employment income backing a business loan")
		default:
			f.negative("Income source does not support a business loan")
		}
	case p.LoanType == LoanPersonal && p.IncomeSource == IncomeBusiness:
		f.negative("Business income on a personal loan application")
	case p.IncomeSource == IncomeEmployment:
		f.positive("Employment income supports a %s loan", p.LoanType)
	default:
		f.neutral("%s income for a %s loan", humanize(string(p.IncomeSource)), p.LoanType)
	}
}

func explainBusinessDocuments(f *Factors, p ApplicantProfile) {
	b := p.Business
	if b == nil {
		if p.LoanType == LoanBusiness {
			f.negative("No business profile supplied for a business loan")
		}
		return
	}

	var docs int
	if b.IsRegistered() {
		docs++
	}
	if b.HasBankStatements {
		docs++
	}
	if b.HasTaxReturns {
		docs++
	}

	switch docs {
	case 3:
		f.positive("Complete business documentation")
	case 0:
		f.negative("No business documentation provided")
	default:
		f.neutral("Partial business documentation (%d of 3 documents)", docs)
	}
}

func explainDebtRatio(f *Factors, p ApplicantProfile) {
	r := p.DebtRatio()
	switch {
	case math.IsInf(r, 1):
		f.negative("No income to service the requested debt")
	case r < 0.3:
		f.positive("Low debt-to-income ratio (%.0f%%)", r*100)
	case r < 0.5:
		f.neutral("Moderate debt-to-income ratio (%.0f%%)", r*100)
	default:
		f.negative("High debt-to-income ratio (%.0f%%)", r*100)
	}
}

func explainRepayment(f *Factors, p ApplicantProfile) {
	switch p.PreviousRepaymentHistory {
	case RepaymentExcellent, RepaymentGood:
		f.positive("%s repayment history on previous loans", titleCaser.String(string(p.PreviousRepaymentHistory)))
	case RepaymentFair:
		f.neutral("Fair repayment history on previous loans")
	case RepaymentPoor:
		f.negative("Poor repayment history on previous loans")
	case RepaymentDefault:
		f.negative("Previous loan default on record")
	default:
		f.neutral("No previous loan history")
	}
}

func explainCollateral(f *Factors, p ApplicantProfile) {
	if !p.HasCollateral {
		f.negative("No collateral offered")
		return
	}
	coverage := 0.0
	if p.RequestedAmount > 0 {
		coverage = p.CollateralValue / p.RequestedAmount
	}
	if coverage >= 1 {
		f.positive("Collateral covers %.0f%% of the requested amount", coverage*100)
		return
	}
	f.neutral("Collateral covers %.0f%% of the requested amount", coverage*100)
}

func explainGuarantors(f *Factors, p ApplicantProfile) {
	switch {
	case !p.HasGuarantors:
		f.negative("No guarantors provided")
	case p.GuarantorCount >= 2:
		f.positive("%d guarantors provided", p.GuarantorCount)
	case p.GuarantorCount == 1:
		f.neutral("One guarantor provided")
	default:
		f.neutral("Guarantors declared without a count")
	}
}

func humanize(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// Recommend suggests what the applicant could change to improve the score.
func Recommend(p ApplicantProfile, score int) []string {
	recs := []string{}
	suggestedCollateral := false

	if score < 500 {
		recs = append(recs,
			"Consider reducing the requested loan amount",
			"Provide collateral to secure the loan",
			"Add guarantors to strengthen the application",
		)
		suggestedCollateral = true
	}

	if p.MonthlyIncome < IncomeBandLow {
		recs = append(recs, "Verify income from additional sources")
	}

	if !p.HasCollateral && !suggestedCollateral {
		recs = append(recs, "Offering collateral would improve the loan terms")
	}

	if p.PreviousRepaymentHistory == RepaymentPoor || p.PreviousRepaymentHistory == RepaymentDefault {
		recs = append(recs, "Request an explanation for the previous repayment issues")
	}

	return recs
}
