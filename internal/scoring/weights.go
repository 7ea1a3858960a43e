// internal/scoring/weights.go
package scoring

import (
	"fmt"
	"math"
)

// Category names one of the eight scoring dimensions.
type Category string

const (
	CategoryIncome        Category = "income"
	CategoryStability     Category = "stability"
	CategoryDebtToIncome  Category = "debt_to_income"
	CategoryCreditHistory Category = "credit_history"
	CategoryCollateral    Category = "collateral"
	CategoryGuarantors    Category = "guarantors"
	CategoryDemographics  Category = "demographics"
	CategoryLoanType      Category = "loan_type"
)

// Categories lists every category in scoring order.
var Categories = []Category{
	CategoryIncome,
	CategoryStability,
	CategoryDebtToIncome,
	CategoryCreditHistory,
	CategoryCollateral,
	CategoryGuarantors,
	CategoryDemographics,
	CategoryLoanType,
}

const weightTolerance = 0.001

// Weights is a value object. Copies are independent; pass by value.
type Weights struct {
	Income        float64 `json:"income" yaml:"income"`
	Stability     float64 `json:"stability" yaml:"stability"`
	DebtToIncome  float64 `json:"debtToIncome" yaml:"debtToIncome"`
	CreditHistory float64 `json:"creditHistory" yaml:"creditHistory"`
	Collateral    float64 `json:"collateral" yaml:"collateral"`
	Guarantors    float64 `json:"guarantors" yaml:"guarantors"`
	Demographics  float64 `json:"demographics" yaml:"demographics"`
	LoanType      float64 `json:"loanType" yaml:"loanType"`
}

// DefaultWeights returns a fresh copy of the baseline weights.
func DefaultWeights() Weights {
	return Weights{
		Income:        0.25,
		Stability:     0.20,
		DebtToIncome:  0.20,
		CreditHistory: 0.15,
		Collateral:    0.10,
		Guarantors:    0.05,
		Demographics:  0.03,
		LoanType:      0.02,
	}
}

func (w Weights) Get(c Category) float64 {
	switch c {
	case CategoryIncome:
		return w.Income
	case CategoryStability:
		return w.Stability
	case CategoryDebtToIncome:
		return w.DebtToIncome
	case CategoryCreditHistory:
		return w.CreditHistory
	case CategoryCollateral:
		return w.Collateral
	case CategoryGuarantors:
		return w.Guarantors
	case CategoryDemographics:
		return w.Demographics
	case CategoryLoanType:
		return w.LoanType
	}
	return 0
}

// With returns a copy with category c set to v.
func (w Weights) With(c Category, v float64) Weights {
	switch c {
	case CategoryIncome:
		w.Income = v
	case CategoryStability:
		w.Stability = v
	case CategoryDebtToIncome:
		w.DebtToIncome = v
	case CategoryCreditHistory:
		w.CreditHistory = v
	case CategoryCollateral:
		w.Collateral = v
	case CategoryGuarantors:
		w.Guarantors = v
	case CategoryDemographics:
		w.Demographics = v
	case CategoryLoanType:
		w.LoanType = v
	}
	return w
}

func (w Weights) Sum() float64 {
	var total float64
	for _, c := range Categories {
		total += w.Get(c)
	}
	return total
}

func (w Weights) Validate() error {
	for _, c := range Categories {
		v := w.Get(c)
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be a non-negative finite number, got %v", c, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("weights must sum to 1, got %.4f", sum)
	}
	return nil
}

// Normalize scales the weights so they sum to 1. A zero total yields the
// default weights.
func (w Weights) Normalize() Weights {
	sum := w.Sum()
	if sum <= 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return DefaultWeights()
	}
	out := w
	for _, c := range Categories {
		out = out.With(c, w.Get(c)/sum)
	}
	return out
}
