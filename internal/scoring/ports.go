// internal/scoring/ports.go
package scoring

import (
	"context"
	"errors"
	"time"
)

// Engine-level failures. Workflow error codes live in internal/common/errors.
var (
	ErrInvalidProfile      = errors.New("invalid applicant profile")
	ErrHistoryUnavailable  = errors.New("historical sample unavailable")
	ErrNonFiniteScore      = errors.New("non-finite score")
	ErrScoringRunNotStored = errors.New("scoring run not stored")
)

// MaxHistoryRecords bounds every historical sample read.
const MaxHistoryRecords = 1000

// HistoricalRecord is a closed, outcome-labelled application.
type HistoricalRecord struct {
	ApplicationID   string       `json:"applicationId"`
	RequestedAmount float64      `json:"requestedAmount"`
	MonthlyIncome   float64      `json:"monthlyIncome"`
	IncomeSource    IncomeSource `json:"incomeSource"`
	LoanType        LoanType     `json:"loanType"`
	AssessmentScore int          `json:"assessmentScore"`
	RiskGrade       string       `json:"riskGrade"`
	Status          string       `json:"status"`
	Defaulted       bool         `json:"defaulted"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// HistorySource returns at most limit historical records.
type HistorySource interface {
	FetchHistory(ctx context.Context, limit int) ([]HistoricalRecord, error)
}

// HistorySourceFunc adapts a function to HistorySource.
type HistorySourceFunc func(ctx context.Context, limit int) ([]HistoricalRecord, error)

func (f HistorySourceFunc) FetchHistory(ctx context.Context, limit int) ([]HistoricalRecord, error) {
	return f(ctx, limit)
}

// ScoringRun is the append-only record of one scoring call.
type ScoringRun struct {
	ID            string            `json:"id"`
	ApplicationID string            `json:"applicationId"`
	Input         ApplicantProfile  `json:"input"`
	Result        CreditScoreResult `json:"result"`
	Outcome       Outcome           `json:"outcome"`
	CreatedAt     time.Time         `json:"createdAt"`
}

// RunSink persists scoring runs. Implementations only append.
type RunSink interface {
	SaveRun(ctx context.Context, run ScoringRun) error
}
