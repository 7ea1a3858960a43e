package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring"
)

// ==========================
// Test Helper Functions
// ==========================

var createdAt = time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC)

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewTestLogger(t)
}

func sampleRecords() []scoring.HistoricalRecord {
	return []scoring.HistoricalRecord{
		{
			ApplicationID:   "APP-1",
			RequestedAmount: 2_000_000,
			MonthlyIncome:   900_000,
			IncomeSource:    scoring.IncomeEmployment,
			LoanType:        scoring.LoanPersonal,
			AssessmentScore: 702,
			RiskGrade:       "medium",
			Status:          "repaid",
			CreatedAt:       createdAt,
		},
		{
			ApplicationID:   "APP-2",
			RequestedAmount: 5_000_000,
			MonthlyIncome:   300_000,
			IncomeSource:    scoring.IncomeBusiness,
			LoanType:        scoring.LoanBusiness,
			AssessmentScore: 488,
			RiskGrade:       "very_high",
			Status:          "defaulted",
			Defaulted:       true,
			CreatedAt:       createdAt.Add(-time.Hour),
		},
	}
}

func sampleRun() scoring.ScoringRun {
	return scoring.ScoringRun{
		ID:            "0d6f3c1e-6a1b-4c55-9a0e-2f4b8f1f7a10",
		ApplicationID: "APP-2025-0042",
		Input: scoring.ApplicantProfile{
			IncomeSource:    scoring.IncomeEmployment,
			MonthlyIncome:   1_200_000,
			IncomeStability: 8,
			RequestedAmount: 2_000_000,
			LoanType:        scoring.LoanPersonal,
			ClientType:      scoring.ClientIndividual,
		},
		Result: scoring.CreditScoreResult{
			Score:                697,
			RiskTier:             scoring.RiskMedium,
			Confidence:           0.5,
			ProbabilityOfDefault: 0.25,
			PositiveFactors:      []string{"Employment income supports a personal loan"},
			NegativeFactors:      []string{"No collateral offered"},
			NeutralFactors:       []string{"No previous loan history"},
			Recommendations:      []string{"Offering collateral would improve the loan terms"},
		},
		Outcome:   scoring.OutcomeFull,
		CreatedAt: createdAt,
	}
}

type countingSource struct {
	records []scoring.HistoricalRecord
	err     error
	calls   int
	mu      sync.Mutex
}

func (c *countingSource) FetchHistory(ctx context.Context, limit int) ([]scoring.HistoricalRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.records, c.err
}

type recordingSink struct {
	runs []scoring.ScoringRun
	err  error
	mu   sync.Mutex
}

func (r *recordingSink) SaveRun(ctx context.Context, run scoring.ScoringRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.runs = append(r.runs, run)
	return nil
}
