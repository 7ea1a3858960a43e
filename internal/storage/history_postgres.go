// internal/storage/history_postgres.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"credit-scoring-workers/internal/scoring"
)

const historyQuery = `
	SELECT id, requested_amount, monthly_income, income_source, loan_type,
	       assessment_score, risk_grade, status, created_at
	FROM loan_applications
	WHERE assessment_score IS NOT NULL
	  AND status IN ('repaid', 'closed', 'defaulted', 'written_off')
	ORDER BY created_at DESC
	LIMIT $1`

// PostgresHistorySource reads closed, outcome-labelled applications.
type PostgresHistorySource struct {
	db *sql.DB
}

func NewPostgresHistorySource(db *sql.DB) *PostgresHistorySource {
	return &PostgresHistorySource{db: db}
}

func (s *PostgresHistorySource) FetchHistory(ctx context.Context, limit int) ([]scoring.HistoricalRecord, error) {
	if limit <= 0 || limit > scoring.MaxHistoryRecords {
		limit = scoring.MaxHistoryRecords
	}

	rows, err := s.db.QueryContext(ctx, historyQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: query loan history: %v", scoring.ErrHistoryUnavailable, err)
	}
	defer rows.Close()

	records := make([]scoring.HistoricalRecord, 0, limit)
	for rows.Next() {
		var (
			r             scoring.HistoricalRecord
			monthlyIncome sql.NullFloat64
			incomeSource  sql.NullString
			loanType      string
			riskGrade     sql.NullString
		)
		if err := rows.Scan(
			&r.ApplicationID, &r.RequestedAmount, &monthlyIncome, &incomeSource, &loanType,
			&r.AssessmentScore, &riskGrade, &r.Status, &r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan loan history: %v", scoring.ErrHistoryUnavailable, err)
		}
		r.MonthlyIncome = monthlyIncome.Float64
		r.IncomeSource = scoring.IncomeSource(incomeSource.String)
		r.LoanType = scoring.LoanType(loanType)
		r.RiskGrade = riskGrade.String
		r.Defaulted = isDefaultStatus(r.Status)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate loan history: %v", scoring.ErrHistoryUnavailable, err)
	}

	return records, nil
}

func isDefaultStatus(status string) bool {
	return status == "defaulted" || status == "written_off"
}
