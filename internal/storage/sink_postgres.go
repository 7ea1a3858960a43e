// internal/storage/sink_postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"credit-scoring-workers/internal/scoring"
)

const insertRunQuery = `
	INSERT INTO credit_scoring_runs (
		id, application_id, input_snapshot, score, risk_rating, confidence,
		probability_of_default, positive_factors, negative_factors, neutral_factors,
		recommendations, outcome, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// PostgresRunSink appends scoring runs to credit_scoring_runs.
type PostgresRunSink struct {
	db *sql.DB
}

func NewPostgresRunSink(db *sql.DB) *PostgresRunSink {
	return &PostgresRunSink{db: db}
}

func (s *PostgresRunSink) SaveRun(ctx context.Context, run scoring.ScoringRun) error {
	snapshot, err := json.Marshal(run.Input)
	if err != nil {
		return fmt.Errorf("marshal input snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, insertRunQuery,
		run.ID,
		run.ApplicationID,
		snapshot,
		run.Result.Score,
		string(run.Result.RiskTier),
		run.Result.Confidence,
		run.Result.ProbabilityOfDefault,
		pq.Array(run.Result.PositiveFactors),
		pq.Array(run.Result.NegativeFactors),
		pq.Array(run.Result.NeutralFactors),
		pq.Array(run.Result.Recommendations),
		string(run.Outcome),
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert scoring run %s: %w", run.ID, err)
	}
	return nil
}
