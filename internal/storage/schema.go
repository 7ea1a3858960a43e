// internal/storage/schema.go
package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS credit_scoring_runs (
		id                     UUID PRIMARY KEY,
		application_id         TEXT NOT NULL,
		input_snapshot         JSONB NOT NULL,
		score                  INTEGER NOT NULL CHECK (score BETWEEN 300 AND 850),
		risk_rating            TEXT NOT NULL,
		confidence             DOUBLE PRECISION NOT NULL,
		probability_of_default DOUBLE PRECISION NOT NULL,
		positive_factors       TEXT[] NOT NULL DEFAULT '{}',
		negative_factors       TEXT[] NOT NULL DEFAULT '{}',
		neutral_factors        TEXT[] NOT NULL DEFAULT '{}',
		recommendations        TEXT[] NOT NULL DEFAULT '{}',
		outcome                TEXT NOT NULL,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_scoring_runs_application
		ON credit_scoring_runs (application_id, created_at DESC)`,
}

// EnsureSchema creates the scoring run table when missing. It is safe to
// run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure credit scoring schema: %w", err)
		}
	}
	return nil
}
