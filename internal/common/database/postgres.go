// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"credit-scoring-workers/internal/common/config"
	apperrors "credit-scoring-workers/internal/common/errors"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const postgresConnMaxLifetime = 5 * time.Minute

// PostgresClient holds the pool shared by the history source and the run sink.
type PostgresClient struct {
	db *sql.DB
}

// NewPostgres opens a pool sized from config. Nothing is dialled until Ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, apperrors.NewDatabaseConnectionFailedError(err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(postgresConnMaxLifetime)
	db.SetConnMaxIdleTime(postgresConnMaxLifetime)

	return NewPostgresFromDB(db), nil
}

func NewPostgresFromDB(db *sql.DB) *PostgresClient {
	return &PostgresClient{db: db}
}

func (c *PostgresClient) Name() string { return "postgres" }

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// StatsCollector exposes pool usage as go_sql_* series labelled
// db_name="credit_scoring".
func (c *PostgresClient) StatsCollector() prometheus.Collector {
	return collectors.NewDBStatsCollector(c.db, "credit_scoring")
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
