package bootstrap

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/common/database"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

func scoringConfig() *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{
			HistoryLimit:          1000,
			HistoryTimeout:        3000,
			HistoryCacheTTL:       600,
			MinCalibrationRecords: 50,
			CalibrationStrategy:   config.StrategyStatic,
			ContributionScale:     5,
			PersistResults:        true,
			RunsIndex:             "credit-scoring-runs",
		},
	}
}

func applicant() scoring.ApplicantProfile {
	return scoring.ApplicantProfile{
		IncomeSource:    scoring.IncomeEmployment,
		MonthlyIncome:   1_200_000,
		IncomeStability: 8,
		YearsEmployed:   4,
		RequestedAmount: 2_000_000,
		LoanType:        scoring.LoanPersonal,
	}
}

type esTransport struct {
	mu       sync.Mutex
	statuses []int
	paths    []string
}

func (e *esTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := http.StatusOK
	if len(e.statuses) > 0 {
		status = e.statuses[0]
		e.statuses = e.statuses[1:]
	}
	e.paths = append(e.paths, req.Method+" "+req.URL.Path)

	h := make(http.Header)
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(`{}`)),
	}, nil
}

var historyColumns = []string{
	"id", "requested_amount", "monthly_income", "income_source", "loan_type",
	"assessment_score", "risk_grade", "status", "created_at",
}

// ==========================
// Retry Tests
// ==========================

func TestRetryWithBackoff(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), RetryPolicy{Attempts: 3, InitialDelay: time.Millisecond}, createTestLogger(t), "op", func() error {
		calls++
		if calls < 3 {
			return errors.New("dial tcp: connection refused")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = RetryWithBackoff(context.Background(), RetryPolicy{Attempts: 2, InitialDelay: time.Millisecond}, createTestLogger(t), "op", func() error {
		calls++
		return errors.New("down")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op failed after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, RetryPolicy{Attempts: 5, InitialDelay: time.Hour}, createTestLogger(t), "op", func() error {
		return errors.New("down")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

// ==========================
// Wiring Tests
// ==========================

func TestCalibrator(t *testing.T) {
	sc := scoringConfig().Scoring
	assert.Equal(t, "static", Calibrator(sc).Name())

	sc.CalibrationStrategy = config.StrategyOutcome
	sc.MinCalibrationRecords = 200
	c, ok := Calibrator(sc).(scoring.OutcomeCalibrator)
	require.True(t, ok)
	assert.Equal(t, 200, c.MinRecords)
}

func TestNewEngine_NoClients(t *testing.T) {
	engine, err := NewEngine(context.Background(), scoringConfig(), &Clients{}, createTestLogger(t))
	require.NoError(t, err)

	res := engine.Score(context.Background(), applicant())
	assert.Equal(t, scoring.OutcomeFull, res.Outcome)
	assert.Equal(t, scoring.HistoryEmpty, res.HistoryStatus)
	assert.False(t, engine.SaveResult(context.Background(), "APP-1", applicant(), res))
}

func TestNewEngine_PostgresRedisAndElasticsearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := database.NewRedis(config.RedisConfig{Address: mr.Addr()})
	defer rdb.Close()

	transport := &esTransport{statuses: []int{http.StatusOK, http.StatusCreated}}
	es, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: "http://es.test:9200"}, transport)
	require.NoError(t, err)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS credit_scoring_runs`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS`).WillReturnResult(sqlmock.NewResult(0, 0))

	clients := &Clients{
		Postgres:      database.NewPostgresFromDB(db),
		Redis:         rdb,
		Elasticsearch: es,
	}
	engine, err := NewEngine(context.Background(), scoringConfig(), clients, createTestLogger(t),
		scoring.WithIDGenerator(func() string { return "0d6f3c1e-5a4b-4c2d-9e8f-7a6b5c4d3e2f" }))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM loan_applications`).
		WithArgs(1000).
		WillReturnRows(sqlmock.NewRows(historyColumns))

	res := engine.Score(context.Background(), applicant())
	assert.Equal(t, scoring.HistoryEmpty, res.HistoryStatus)
	assert.True(t, mr.Exists("credit:history:sample:1000"))

	mock.ExpectExec(`INSERT INTO credit_scoring_runs`).WillReturnResult(sqlmock.NewResult(0, 1))
	assert.True(t, engine.SaveResult(context.Background(), "APP-1", applicant(), res))

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, []string{
		"HEAD /credit-scoring-runs",
		"PUT /credit-scoring-runs/_doc/0d6f3c1e-5a4b-4c2d-9e8f-7a6b5c4d3e2f",
	}, transport.paths)
}

func TestNewEngine_SchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE`).WillReturnError(errors.New("permission denied"))

	_, err = NewEngine(context.Background(), scoringConfig(), &Clients{Postgres: database.NewPostgresFromDB(db)}, createTestLogger(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestNewEngine_PersistenceDisabledSkipsSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	cfg := scoringConfig()
	cfg.Scoring.PersistResults = false

	_, err = NewEngine(context.Background(), cfg, &Clients{Postgres: database.NewPostgresFromDB(db)}, createTestLogger(t))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClients_Checkers(t *testing.T) {
	assert.Empty(t, (&Clients{}).Checkers())

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	checkers := (&Clients{Postgres: database.NewPostgresFromDB(db)}).Checkers()
	require.Len(t, checkers, 1)
	assert.Equal(t, "postgres", checkers[0].Name())
}
