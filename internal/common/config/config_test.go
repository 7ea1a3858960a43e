package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: microfinance
    user: scoring
`

// ==========================
// Loading Tests
// ==========================

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "credit-scoring-workers", cfg.App.Name)
	assert.Equal(t, 10, cfg.Camunda.MaxJobsActive)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8080, cfg.Metrics.Port)

	assert.Equal(t, 1000, cfg.Scoring.HistoryLimit)
	assert.Equal(t, 3*time.Second, cfg.Scoring.HistoryTimeoutDuration())
	assert.Equal(t, 10*time.Minute, cfg.Scoring.HistoryCacheTTLDuration())
	assert.Equal(t, 50, cfg.Scoring.MinCalibrationRecords)
	assert.Equal(t, StrategyStatic, cfg.Scoring.CalibrationStrategy)
	assert.Equal(t, 5.0, cfg.Scoring.ContributionScale)
	assert.Equal(t, "credit-scoring-runs", cfg.Scoring.RunsIndex)

	assert.False(t, cfg.Database.Elasticsearch.Enabled())
	assert.False(t, cfg.Database.Redis.Enabled())
}

func TestLoadFromFile_ExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_SCORING_DB_HOST", "pg.internal")
	t.Setenv("TEST_SCORING_ES", "http://es.internal:9200")

	cfg, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: zeebe:26500
database:
  postgres:
    host: ${TEST_SCORING_DB_HOST}
    database: microfinance
    user: scoring
  elasticsearch:
    addresses: ["${TEST_SCORING_ES}"]
`))
	require.NoError(t, err)

	assert.Equal(t, "pg.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "http://es.internal:9200", cfg.Database.Elasticsearch.GetURL())
	assert.True(t, cfg.Database.Elasticsearch.Enabled())
}

func TestLoadFromFile_UnsetOptionalServicesStayDisabled(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "zeebe:26500")
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_NAME", "microfinance")
	t.Setenv("DB_USER", "scoring")
	for _, key := range []string{"REDIS_ADDRESS", "REDIS_PASSWORD", "ELASTICSEARCH_URL", "ELASTICSEARCH_USERNAME", "ELASTICSEARCH_PASSWORD"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := LoadFromFile(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.Equal(t, "pg.internal", cfg.Database.Postgres.Host)
	assert.Empty(t, cfg.Database.Redis.Address)
	assert.Empty(t, cfg.Database.Elasticsearch.URL)
	assert.False(t, cfg.Database.Redis.Enabled())
	assert.False(t, cfg.Database.Elasticsearch.Enabled())
}

func TestLoadFromFile_UnsetBrokerFailsValidation(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "")
	require.NoError(t, os.Unsetenv("ZEEBE_ADDRESS"))

	_, err := LoadFromFile(writeConfig(t, `
camunda:
  broker_address: ${ZEEBE_ADDRESS}
database:
  postgres:
    host: localhost
    database: microfinance
    user: scoring
`))
	require.Error(t, err)
}

func TestLoadFromFile_Missing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFile_WorkerDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig+`
workers:
  calculate-credit-score:
    enabled: false
`))
	require.NoError(t, err)

	w := GetWorkerConfig(cfg, "calculate-credit-score")
	assert.False(t, w.Enabled)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
	assert.False(t, IsWorkerEnabled(cfg, "calculate-credit-score"))
	assert.True(t, IsWorkerEnabled(cfg, "unknown-worker"))
}

// ==========================
// Validation Tests
// ==========================

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{"history limit too large", "scoring:\n  history_limit: 5000\n", "history_limit"},
		{"calibration threshold too low", "scoring:\n  min_calibration_records: 10\n", "min_calibration_records"},
		{"negative scale", "scoring:\n  contribution_scale: -1\n", "contribution_scale"},
		{"unknown strategy", "scoring:\n  calibration_strategy: neural\n", "calibration_strategy"},
		{"outcome strategy", "scoring:\n  calibration_strategy: outcome\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, minimalConfig+tt.extra))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateConfig_RequiresBroker(t *testing.T) {
	t.Setenv("ZEEBE_ADDRESS", "")
	_, err := LoadFromFile(writeConfig(t, `
database:
  postgres:
    host: localhost
    database: microfinance
    user: scoring
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker_address")
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "mf", SSLMode: "require"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=mf sslmode=require", p.GetDSN())
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
