// internal/workers/credit/calculate-credit-score/config.go
package calculatecreditscore

import (
	"time"

	"credit-scoring-workers/internal/common/config"
)

type Config struct {
	Timeout        time.Duration
	MaxJobsActive  int
	PersistResults bool
}

// LoadConfig reads the worker entry and the scoring section.
func LoadConfig(cfg *config.Config) *Config {
	w := config.GetWorkerConfig(cfg, TaskType)
	return &Config{
		Timeout:        config.GetDuration(w.Timeout),
		MaxJobsActive:  w.MaxJobsActive,
		PersistResults: cfg.Scoring.PersistResults,
	}
}
