// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/common/database"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring"
	"credit-scoring-workers/internal/storage"
)

// Clients holds the storage connections. Redis and Elasticsearch are nil
// when not configured or unreachable at start.
type Clients struct {
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
}

// RetryPolicy bounds connection attempts at start.
type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
}

var DefaultRetryPolicy = RetryPolicy{Attempts: 10, InitialDelay: 2 * time.Second}

// RetryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts.
func RetryWithBackoff(ctx context.Context, policy RetryPolicy, log logger.Logger, operationName string, operation func() error) error {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	var err error
	delay := policy.InitialDelay

	for i := 0; i < policy.Attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}

		if i < policy.Attempts-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err.Error(),
				"attempt":     i + 1,
				"maxRetries":  policy.Attempts,
				"nextRetryIn": delay.String(),
			})
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, policy.Attempts, err)
}

// Connect opens Postgres, which is required, and the optional Redis and
// Elasticsearch clients.
func Connect(ctx context.Context, cfg *config.Config, policy RetryPolicy, log logger.Logger) (*Clients, error) {
	clients := &Clients{}

	err := RetryWithBackoff(ctx, policy, log, "PostgreSQL connection", func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		clients.Postgres = pg
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)

	if cfg.Database.Redis.Enabled() {
		rdb := database.NewRedis(cfg.Database.Redis)
		if err := RetryWithBackoff(ctx, policy, log, "Redis connection", func() error { return rdb.Ping(ctx) }); err != nil {
			log.Warn("Redis unavailable, history cache disabled", map[string]interface{}{"error": err.Error()})
			rdb.Close()
		} else {
			clients.Redis = rdb
			log.Info("Redis connected successfully", nil)
		}
	}

	if cfg.Database.Elasticsearch.Enabled() {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch, nil)
		if err == nil {
			err = RetryWithBackoff(ctx, policy, log, "Elasticsearch connection", func() error { return es.Ping(ctx) })
		}
		if err != nil {
			log.Warn("Elasticsearch unavailable, reporting sink disabled", map[string]interface{}{"error": err.Error()})
		} else {
			clients.Elasticsearch = es
			fields := map[string]interface{}{}
			if version, err := es.Version(ctx); err == nil {
				fields["version"] = version
			}
			log.Info("Elasticsearch connected successfully", fields)
		}
	}

	return clients, nil
}

// Checkers lists the connected dependencies for readiness probes.
func (c *Clients) Checkers() []database.Checker {
	var out []database.Checker
	if c.Postgres != nil {
		out = append(out, c.Postgres)
	}
	if c.Redis != nil {
		out = append(out, c.Redis)
	}
	if c.Elasticsearch != nil {
		out = append(out, c.Elasticsearch)
	}
	return out
}

func (c *Clients) Close() {
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.Postgres != nil {
		c.Postgres.Close()
	}
}

// Calibrator picks the weight calibration strategy from config.
func Calibrator(sc config.ScoringConfig) scoring.Calibrator {
	if sc.CalibrationStrategy == config.StrategyOutcome {
		c := scoring.NewOutcomeCalibrator()
		if sc.MinCalibrationRecords > c.MinRecords {
			c.MinRecords = sc.MinCalibrationRecords
		}
		return c
	}
	return scoring.StaticCalibrator{}
}

// NewEngine wires the history source and run sinks available in clients
// into a scoring engine and prepares their storage.
func NewEngine(ctx context.Context, cfg *config.Config, clients *Clients, log logger.Logger, opts ...scoring.Option) (*scoring.Engine, error) {
	var history scoring.HistorySource
	var sinks []scoring.RunSink

	if clients.Postgres != nil {
		history = storage.NewPostgresHistorySource(clients.Postgres.GetDB())
		if clients.Redis != nil {
			history = storage.NewCachedHistorySource(history, clients.Redis.GetClient(), cfg.Scoring.HistoryCacheTTLDuration(), log)
		}

		if cfg.Scoring.PersistResults {
			if err := storage.EnsureSchema(ctx, clients.Postgres.GetDB()); err != nil {
				return nil, err
			}
			sinks = append(sinks, storage.NewPostgresRunSink(clients.Postgres.GetDB()))
		}
	}

	if clients.Elasticsearch != nil && cfg.Scoring.PersistResults {
		esSink := storage.NewElasticsearchRunSink(clients.Elasticsearch.Client, cfg.Scoring.RunsIndex)
		if err := esSink.EnsureIndex(ctx); err != nil {
			log.Warn("Elasticsearch index unavailable, reporting sink disabled", map[string]interface{}{
				"index": cfg.Scoring.RunsIndex,
				"error": err.Error(),
			})
		} else {
			sinks = append(sinks, esSink)
		}
	}

	var sink scoring.RunSink
	if fan := storage.NewFanoutSink(sinks...); fan.Len() > 0 {
		sink = fan
	}

	engineOpts := []scoring.Option{
		scoring.WithCalibrator(Calibrator(cfg.Scoring)),
		scoring.WithHistoryLimit(cfg.Scoring.HistoryLimit),
		scoring.WithHistoryTimeout(cfg.Scoring.HistoryTimeoutDuration()),
		scoring.WithContributionScale(cfg.Scoring.ContributionScale),
	}

	log.Info("Credit scoring engine configured", map[string]interface{}{
		"historySource":       history != nil,
		"historyCache":        clients.Redis != nil,
		"sinks":               len(sinks),
		"calibrationStrategy": cfg.Scoring.CalibrationStrategy,
	})

	return scoring.New(history, sink, log, append(engineOpts, opts...)...), nil
}
