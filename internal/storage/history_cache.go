// internal/storage/history_cache.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/scoring"
)

const DefaultHistoryCacheTTL = 10 * time.Minute

// CachedHistorySource keeps the last sample in Redis so that bursts of
// scoring jobs share one database read.
type CachedHistorySource struct {
	inner  scoring.HistorySource
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedHistorySource(inner scoring.HistorySource, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedHistorySource {
	if ttl <= 0 {
		ttl = DefaultHistoryCacheTTL
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedHistorySource{
		inner:  inner,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "history-cache"}),
	}
}

func HistoryCacheKey(limit int) string {
	return fmt.Sprintf("credit:history:sample:%d", limit)
}

func (c *CachedHistorySource) FetchHistory(ctx context.Context, limit int) ([]scoring.HistoricalRecord, error) {
	key := HistoryCacheKey(limit)

	val, err := c.redis.Get(ctx, key).Result()
	switch {
	case err == nil:
		var records []scoring.HistoricalRecord
		jsonErr := json.Unmarshal([]byte(val), &records)
		if jsonErr == nil {
			return records, nil
		}
		c.logger.Warn("Discarding unreadable cached history", map[string]interface{}{
			"key":   key,
			"error": jsonErr.Error(),
		})
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("History cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	records, err := c.inner.FetchHistory(ctx, limit)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(records)
	if err != nil {
		return records, nil
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("History cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return records, nil
}
