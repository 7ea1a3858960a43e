package storage

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestCachedHistorySource_ServesSecondCallFromRedis(t *testing.T) {
	mr, client := setupMiniredis(t)
	inner := &countingSource{records: sampleRecords()}
	cached := NewCachedHistorySource(inner, client, time.Minute, createTestLogger(t))

	first, err := cached.FetchHistory(context.Background(), 500)
	require.NoError(t, err)
	second, err := cached.FetchHistory(context.Background(), 500)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, sampleRecords(), second)
	assert.True(t, mr.Exists("credit:history:sample:500"))
	assert.Equal(t, time.Minute, mr.TTL("credit:history:sample:500"))
}

func TestCachedHistorySource_KeysByLimit(t *testing.T) {
	_, client := setupMiniredis(t)
	inner := &countingSource{records: sampleRecords()}
	cached := NewCachedHistorySource(inner, client, time.Minute, createTestLogger(t))

	_, _ = cached.FetchHistory(context.Background(), 100)
	_, _ = cached.FetchHistory(context.Background(), 1000)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedHistorySource_ExpiresAfterTTL(t *testing.T) {
	mr, client := setupMiniredis(t)
	inner := &countingSource{records: sampleRecords()}
	cached := NewCachedHistorySource(inner, client, 30*time.Second, createTestLogger(t))

	_, _ = cached.FetchHistory(context.Background(), 1000)
	mr.FastForward(31 * time.Second)
	_, _ = cached.FetchHistory(context.Background(), 1000)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedHistorySource_DoesNotCacheErrors(t *testing.T) {
	mr, client := setupMiniredis(t)
	inner := &countingSource{err: errors.New("database offline")}
	cached := NewCachedHistorySource(inner, client, time.Minute, createTestLogger(t))

	_, err := cached.FetchHistory(context.Background(), 1000)

	assert.EqualError(t, err, "database offline")
	assert.False(t, mr.Exists(HistoryCacheKey(1000)))
}

func TestCachedHistorySource_IgnoresCorruptEntry(t *testing.T) {
	mr, client := setupMiniredis(t)
	require.NoError(t, mr.Set(HistoryCacheKey(1000), "{not json"))
	inner := &countingSource{records: sampleRecords()}
	cached := NewCachedHistorySource(inner, client, time.Minute, createTestLogger(t))

	records, err := cached.FetchHistory(context.Background(), 1000)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedHistorySource_RedisDownFallsThrough(t *testing.T) {
	mr, client := setupMiniredis(t)
	mr.Close()
	inner := &countingSource{records: sampleRecords()}
	cached := NewCachedHistorySource(inner, client, time.Minute, createTestLogger(t))

	records, err := cached.FetchHistory(context.Background(), 1000)

	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedHistorySource_WriteFailureStillReturnsRecords(t *testing.T) {
	client, mock := redismock.NewClientMock()
	records := sampleRecords()
	data, err := json.Marshal(records)
	require.NoError(t, err)

	mock.ExpectGet(HistoryCacheKey(1000)).RedisNil()
	mock.ExpectSet(HistoryCacheKey(1000), data, DefaultHistoryCacheTTL).SetErr(errors.New("READONLY You can't write against a read only replica"))

	inner := &countingSource{records: records}
	cached := NewCachedHistorySource(inner, client, 0, createTestLogger(t))

	got, err := cached.FetchHistory(context.Background(), 1000)

	require.NoError(t, err)
	assert.Equal(t, records, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
