package database

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"credit-scoring-workers/internal/common/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTransport struct {
	status int
	body   string
	calls  int
}

func (s *staticTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.calls++
	h := make(http.Header)
	h.Set("X-Elastic-Product", "Elasticsearch")
	h.Set("Content-Type", "application/json")
	body := s.body
	if body == "" {
		body = `{}`
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    req,
	}, nil
}

// ==========================
// Postgres Tests
// ==========================

func TestPostgresClient_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	client := NewPostgresFromDB(db)
	mock.ExpectPing()
	assert.NoError(t, client.Ping(context.Background()))

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	err = client.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres ping failed")

	mock.ExpectClose()
	assert.NoError(t, client.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgres_AppliesPoolSettings(t *testing.T) {
	client, err := NewPostgres(config.PostgresConfig{
		Host: "localhost", Port: 5432, Database: "mf", User: "u", SSLMode: "disable",
		MaxConnections: 7, MaxIdle: 2,
	})
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, 7, client.GetDB().Stats().MaxOpenConnections)
}

func TestPostgresClient_StatsCollector(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	db.SetMaxOpenConns(4)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewPostgresFromDB(db).StatsCollector()))

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() != "go_sql_max_open_connections" {
			continue
		}
		found = true
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, 4.0, mf.GetMetric()[0].GetGauge().GetValue())
		assert.Equal(t, "credit_scoring", mf.GetMetric()[0].GetLabel()[0].GetValue())
	}
	assert.True(t, found)
}

// ==========================
// Redis Tests
// ==========================

func TestRedisClient_Ping(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewRedis(config.RedisConfig{Address: mr.Addr(), PoolSize: 3})
	defer client.Close()
	assert.Equal(t, 3, client.GetClient().Options().PoolSize)

	assert.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}

// ==========================
// Elasticsearch Tests
// ==========================

func TestElasticsearchClient_Ping(t *testing.T) {
	ok := &staticTransport{status: http.StatusOK}
	client, err := NewElasticsearch(config.ElasticsearchConfig{URL: "http://es:9200"}, ok)
	require.NoError(t, err)
	assert.NoError(t, client.Ping(context.Background()))
	assert.Equal(t, 1, ok.calls)

	down := &staticTransport{status: http.StatusServiceUnavailable}
	client, err = NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{"http://es:9200"}}, down)
	require.NoError(t, err)
	assert.Error(t, client.Ping(context.Background()))
}

func TestElasticsearchClient_Version(t *testing.T) {
	info := &staticTransport{status: http.StatusOK, body: `{"cluster_name":"reporting","version":{"number":"8.11.3"}}`}
	client, err := NewElasticsearch(config.ElasticsearchConfig{URL: "http://es:9200"}, info)
	require.NoError(t, err)

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.11.3", version)

	down := &staticTransport{status: http.StatusUnauthorized}
	client, err = NewElasticsearch(config.ElasticsearchConfig{URL: "http://es:9200"}, down)
	require.NoError(t, err)
	_, err = client.Version(context.Background())
	assert.Error(t, err)
}

// ==========================
// Health Tests
// ==========================

type fakeChecker struct {
	name string
	err  error
}

func (f fakeChecker) Name() string                   { return f.name }
func (f fakeChecker) Ping(ctx context.Context) error { return f.err }

func TestCheckAll(t *testing.T) {
	statuses, err := CheckAll(context.Background(), time.Second,
		fakeChecker{name: "postgres"},
		fakeChecker{name: "redis", err: errors.New("refused")},
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.Equal(t, map[string]string{"postgres": "up", "redis": "down"}, statuses)

	statuses, err = CheckAll(context.Background(), time.Second)
	assert.NoError(t, err)
	assert.Empty(t, statuses)
}
