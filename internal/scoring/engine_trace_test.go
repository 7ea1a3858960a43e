package scoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTracedEngine(t *testing.T, history HistorySource) (*Engine, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return newTestEngine(t, history, nil, WithTracerProvider(tp)), sr
}

func spanByName(t *testing.T, spans []sdktrace.ReadOnlySpan, name string) sdktrace.ReadOnlySpan {
	t.Helper()
	for _, s := range spans {
		if s.Name() == name {
			return s
		}
	}
	require.Failf(t, "span not recorded", "name=%s", name)
	return nil
}

func attrValue(s sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestEngine_Score_RecordsSpans(t *testing.T) {
	engine, sr := newTracedEngine(t, &memoryHistory{records: similarRecords(60, 6)})

	res := engine.Score(context.Background(), employedApplicant())
	spans := sr.Ended()

	root := spanByName(t, spans, "scoring.Score")
	child := spanByName(t, spans, "scoring.loadHistory")

	assert.Equal(t, root.SpanContext().SpanID(), child.Parent().SpanID())
	assert.Equal(t, codes.Unset, root.Status().Code)

	score, ok := attrValue(root, "credit.score")
	require.True(t, ok)
	assert.Equal(t, int64(res.Score), score.AsInt64())

	outcome, _ := attrValue(root, "credit.outcome")
	assert.Equal(t, string(OutcomeFull), outcome.AsString())

	size, ok := attrValue(child, "credit.history_size")
	require.True(t, ok)
	assert.Equal(t, int64(60), size.AsInt64())
}

func TestEngine_Score_HistoryErrorMarksSpan(t *testing.T) {
	engine, sr := newTracedEngine(t, &memoryHistory{err: errors.New("connection refused")})

	engine.Score(context.Background(), employedApplicant())

	child := spanByName(t, sr.Ended(), "scoring.loadHistory")
	assert.Equal(t, codes.Error, child.Status().Code)
	assert.Equal(t, "error", child.Status().Description)
	assert.NotEmpty(t, child.Events())

	root := spanByName(t, sr.Ended(), "scoring.Score")
	assert.Equal(t, codes.Unset, root.Status().Code)
}

func TestEngine_Score_DegradedMarksRootSpan(t *testing.T) {
	exploding := HistorySourceFunc(func(ctx context.Context, limit int) ([]HistoricalRecord, error) {
		panic("history store exploded")
	})
	engine, sr := newTracedEngine(t, exploding)

	engine.Score(context.Background(), employedApplicant())

	root := spanByName(t, sr.Ended(), "scoring.Score")
	assert.Equal(t, codes.Error, root.Status().Code)
	assert.Equal(t, "degraded", root.Status().Description)

	outcome, _ := attrValue(root, "credit.outcome")
	assert.Equal(t, string(OutcomeDegraded), outcome.AsString())
}
