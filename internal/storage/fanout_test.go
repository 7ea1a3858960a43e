package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanoutSink_WritesEverySink(t *testing.T) {
	first, second := &recordingSink{}, &recordingSink{}
	fanout := NewFanoutSink(first, nil, second)

	require.Equal(t, 2, fanout.Len())
	assert.NoError(t, fanout.SaveRun(context.Background(), sampleRun()))
	assert.Len(t, first.runs, 1)
	assert.Len(t, second.runs, 1)
}

func TestFanoutSink_JoinsFailures(t *testing.T) {
	healthy := &recordingSink{}
	dbDown := errors.New("postgres unavailable")
	esDown := errors.New("elasticsearch unavailable")
	fanout := NewFanoutSink(&recordingSink{err: dbDown}, healthy, &recordingSink{err: esDown})

	err := fanout.SaveRun(context.Background(), sampleRun())

	require.Error(t, err)
	assert.ErrorIs(t, err, dbDown)
	assert.ErrorIs(t, err, esDown)
	assert.Len(t, healthy.runs, 1)
}

func TestFanoutSink_Empty(t *testing.T) {
	assert.NoError(t, NewFanoutSink().SaveRun(context.Background(), sampleRun()))
}
