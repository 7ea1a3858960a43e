// internal/storage/fanout.go
package storage

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"credit-scoring-workers/internal/scoring"
)

// FanoutSink writes each run to every sink concurrently. One failing sink
// does not stop the others.
type FanoutSink struct {
	sinks []scoring.RunSink
}

func NewFanoutSink(sinks ...scoring.RunSink) *FanoutSink {
	out := make([]scoring.RunSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return &FanoutSink{sinks: out}
}

func (f *FanoutSink) Len() int {
	return len(f.sinks)
}

func (f *FanoutSink) SaveRun(ctx context.Context, run scoring.ScoringRun) error {
	errs := make([]error, len(f.sinks))

	var g errgroup.Group
	for i, sink := range f.sinks {
		i, sink := i, sink
		g.Go(func() error {
			if err := sink.SaveRun(ctx, run); err != nil {
				errs[i] = fmt.Errorf("%T: %w", sink, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
