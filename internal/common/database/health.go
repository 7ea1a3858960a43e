// internal/common/database/health.go
package database

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Checker is a dependency that can report its own reachability.
type Checker interface {
	Name() string
	Ping(ctx context.Context) error
}

// CheckAll pings every checker concurrently, each bounded by timeout, and
// returns the per-dependency status. The error is the first failure.
func CheckAll(ctx context.Context, timeout time.Duration, checkers ...Checker) (map[string]string, error) {
	statuses := make([]string, len(checkers))

	var g errgroup.Group
	for i, c := range checkers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			if err := c.Ping(pctx); err != nil {
				statuses[i] = "down"
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			statuses[i] = "up"
			return nil
		})
	}
	err := g.Wait()

	out := make(map[string]string, len(checkers))
	for i, c := range checkers {
		out[c.Name()] = statuses[i]
	}
	return out, err
}
