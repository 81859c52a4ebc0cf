package session

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/propkeeper/internal/logging"
)

// strategy is one authority tried by runStrategies. When run fails and
// fallThrough accepts the error, the next strategy is tried; otherwise the
// error is final.
type strategy[T any] struct {
	name        string
	run         func(ctx context.Context) (T, error)
	fallThrough func(err error) bool
}

var errNoStrategies = errors.New("no strategies configured")

// runStrategies tries strategies in order and returns the first success. If
// every strategy falls through, the last error is returned.
func runStrategies[T any](ctx context.Context, log logging.Logger, op string, strategies ...strategy[T]) (T, string, error) {
	var (
		zero T
		last = errNoStrategies
	)
	for _, s := range strategies {
		v, err := s.run(ctx)
		if err == nil {
			return v, s.name, nil
		}
		last = err
		if s.fallThrough == nil || !s.fallThrough(err) {
			return zero, s.name, err
		}
		log.Debug(ctx, "strategy fell through", "op", op, "strategy", s.name, "error", err)
	}
	return zero, "", last
}
