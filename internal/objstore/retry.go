package objstore

import (
	"context"
	"errors"
	"time"

	"lakeflow/internal/domain"
)

// Retryer runs an operation up to Attempts times with a fixed Delay
// between tries. Not-found and context errors are terminal and return
// immediately.
type Retryer struct {
	Attempts int
	Delay    time.Duration
}

// Do runs fn until it succeeds, a terminal error occurs, or attempts run
// out. The last error is returned.
func (r Retryer) Do(ctx context.Context, fn func() error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(r.Delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = fn()
		if err == nil {
			return nil
		}
		if isTerminal(err) {
			return err
		}
	}
	return err
}

func isTerminal(err error) bool {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
