package services

import (
	"context"
	"math/rand"
	"time"

	"github.com/custodia-labs/askpolicy-cli/internal/logger"
)

// retryPolicy bounds repeated collaborator calls. Delays grow
// exponentially from BaseDelay with up to 25% jitter.
type retryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

// defaultRetryPolicy is used for embedding, generation and tabular
// calls unless configuration overrides it.
var defaultRetryPolicy = retryPolicy{
	Attempts:  3,
	BaseDelay: 500 * time.Millisecond,
}

// withRetry runs fn up to p.Attempts times, sleeping between attempts.
// Context cancellation stops the loop immediately and is returned
// as-is so callers can distinguish abandonment from exhaustion.
func withRetry(ctx context.Context, p retryPolicy, op string, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	delay := p.BaseDelay

	for attempt := 1; attempt <= attempts; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		err = fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Warn("%s failed (attempt %d/%d): %v", op, attempt, attempts, err)

		if attempt == attempts {
			break
		}

		jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
		select {
		case <-time.After(delay + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
	}

	return err
}
