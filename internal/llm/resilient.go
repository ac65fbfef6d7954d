package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/MikeSquared-Agency/callscope/internal/prompt"
)

const defaultMaxElapsed = 30 * time.Second

// Resilient rate-limits calls to the wrapped Generator and retries
// transient failures with exponential backoff. Permanent 4xx replies
// are returned immediately.
type Resilient struct {
	next       Generator
	limiter    *rate.Limiter
	logger     *slog.Logger
	newBackOff func() backoff.BackOff
}

// NewResilient wraps next. A non-positive ratePerSec disables rate limiting.
func NewResilient(next Generator, ratePerSec float64, logger *slog.Logger) *Resilient {
	limit := rate.Inf
	if ratePerSec > 0 {
		limit = rate.Limit(ratePerSec)
	}
	return &Resilient{
		next:    next,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = defaultMaxElapsed
			return b
		},
	}
}

func (r *Resilient) Generate(ctx context.Context, req prompt.Request) (string, error) {
	attempt := 0
	op := func() (string, error) {
		attempt++
		if err := r.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}
		out, err := r.next.Generate(ctx, req)
		if err == nil {
			return out, nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return "", backoff.Permanent(err)
		}
		r.logger.Warn("llm generate failed, retrying", "attempt", attempt, "error", err)
		return "", err
	}
	return backoff.RetryWithData(op, backoff.WithContext(r.newBackOff(), ctx))
}
