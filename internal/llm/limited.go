package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Limited throttles calls to an underlying Completer.
type Limited struct {
	next    Completer
	limiter *rate.Limiter
}

// NewLimited allows perSecond requests on average with the given burst.
// A non-positive rate disables throttling.
func NewLimited(next Completer, perSecond float64, burst int) *Limited {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Complete waits for a token and forwards the prompt.
func (l *Limited) Complete(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit wait: %w", err)
	}
	return l.next.Complete(ctx, prompt)
}
