package quota

import (
	"context"

	"github.com/kailas-cloud/docrag/internal/domain"
)

// Completer enforces a Tracker around another domain.Completer.
type Completer struct {
	inner   domain.Completer
	tracker *Tracker
}

// Guard wraps inner with quota enforcement.
func Guard(inner domain.Completer, tracker *Tracker) *Completer {
	return &Completer{inner: inner, tracker: tracker}
}

// Model returns the inner model name.
func (c *Completer) Model() string { return c.inner.Model() }

// Complete checks the quota, delegates, and records usage of successful calls.
func (c *Completer) Complete(ctx context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	if err := c.tracker.Check(ctx); err != nil {
		return domain.CompletionResult{}, err
	}

	res, err := c.inner.Complete(ctx, req)
	if err != nil {
		return domain.CompletionResult{}, err
	}

	c.tracker.Record(int64(res.PromptTokens + res.CompletionTokens))
	return res, nil
}

// HealthCheck delegates to the inner completer when it supports it.
func (c *Completer) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}
