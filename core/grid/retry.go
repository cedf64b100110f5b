package grid

import (
	"context"
	"errors"
	"time"

	"github.com/kilianp07/cleancharge/core/model"
)

// RetryConfig bounds the attempts made for retryable provider errors.
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
	BaseDelay   time.Duration `json:"base_delay" yaml:"base_delay"`
	MaxDelay    time.Duration `json:"max_delay" yaml:"max_delay"`
}

func (c RetryConfig) normalized() RetryConfig {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 200 * time.Millisecond
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	return c
}

// WithRetry wraps next so that network, rate-limit and 5xx failures are
// retried with exponential backoff.
func WithRetry(next Provider, cfg RetryConfig) Provider {
	return &retryProvider{next: next, cfg: cfg.normalized()}
}

type retryProvider struct {
	next Provider
	cfg  RetryConfig
}

func (p *retryProvider) Name() string { return p.next.Name() }

func (p *retryProvider) FetchSeries(ctx context.Context, q Query) ([]model.Sample, error) {
	delay := p.cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		samples, err := p.next.FetchSeries(ctx, q)
		if err == nil {
			return samples, nil
		}
		lastErr = err
		var pe *ProviderError
		if attempt == p.cfg.MaxAttempts || !errors.As(err, &pe) || !pe.Retryable() {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
		if delay > p.cfg.MaxDelay {
			delay = p.cfg.MaxDelay
		}
	}
	return nil, lastErr
}
