package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"NewsRelay/internal/config"
)

// ErrBudgetExhausted terminates a call whose transient failures outlasted the
// retry budget.
var ErrBudgetExhausted = errors.New("retry budget exhausted")

// Policy retries an operation with exponential backoff and jitter. Only
// errors the Retryable predicate accepts are retried; everything else
// propagates immediately. Each call site carries its own policy so budgets
// stay independent.
type Policy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Retryable    func(error) bool

	logger *slog.Logger
	jitter func() float64
}

// New builds a policy from configuration.
func New(cfg config.RetryConfig, retryable func(error) bool, logger *slog.Logger) *Policy {
	return &Policy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay(),
		MaxDelay:     cfg.MaxDelay(),
		Retryable:    retryable,
		logger:       logger,
		jitter:       rand.Float64,
	}
}

// Do runs op until it succeeds, fails with a non-retryable error, or the
// budget runs out. The wait before retry n is
// min(initial * 2^n * jitter, max) with jitter drawn from [0.5, 1.5).
func (p *Policy) Do(ctx context.Context, op func() error) error {
	delay := p.InitialDelay

	for attempt := 0; ; attempt++ {
		err := op()
		if err == nil {
			return nil
		}

		if p.Retryable == nil || !p.Retryable(err) {
			return err
		}

		if attempt >= p.MaxRetries {
			p.warn("retry budget exhausted", "retries", p.MaxRetries, "error", err)
			return fmt.Errorf("%w (%d retries): %w", ErrBudgetExhausted, p.MaxRetries, err)
		}

		wait := time.Duration(float64(delay) * (0.5 + p.jitterValue()))
		if wait > p.MaxDelay {
			wait = p.MaxDelay
		}

		p.warn("transient failure, backing off",
			"attempt", attempt+1,
			"max_retries", p.MaxRetries,
			"wait", wait,
			"error", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}

		delay *= 2
	}
}

func (p *Policy) jitterValue() float64 {
	if p.jitter == nil {
		return rand.Float64()
	}
	return p.jitter()
}

func (p *Policy) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
