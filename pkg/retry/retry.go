// Package retry runs an operation with exponential backoff until it
// succeeds, fails with an error the caller marks as final, or runs out of
// attempts.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/orgball2608/viralink-scheduler/pkg/logger"
)

type Config struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	// Retryable reports whether a failed attempt is worth repeating.
	// Nil repeats every error.
	Retryable func(error) bool
}

func DefaultConfig() Config {
	return Config{
		MaxRetries:      5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      1.5,
	}
}

func Do(ctx context.Context, log logger.Logger, operationName string, operation func() error, cfg Config) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialInterval
	bo.MaxInterval = cfg.MaxInterval
	bo.Multiplier = cfg.Multiplier
	bo.Reset()

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, cfg.MaxRetries), ctx)

	attempt := func() error {
		err := operation()
		if err != nil && cfg.Retryable != nil && !cfg.Retryable(err) {
			log.Error("Attempt failed with a final error", "operation", operationName, "error", err)
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.Warn("Attempt failed, retrying",
			"operation", operationName,
			"error", err,
			"next_attempt_in", wait.Round(time.Millisecond).String(),
		)
	}

	return backoff.RetryNotify(attempt, policy, notify)
}
