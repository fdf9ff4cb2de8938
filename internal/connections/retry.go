package connections

import (
	"log/slog"
	"time"
)

// RetryConfig controls the retry policy wrapped around external calls.
type RetryConfig struct {
	Attempts  int           // total attempts (default 3)
	BaseDelay time.Duration // delay grows linearly: BaseDelay * attempt number
}

// DefaultRetryConfig returns the policy used when a connection config
// doesn't override it.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:  3,
		BaseDelay: time.Second,
	}
}

// ExecuteWithRetry runs fn up to cfg.Attempts times, sleeping
// BaseDelay*attempt between failures, and returns the first success or the
// last error. Permanent errors (validation, dispatch contract violations)
// are returned immediately. state error counters are updated per attempt;
// a success resets them. clock may be nil (system clock).
func ExecuteWithRetry[T any](op string, cfg RetryConfig, state *State, clock Clock, fn func() (T, error)) (T, error) {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if clock == nil {
		clock = SystemClock()
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= cfg.Attempts; attempt++ {
		result, err := fn()
		if err == nil {
			if state != nil {
				state.RecordSuccess()
			}
			return result, nil
		}

		if state != nil {
			state.RecordFailure(err)
		}
		lastErr = err

		if permanent(err) {
			return zero, err
		}

		slog.Warn("external call failed",
			"op", op,
			"attempt", attempt,
			"max_attempts", cfg.Attempts,
			"error", err,
		)

		if attempt < cfg.Attempts {
			clock.Sleep(cfg.BaseDelay * time.Duration(attempt))
		}
	}
	return zero, lastErr
}
