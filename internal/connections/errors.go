package connections

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an action is dispatched to a
	// connection that has not been initialized (or failed to initialize).
	ErrNotConnected = errors.New("connection not initialized")
)

// UnknownConnectionError is returned when a dispatch names a connection
// that was never registered. Programmer/config error, never retried.
type UnknownConnectionError struct {
	Name string
}

func (e *UnknownConnectionError) Error() string {
	return fmt.Sprintf("unknown connection: %s", e.Name)
}

// UnknownActionError is returned when the named action is not registered
// on the target connection.
type UnknownActionError struct {
	Connection string
	Action     string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q on connection %q", e.Action, e.Connection)
}

// MissingParameterError is returned when a required parameter is absent
// from a positional parameter list. Names the missing field.
type MissingParameterError struct {
	Connection string
	Action     string
	Param      string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("action %q on %q: missing required parameter %q", e.Action, e.Connection, e.Param)
}

// ProviderError wraps an upstream provider failure (LLM, image, social API).
// Transient and eligible for retry.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError marks a request the upstream service would reject
// regardless of retries (e.g. tweet text over the length limit).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// permanent reports whether err should bypass the retry policy.
// Dispatch-contract violations and validation failures are never transient,
// and a cancelled or expired context will not recover by retrying.
func permanent(err error) bool {
	var (
		unknownConn   *UnknownConnectionError
		unknownAction *UnknownActionError
		missingParam  *MissingParameterError
		validation    *ValidationError
	)
	return errors.Is(err, ErrNotConnected) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.As(err, &unknownConn) ||
		errors.As(err, &unknownAction) ||
		errors.As(err, &missingParam) ||
		errors.As(err, &validation)
}
