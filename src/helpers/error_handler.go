package helpers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"energy-forecast/src/logger"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

// ErrInvalidDate is returned for a selection date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("invalid date")

type ForecastError struct {
	Message string
	Cause   error
}

func (e *ForecastError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ForecastError) Unwrap() error {
	return e.Cause
}

// TransportError means upstream could not be reached or did not answer in time.
type TransportError struct{ ForecastError }

// UpstreamRejectionError means upstream answered with its "no data" marker.
type UpstreamRejectionError struct {
	ForecastError
	Marker string
}

// StorageError wraps cache store failures. Callers log it and carry on.
type StorageError struct{ ForecastError }

// MalformedRowError is a CSV record that cannot become a ParsedRow.
type MalformedRowError struct {
	ForecastError
	Line int
}

func (e *MalformedRowError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed row at line %d: %s", e.Line, e.ForecastError.Error())
	}
	return fmt.Sprintf("malformed row: %s", e.ForecastError.Error())
}

// -----------------------------------------------------------------------------

func NewTransportError(message string, cause error) *TransportError {
	return &TransportError{ForecastError{Message: message, Cause: cause}}
}

func NewUpstreamRejectionError(marker string) *UpstreamRejectionError {
	return &UpstreamRejectionError{
		ForecastError: ForecastError{Message: fmt.Sprintf("upstream returned no data (%q)", marker)},
		Marker:        marker,
	}
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{ForecastError{Message: message, Cause: cause}}
}

func NewMalformedRowError(line int, format string, args ...interface{}) *MalformedRowError {
	return &MalformedRowError{
		ForecastError: ForecastError{Message: fmt.Sprintf(format, args...)},
		Line:          line,
	}
}

// IsRetryable reports whether a failed fetch is worth another attempt.
// Only transport failures are; bad data will be just as bad next time.
func IsRetryable(err error) bool {
	var transport *TransportError
	return errors.As(err, &transport)
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn once plus up to maxRetries more times while it
// fails with a retryable error, doubling baseDelay between attempts.
func RetryWithBackoff[T any](ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}

		lastErr = err
		if attempt == maxRetries || !IsRetryable(err) {
			break
		}

		delay := baseDelay * (1 << attempt)
		if log != nil {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt+1, maxRetries+1, operation, err, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, lastErr
}
