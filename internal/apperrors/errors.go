package apperrors

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInternal is returned when a failure should not leak its details to the caller.
var ErrInternal = errors.New("internal error")

// Quote and order lifecycle errors.
var (
	// ErrRateUnavailable means no current raw rate exists for the requested channel and pair.
	ErrRateUnavailable = errors.New("rate unavailable")

	// ErrAlreadyConsumedOrExpired means the quote lock left the locked state before this attempt.
	ErrAlreadyConsumedOrExpired = errors.New("quote lock already consumed or expired")

	// ErrExpired means the quote lock passed its expiry while still locked.
	ErrExpired = errors.New("quote lock expired")

	// ErrAlreadyTerminal means the target is in a state that no longer accepts the request.
	ErrAlreadyTerminal = errors.New("already in a terminal state")

	// ErrInvalidTransition means the requested order status edge does not exist.
	ErrInvalidTransition = errors.New("invalid order status transition")

	// ErrTimeout means a store or channel did not answer in time. Safe to retry.
	ErrTimeout = errors.New("operation timed out")

	// ErrPublishFailure means an event could not be handed to the message bus.
	ErrPublishFailure = errors.New("event publish failed")

	// ErrStatusConflict is returned by stores when a conditional status update matched no row.
	ErrStatusConflict = errors.New("status changed concurrently")
)

// AppError carries an HTTP-ish status code next to the wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError wraps err with a status code and message.
// Context deadline errors are promoted to ErrTimeout so callers can tell them apart.
func NewAppError(code int, message string, err error) *AppError {
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		err = fmt.Errorf("%w: %w", ErrTimeout, err)
		code = 504
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// NewNotFoundError returns an AppError that matches ErrNotFound.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: 404, Message: message, Err: ErrNotFound}
}

// NewValidationError returns an AppError that matches ErrValidation.
func NewValidationError(message string) *AppError {
	return &AppError{Code: 400, Message: message, Err: ErrValidation}
}

// IsRetryable reports whether the whole operation may be retried by the caller.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsConflict reports whether err is a state conflict on a quote lock or order.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyConsumedOrExpired) ||
		errors.Is(err, ErrExpired) ||
		errors.Is(err, ErrAlreadyTerminal) ||
		errors.Is(err, ErrInvalidTransition)
}
