package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// ProviderErrorMessage describes failures talking to the LLM provider.
	ProviderErrorMessage = "llm provider request failed"
	// RedisNotFoundMessage is used when a Redis key does not exist.
	RedisNotFoundMessage = "redis key not found"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
)

// Sentinel errors for the per-turn failure taxonomy. They are logged and
// absorbed at the dialogue driver boundary, never shown to the user as-is.
var (
	// ErrPollTimeout marks an assistant run that never reached a terminal
	// status within the configured polling window.
	ErrPollTimeout = errors.New("run polling timed out")
	// ErrRunFailed marks an assistant run that ended in a non-completed
	// terminal status.
	ErrRunFailed = errors.New("assistant run failed")
	// ErrToolLoopExceeded marks a turn whose tool phase repeated past the
	// configured ceiling.
	ErrToolLoopExceeded = errors.New("tool call limit exceeded")
)

// AppError wraps an underlying error with an HTTP-style status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// WrapProvider wraps a transport or API failure from the LLM provider with a
// consistent status code and message.
func WrapProvider(err error) error {
	if err == nil {
		return nil
	}
	return New(err, http.StatusBadGateway, ProviderErrorMessage)
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
