package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrSessionExpired        = errors.New("session expired")
	ErrTransport             = errors.New("backend unreachable")
	ErrApplication           = errors.New("request rejected")
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	ErrAlreadyPredicted        = errors.New("already predicted")
	ErrPredictionLocked        = errors.New("prediction window is locked")
	ErrPredictionNotResettable = errors.New("prediction cannot be reset")
	ErrStoreClosed             = errors.New("prediction store closed")
	ErrPollerRunning           = errors.New("live poller already running")
	ErrPollerStopped           = errors.New("live poller is not running")
)

// ErrorClass is the user-facing category of a failure.
type ErrorClass string

const (
	ErrorClassValidation    ErrorClass = "validation"
	ErrorClassTransport     ErrorClass = "transport"
	ErrorClassApplication   ErrorClass = "application"
	ErrorClassAuthorization ErrorClass = "authorization"
	ErrorClassUnknown       ErrorClass = "unknown"
)

// ClassifyError maps an error onto the four-way taxonomy: validation errors
// are caught before any network call, transport errors are retryable by the
// user, application errors carry a backend message, authorization errors
// require a session check.
func ClassifyError(err error) ErrorClass {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrSessionExpired):
		return ErrorClassAuthorization
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrAlreadyPredicted),
		errors.Is(err, ErrPredictionLocked),
		errors.Is(err, ErrPredictionNotResettable):
		return ErrorClassValidation
	case errors.Is(err, ErrTransport), errors.Is(err, ErrDependencyUnavailable):
		return ErrorClassTransport
	case errors.Is(err, ErrApplication), errors.Is(err, ErrNotFound):
		return ErrorClassApplication
	default:
		return ErrorClassUnknown
	}
}

// ApplicationError is a rejection reported by the backend. Message is shown
// to the user verbatim.
type ApplicationError struct {
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func (e *ApplicationError) Is(target error) bool {
	return target == ErrApplication
}

// UserMessage returns the backend message carried by err, if any.
func UserMessage(err error) (string, bool) {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Message, true
	}
	return "", false
}
