package todo

import "errors"

// ErrorKind classifies a failed mutation for callers.
type ErrorKind string

const (
	// ErrorValidation indicates bad input (shape, length, enum).
	// The same operation will fail again until the input changes.
	ErrorValidation ErrorKind = "validation_error"

	// ErrorUnauthorized indicates the caller has no authenticated principal.
	ErrorUnauthorized ErrorKind = "unauthorized"

	// ErrorNotFound indicates the id is absent or not owned by the caller.
	// The two cases are deliberately indistinguishable so that callers
	// cannot probe for the existence of other principals' todos.
	ErrorNotFound ErrorKind = "not_found"

	// ErrorTransient indicates a backing-store or network failure.
	// Retrying the same operation is safe.
	ErrorTransient ErrorKind = "transient_error"
)

// Result is the uniform envelope returned by every mutation. Expected
// failures are reported through Err rather than a Go error so that the
// caller always receives a tagged, serializable outcome.
type Result struct {
	OK      bool      `json:"success"`
	Todo    *Todo     `json:"data,omitempty"`
	Err     ErrorKind `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Success builds a successful result carrying the canonical row.
// The row may be nil for operations with no-op semantics, such as
// deleting an id that does not exist.
func Success(t *Todo) Result {
	return Result{OK: true, Todo: t}
}

// Failure builds a failed result with the given kind and message.
func Failure(kind ErrorKind, message string) Result {
	return Result{OK: false, Err: kind, Message: message}
}

// FailureFromError classifies err into a failed result. Validation
// sentinels map to ErrorValidation; anything unrecognized is treated as
// transient rather than propagated raw.
func FailureFromError(err error) Result {
	switch {
	case err == nil:
		return Success(nil)
	case errors.Is(err, ErrEmptyTitle),
		errors.Is(err, ErrTitleTooLong),
		errors.Is(err, ErrInvalidPriority),
		errors.Is(err, ErrMissingOwner):
		return Failure(ErrorValidation, err.Error())
	default:
		return Failure(ErrorTransient, "backing store unavailable")
	}
}
