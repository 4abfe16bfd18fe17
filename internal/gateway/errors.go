package gateway

// Kind is the closed set of failure categories a mutation can report.
// Anything outside the set is collapsed into KindUnexpected and the
// underlying fault is kept for the caller to log, never to serve.
type Kind string

const (
	KindNotFound      Kind = "not_found"
	KindAlreadyExists Kind = "already_exists"
	KindHasDependents Kind = "has_dependents"
	KindValidation    Kind = "validation"
	KindUnexpected    Kind = "unexpected"
)

const unexpectedMessage = "internal error"

type Error struct {
	Kind    Kind
	Message string

	// ConflictName holds the display name of the record that caused an
	// already-exists failure.
	ConflictName string

	// cause is the wrapped internal fault for unexpected errors.
	cause error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the internal fault so callers can log it. It is nil for
// every kind except KindUnexpected.
func (e *Error) Unwrap() error {
	return e.cause
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func AlreadyExists(message, conflictName string) *Error {
	return &Error{Kind: KindAlreadyExists, Message: message, ConflictName: conflictName}
}

func HasDependents(message string) *Error {
	return &Error{Kind: KindHasDependents, Message: message}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Unexpected wraps an internal fault. The message served to callers is
// fixed; err is only reachable through Unwrap.
func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpected, Message: unexpectedMessage, cause: err}
}
