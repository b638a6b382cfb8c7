package sessions

import "errors"

var (
	// ErrInvalidField indicates the field is not one of the recognized enum values.
	ErrInvalidField = errors.New("invalid field")

	// ErrNotFound indicates the session id is unknown.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidState indicates the operation is not valid for the session's
	// current status (terminal sessions are immutable except for deletion).
	ErrInvalidState = errors.New("operation not valid for session status")

	// ErrUnsupportedType indicates an upload with a file extension outside pdf/docx.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooManyFiles indicates an upload would exceed the per-session document caps.
	ErrTooManyFiles = errors.New("too many files for session")
)
