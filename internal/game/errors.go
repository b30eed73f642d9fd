package game

import "fmt"

// Code classifies a rejected event.
type Code string

const (
	CodeNotFound      Code = "not_found"
	CodeInvalidChoice Code = "invalid_choice"
	CodeInvalidState  Code = "invalid_state"
)

// Error is returned for every event the engine rejects. The session is never
// modified when an Error is returned.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same code, so callers can test against the
// sentinels below with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrInvalidChoice = &Error{Code: CodeInvalidChoice, Message: "invalid choice"}
	ErrInvalidState  = &Error{Code: CodeInvalidState, Message: "invalid state"}
)

func invalidState(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}
