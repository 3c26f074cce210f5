package game

// Error is a coded, user-facing failure from a coordinator operation.
// Codes are mapped to HTTP statuses at the API boundary.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Error codes understood by the API layer.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL"
)

func ErrInvalid(msg string) *Error {
	return &Error{Code: CodeInvalidArgument, Message: msg}
}

func ErrForbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

func ErrNotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

func ErrConflict(msg string) *Error {
	return &Error{Code: CodeConflict, Message: msg}
}
