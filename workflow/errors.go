package workflow

import "errors"

// Kind is the closed set of failure categories a coordinator can report.
// Callers dispatch on the kind, never on the message text.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindNotOwner          Kind = "not_owner"
	KindForbidden         Kind = "forbidden"
	KindInvalidTransition Kind = "invalid_transition"
	KindAlreadyActive     Kind = "already_active"
	KindCompliance        Kind = "compliance_failure"
)

// Error carries a kind for dispatch and a human-readable reason for the caller.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// NewError builds a kinded workflow error.
func NewError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf extracts the kind from err, or "" when err is not a workflow error.
func KindOf(err error) Kind {
	var wErr *Error
	if errors.As(err, &wErr) {
		return wErr.Kind
	}
	return ""
}

// IsKind reports whether err is a workflow error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
