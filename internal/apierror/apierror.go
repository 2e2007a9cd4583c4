// Package apierror provides the response envelope and the business error
// taxonomy shared by services and handlers. Infrastructure errors never pass
// through here: handlers log them and answer with a generic message.
package apierror

import (
	"errors"
	"fmt"
)

// Kind classifies a business-rule rejection.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
)

// Error is a business-rule rejection returned by the service layer.
// References carries machine-readable reference counts for Conflict errors.
type Error struct {
	Kind       Kind
	Message    string
	References map[string]int64
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Kind, e.Message) }

func Validation(msg string) *Error   { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func Forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func NotFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// ConflictWithRefs builds a Conflict that reports how many rows still
// reference the entity the caller tried to delete.
func ConflictWithRefs(msg string, refs map[string]int64) *Error {
	return &Error{Kind: KindConflict, Message: msg, References: refs}
}

// As extracts a business error from err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsKind reports whether err is a business error of the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

// Envelope is the canonical JSON body for write endpoints and rejections.
type Envelope struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	References map[string]int64  `json:"references,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
}

// New returns a failed envelope with msg.
func New(msg string) *Envelope {
	return &Envelope{Success: false, Message: msg}
}

// NewValidation wraps multiple field errors.
func NewValidation(fields map[string]string) *Envelope {
	return &Envelope{Success: false, Message: "Validation failed", Fields: fields}
}

// FromError converts a business error into its envelope.
func FromError(e *Error) *Envelope {
	return &Envelope{Success: false, Message: e.Message, References: e.References}
}
