// Package apperrors defines the typed failures returned by pipeline operations.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies a pipeline failure.
type Kind string

// Kind constants define the pipeline error taxonomy.
const (
	KindNotFound           Kind = "NOT_FOUND"
	KindMissingJobContext  Kind = "MISSING_JOB_CONTEXT"
	KindMissingIdentifiers Kind = "MISSING_IDENTIFIERS"
	KindInvalidDate        Kind = "INVALID_DATE"
	KindInvalidReference   Kind = "INVALID_REFERENCE"
	KindInvalidStatus      Kind = "INVALID_STATUS"
	KindNotesTooLong       Kind = "NOTES_TOO_LONG"
	KindUpdateFailed       Kind = "UPDATE_FAILED"
	KindPartialFailure     Kind = "PARTIAL_FAILURE"
	KindScheduleFailed     Kind = "SCHEDULE_FAILED"
	KindCancelFailed       Kind = "CANCEL_FAILED"
)

// Identifier names used by MissingIdentifiers.
const (
	FieldApplicantID   = "applicant_id"
	FieldJobID         = "job_id"
	FieldApplicationID = "application_id"
	FieldInterviewID   = "interview_id"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string

	// ServerMessage is the message returned by the backend, if any.
	ServerMessage string
	// Fields lists the identifiers that were missing or invalid.
	Fields []string

	Err   error
	Stack []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace returns the stack captured when the error was created.
func (e *Error) StackTrace() []byte {
	return e.Stack
}

// New creates a classified error and captures the stack.
func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func NotFound(message string) *Error {
	return New(KindNotFound, message, nil)
}

func MissingJobContext(message string) *Error {
	return New(KindMissingJobContext, message, nil)
}

// MissingIdentifiers reports every identifier that was empty.
func MissingIdentifiers(fields ...string) *Error {
	e := New(KindMissingIdentifiers, "missing "+strings.Join(fields, ", "), nil)
	e.Fields = fields
	return e
}

func InvalidDate(message string) *Error {
	return New(KindInvalidDate, message, nil)
}

// InvalidReference reports identifiers that could not be resolved.
func InvalidReference(message string, fields ...string) *Error {
	e := New(KindInvalidReference, message, nil)
	e.Fields = fields
	return e
}

func InvalidStatus(message string) *Error {
	return New(KindInvalidStatus, message, nil)
}

func NotesTooLong(message string) *Error {
	return New(KindNotesTooLong, message, nil)
}

// Remote wraps a failed backend call, keeping the server's message.
func Remote(kind Kind, message, serverMessage string, err error) *Error {
	e := New(kind, message, err)
	e.ServerMessage = serverMessage
	return e
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage prefers the server message, then the error message, then fallback.
func UserMessage(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		if e.ServerMessage != "" {
			return e.ServerMessage
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return fallback
}
