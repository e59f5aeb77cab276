// Package apierror classifies failures of backend calls so callers can react
// without looking at transport details.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	Validation    Kind = "VALIDATION_ERROR"
	Authorization Kind = "UNAUTHORIZED"
	NotFound      Kind = "NOT_FOUND"
	Transport     Kind = "TRANSPORT_ERROR"
)

// RetryHint is appended to transport failures.
const RetryHint = "request failed, please retry"

type Error struct {
	Kind    Kind
	Message string
	Status  int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so errors.Is(err, apierror.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

var (
	ErrValidation    = &Error{Kind: Validation}
	ErrAuthorization = &Error{Kind: Authorization}
	ErrNotFound      = &Error{Kind: NotFound}
	ErrTransport     = &Error{Kind: Transport}
)

func NewValidation(message string) *Error {
	return &Error{Kind: Validation, Message: message, Status: http.StatusBadRequest}
}

func NewTransport(err error) *Error {
	return &Error{Kind: Transport, Message: RetryHint, Err: err}
}

// FromStatus maps an HTTP status and the backend message to an *Error.
func FromStatus(status int, message string) *Error {
	var kind Kind
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		kind = Validation
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		kind = Authorization
	case status == http.StatusNotFound:
		kind = NotFound
	default:
		kind = Transport
		switch {
		case message == "":
			message = RetryHint
		case !strings.Contains(message, RetryHint):
			message = message + ": " + RetryHint
		}
	}
	return &Error{Kind: kind, Message: message, Status: status}
}

// KindOf returns the kind of err, or Transport for errors that were never classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Transport
}

// Message returns the user-facing text of err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// StatusOf maps a kind back to the status the backend answers with.
func StatusOf(k Kind) int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
