package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/deskworks/service-desk/internal/lifecycle"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusUnprocessableEntity, details)
}

func NewBadRequest(message string) error {
	return NewDomainError("BAD_REQUEST", message, http.StatusBadRequest, nil)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError("FORBIDDEN", message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError("CONFLICT", message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// lifecycleKinds maps core error kinds onto their API classification.
var lifecycleKinds = []struct {
	err    error
	kind   string
	code   string
	status int
}{
	{lifecycle.ErrEmptyNote, "EmptyNote", "VALIDATION_FAILED", http.StatusUnprocessableEntity},
	{lifecycle.ErrNoteTooShort, "NoteTooShort", "VALIDATION_FAILED", http.StatusUnprocessableEntity},
	{lifecycle.ErrVisitInPast, "VisitInPast", "VALIDATION_FAILED", http.StatusUnprocessableEntity},
	{lifecycle.ErrInvalidSlot, "InvalidSlot", "VALIDATION_FAILED", http.StatusUnprocessableEntity},
	{lifecycle.ErrInvalidDate, "InvalidDate", "VALIDATION_FAILED", http.StatusUnprocessableEntity},
	{lifecycle.ErrPreferredVisitSet, "PreferredVisitSet", "CONFLICT", http.StatusConflict},
	{lifecycle.ErrInvalidTransition, "InvalidTransition", "INVALID_TRANSITION", http.StatusConflict},
	{lifecycle.ErrActorNotPermitted, "ActorNotPermitted", "FORBIDDEN", http.StatusForbidden},
	{lifecycle.ErrIndexOutOfRange, "IndexOutOfRange", "NOT_FOUND", http.StatusNotFound},
}

// FromLifecycle classifies a core lifecycle error, or returns nil when err
// is not one of its kinds.
func FromLifecycle(err error) *DomainError {
	for _, k := range lifecycleKinds {
		if errors.Is(err, k.err) {
			return &DomainError{
				Code:       k.code,
				Message:    err.Error(),
				HTTPStatus: k.status,
				Details:    map[string]any{"kind": k.kind},
				Err:        err,
			}
		}
	}
	return nil
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if de := FromLifecycle(err); de != nil {
		return de
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError converts err to a *DomainError typed as error.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestTimeout:
		return "TIMEOUT"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
