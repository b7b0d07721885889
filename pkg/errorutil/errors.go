package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
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
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError("UNAUTHORIZED", message, http.StatusUnauthorized, nil)
}

// NewPermissionDenied carries the specific unmet condition, not a generic text.
func NewPermissionDenied(message string) error {
	return NewDomainError("PERMISSION_DENIED", message, http.StatusForbidden, nil)
}

// NewProjectInactive gates every mutation except reactivation.
func NewProjectInactive() error {
	return NewDomainError("PROJECT_INACTIVE", "The project is inactive.", http.StatusConflict, nil)
}

func NewInvalidParent(message string, details map[string]any) error {
	if message == "" {
		message = "Invalid parent assignment"
	}
	return NewDomainError("INVALID_PARENT", message, http.StatusBadRequest, details)
}

func NewCircularDependency(message string) error {
	if message == "" {
		message = "Circular dependency detected."
	}
	return NewDomainError("CIRCULAR_DEPENDENCY", message, http.StatusBadRequest, nil)
}

// NewBlockedByChildren rejects a Done transition while children are pending.
func NewBlockedByChildren(pending int) error {
	return NewDomainError(
		"BLOCKED_BY_CHILDREN",
		fmt.Sprintf("cannot complete issue: %d child issue(s) not done", pending),
		http.StatusConflict,
		map[string]any{"pending_children": pending},
	)
}

// NewAllocationConflict marks a code allocation race. Callers retry it
// transparently; it is never surfaced over HTTP.
func NewAllocationConflict(code string) error {
	return NewDomainError("ALLOCATION_CONFLICT", fmt.Sprintf("code %s already allocated", code), http.StatusConflict, nil)
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

// IsCode reports whether err is a DomainError with the given code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
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
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource", nil).(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
