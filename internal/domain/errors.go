package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - match with errors.Is()
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation failed")
	ErrAlreadyClosed = errors.New("already closed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
)

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates an unknown document, version or session
	NotFoundError struct {
		ResourceType string
		ResourceID   string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// AlreadyClosedError indicates a writing session was closed twice
	AlreadyClosedError struct {
		SessionID string
	}
)

// NewNotFound builds a NotFoundError for a resource type and id.
func NewNotFound(resourceType, id string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: id}
}

// NewValidation builds a ValidationError from a format string.
func NewValidation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s: not found", e.ResourceType, e.ResourceID)
}
func (e *ValidationError) Error() string    { return e.Message }
func (e *AlreadyClosedError) Error() string { return fmt.Sprintf("session %s is already closed", e.SessionID) }

func (e *NotFoundError) StatusCode() int      { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int    { return http.StatusBadRequest }
func (e *AlreadyClosedError) StatusCode() int { return http.StatusConflict }

func (e *NotFoundError) Is(target error) bool      { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool    { return target == ErrValidation }
func (e *AlreadyClosedError) Is(target error) bool { return target == ErrAlreadyClosed }

// ConflictError reports a lost optimistic version check.
// The caller should re-read the document head and retry; the engine never retries on its own.
type ConflictError struct {
	Message         string // Human-readable error message
	ResourceType    string // Type of resource (document, version)
	ResourceID      string // ID of the contended resource
	ExpectedVersion int    // Version the caller based its write on
	ActualVersion   int    // Head version observed when the write lost (0 if unknown)
}

// NewVersionConflict builds a ConflictError for a stale document head.
func NewVersionConflict(documentID string, expected, actual int) *ConflictError {
	msg := fmt.Sprintf("document %s advanced past version %d", documentID, expected)
	if actual > 0 {
		msg = fmt.Sprintf("document %s is at version %d, save was based on version %d", documentID, actual, expected)
	}
	return &ConflictError{
		Message:         msg,
		ResourceType:    "document",
		ResourceID:      documentID,
		ExpectedVersion: expected,
		ActualVersion:   actual,
	}
}

// Error implements the error interface
func (e *ConflictError) Error() string {
	return e.Message
}

// StatusCode implements the HTTPError interface
func (e *ConflictError) StatusCode() int {
	return http.StatusConflict
}

// Is allows errors.Is() to match against ErrConflict
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
