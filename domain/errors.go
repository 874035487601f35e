package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across layers.
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeInvalid     ErrorCode = "INVALID"
	ErrCodeConflict    ErrorCode = "CONFLICT"
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	ErrCodeRemote      ErrorCode = "REMOTE"
	ErrCodeInternal    ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain errors.
var (
	ErrTaskNotFound   = NewError(ErrCodeNotFound, "task not found")
	ErrGroupNotFound  = NewError(ErrCodeNotFound, "group not found")
	ErrUserNotFound   = NewError(ErrCodeNotFound, "user not found")
	ErrInvalidPayload = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// ConflictError reports a revision mismatch detected by the server. It carries
// both the rejected local payload and the server's authoritative state so the
// caller can drive a manual merge; it is never auto-resolved.
type ConflictError struct {
	Entity         string
	EntityID       int
	Message        string
	ServerRevision *int
	LocalPayload   json.RawMessage
	ServerPayload  json.RawMessage
}

func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return fmt.Sprintf("revision conflict on %s %d: %s", e.Entity, e.EntityID, e.Message)
	}
	return fmt.Sprintf("revision conflict on %s %d", e.Entity, e.EntityID)
}

// AsConflict extracts a ConflictError from an error chain.
func AsConflict(err error) (*ConflictError, bool) {
	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return cErr, true
	}
	return nil, false
}
