// Package domain contains business logic types and errors.
// Domain errors represent business-level failures, NOT HTTP errors.
// They are infrastructure-agnostic and can be mapped to HTTP/gRPC/etc by adapters.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates business rule validation failed.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden indicates the operation is not permitted by business rules.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated indicates an operation that requires a signed-in
	// user was attempted without one.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrRequestFailed indicates an upstream service rejected a request or
	// could not be reached at all.
	ErrRequestFailed = errors.New("request failed")

	// ErrMalformedResponse indicates an upstream service answered with a
	// body that could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// NotFoundError provides context for not found errors.
type NotFoundError struct {
	Entity string
	ID     string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
	}

	return e.Entity + " not found"
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFoundError creates a not found error with context.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ValidationError provides context for validation errors.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}

	return "validation failed: " + e.Message
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError creates a validation error with context.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ForbiddenError provides context for forbidden errors.
type ForbiddenError struct {
	Operation string
	Reason    string
}

// Error implements the error interface.
func (e *ForbiddenError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("operation %q forbidden: %s", e.Operation, e.Reason)
	}

	return fmt.Sprintf("operation %q forbidden", e.Operation)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// NewForbiddenError creates a forbidden error with context.
func NewForbiddenError(operation, reason string) error {
	return &ForbiddenError{Operation: operation, Reason: reason}
}

// UnauthenticatedError identifies which operation required a session.
type UnauthenticatedError struct {
	Operation string
}

// Error implements the error interface.
func (e *UnauthenticatedError) Error() string {
	return fmt.Sprintf("operation %q requires an authenticated session", e.Operation)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *UnauthenticatedError) Unwrap() error {
	return ErrUnauthenticated
}

// NewUnauthenticatedError creates an unauthenticated error for an operation.
func NewUnauthenticatedError(operation string) error {
	return &UnauthenticatedError{Operation: operation}
}

// RequestFailedError carries the upstream context of a failed call.
// Status 0 means the request never produced an HTTP response
// (dial failure, timeout, open circuit).
type RequestFailedError struct {
	Service   string
	Operation string
	Status    int
	Detail    string
}

// Error implements the error interface.
func (e *RequestFailedError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: request failed: %s", e.Service, e.Operation, e.Detail)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Service, e.Operation, e.Status, e.Detail)
	}

	return fmt.Sprintf("%s %s: status %d", e.Service, e.Operation, e.Status)
}

// Unwrap returns the sentinel error for errors.Is() support.
func (e *RequestFailedError) Unwrap() error {
	return ErrRequestFailed
}

// NewRequestFailedError creates a request failed error with upstream context.
func NewRequestFailedError(service, operation string, status int, detail string) error {
	return &RequestFailedError{Service: service, Operation: operation, Status: status, Detail: detail}
}

// MalformedResponseError marks a response body the client could not decode.
type MalformedResponseError struct {
	Service   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s %s: malformed response: %v", e.Service, e.Operation, e.Cause)
}

// Unwrap returns the sentinel error for errors.Is() support.
// The cause stays reachable through the error message only; callers branch
// on the sentinel, not on the decoder's error type.
func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}

// NewMalformedResponseError creates a malformed response error with its cause.
func NewMalformedResponseError(service, operation string, cause error) error {
	return &MalformedResponseError{Service: service, Operation: operation, Cause: cause}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsForbidden checks if an error is a forbidden error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsUnauthenticated checks if an error is an unauthenticated error.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsRequestFailed checks if an error is a request failed error.
func IsRequestFailed(err error) bool {
	return errors.Is(err, ErrRequestFailed)
}

// IsMalformedResponse checks if an error is a malformed response error.
func IsMalformedResponse(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}
