// Package apperrors provides the domain error taxonomy shared by the
// service layer and the HTTP handlers.
package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that need no extra context.
var (
	ErrKycIncomplete   = errors.New("kyc not completed")
	ErrPlanInactive    = errors.New("plan is not active")
	ErrAlreadySelected = errors.New("plan already selected")
	ErrMarketClosed    = errors.New("market is closed")
)

// ValidationError indicates missing or malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthError indicates a missing or invalid identity, or a role that is
// not allowed to perform the operation (Forbidden distinguishes the two).
type AuthError struct {
	Forbidden bool
	Message   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error: %s", e.Message)
}

// NewAuthError creates an AuthError for a missing/invalid identity.
func NewAuthError(message string) *AuthError {
	return &AuthError{Message: message}
}

// NewForbiddenError creates an AuthError for a wrong role.
func NewForbiddenError(message string) *AuthError {
	return &AuthError{Forbidden: true, Message: message}
}

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.Key)
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(entity, key string) *NotFoundError {
	return &NotFoundError{Entity: entity, Key: key}
}

// ConflictError indicates a uniqueness or state conflict.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

// NewConflictError creates a new ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// BrokerAuthError indicates the broker session could not be
// established, even after the single stale-session retry.
type BrokerAuthError struct {
	Code    string
	Message string
	Err     error
}

func (e *BrokerAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker auth error [%s]: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("broker auth error [%s]: %s", e.Code, e.Message)
}

func (e *BrokerAuthError) Unwrap() error {
	return e.Err
}

// NewBrokerAuthError creates a new BrokerAuthError.
func NewBrokerAuthError(code, message string, err error) *BrokerAuthError {
	return &BrokerAuthError{Code: code, Message: message, Err: err}
}

// BrokerUpstreamError indicates a non-2xx, malformed or semantically
// failed response from the broker API. Transport marks parse/transport
// issues (mapped to 500) as opposed to a failure the broker itself
// reported (mapped to 502).
type BrokerUpstreamError struct {
	Transport bool
	Status    int
	Body      string
	Err       error
}

func (e *BrokerUpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("broker upstream error (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("broker upstream error (status %d): %s", e.Status, e.Body)
}

func (e *BrokerUpstreamError) Unwrap() error {
	return e.Err
}

// NewBrokerUpstreamError creates a new BrokerUpstreamError.
func NewBrokerUpstreamError(transport bool, status int, body string, err error) *BrokerUpstreamError {
	return &BrokerUpstreamError{Transport: transport, Status: status, Body: body, Err: err}
}
