// Package errors defines the domain error kinds surfaced at the API
// boundary. Each kind carries a machine-readable code; handlers map codes
// to HTTP statuses.
package errors

import (
	"errors"
	"fmt"
)

// DomainError is an error with a machine-readable code. Subcode carries a
// provider-specific detail for gateway failures.
type DomainError struct {
	Code    string
	Subcode string
	Message string
	Err     error
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

// Is matches two domain errors by code, so wrapped instances of the same
// kind compare equal under errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Error codes
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeForbidden           = "FORBIDDEN"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeGateway             = "GATEWAY_ERROR"
	CodeAlreadyDecided      = "ALREADY_DECIDED"
	CodeConflict            = "CONCURRENCY_CONFLICT"
	CodeStatusImmutable     = "STATUS_IMMUTABLE"
)

// Validation builds a malformed-input error.
func Validation(message string) *DomainError {
	return &DomainError{Code: CodeValidation, Message: message}
}

// NotFound builds a missing-record error.
func NotFound(message string) *DomainError {
	return &DomainError{Code: CodeNotFound, Message: message}
}

// Authorization builds an ownership or role violation error.
func Authorization(message string) *DomainError {
	return &DomainError{Code: CodeForbidden, Message: message}
}

// InsufficientBalance builds a wallet sufficiency error.
func InsufficientBalance() *DomainError {
	return &DomainError{Code: CodeInsufficientBalance, Message: "insufficient wallet balance"}
}

// Gateway builds an external strategy failure carrying the provider subcode.
func Gateway(subcode, message string, err error) *DomainError {
	return &DomainError{Code: CodeGateway, Subcode: subcode, Message: message, Err: err}
}

// AlreadyDecided builds a double-approval error.
func AlreadyDecided(paymentID string) *DomainError {
	return &DomainError{Code: CodeAlreadyDecided, Message: fmt.Sprintf("payment %s already decided", paymentID)}
}

// Conflict builds a ledger-race error after internal retries are exhausted.
func Conflict(message string) *DomainError {
	return &DomainError{Code: CodeConflict, Message: message}
}

// StatusImmutable builds an error for mutations of a terminal payment.
func StatusImmutable(paymentID string) *DomainError {
	return &DomainError{Code: CodeStatusImmutable, Message: fmt.Sprintf("payment %s is terminal", paymentID)}
}

// CodeOf extracts the machine-readable code from an error chain, or the
// empty string when the error is not a DomainError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
