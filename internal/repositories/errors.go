package repositories

import "errors"

// Repository errors
var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrDuplicateIdempotency = errors.New("duplicate idempotency key")
	ErrConcurrencyConflict  = errors.New("concurrent update conflict")
)
