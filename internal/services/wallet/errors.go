package wallet

import "errors"

// Service errors
var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidCurrency     = errors.New("invalid currency")
	ErrInvalidUser         = errors.New("invalid user")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConflict            = errors.New("ledger write lost a race")
)
