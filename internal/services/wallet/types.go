package wallet

import (
	"context"
	"time"

	"pavo/internal/models"
	"pavo/internal/repositories"

	"github.com/shopspring/decimal"
)

// Service is the wallet ledger contract.
type Service interface {
	// GetBalance returns the current balance, lazily creating a zero
	// balance row on first access.
	GetBalance(ctx context.Context, userID uint, currency string) (*models.WalletBalance, error)

	// Debit atomically checks sufficiency, decreases the balance and
	// appends a completed debit entry. Returns ErrInsufficientBalance
	// without writing anything when the balance does not cover amount.
	Debit(ctx context.Context, userID uint, currency string, amount decimal.Decimal, ref Reference) (*models.WalletTransaction, error)

	// Credit atomically increases the balance and appends a completed
	// credit entry.
	Credit(ctx context.Context, userID uint, currency string, amount decimal.Decimal, ref Reference) (*models.WalletTransaction, error)

	// ListTransactions is a paginated ledger read.
	ListTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter) ([]models.WalletTransaction, int64, error)
}

// Reference links a ledger entry back to its originating action.
type Reference struct {
	ID          string
	Type        string
	Description string
}

// Config holds ledger service configuration.
type Config struct {
	MaxRetries   int
	RetryBackoff time.Duration
}

// MetricsCollector defines the interface for collecting wallet metrics.
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordTransaction(txType, currency string, amount float64)
	RecordError(operation, errType string)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
}
