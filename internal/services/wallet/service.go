package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pavo/internal/models"
	"pavo/internal/repositories"

	"github.com/shopspring/decimal"
)

// BalanceCache is the caching surface the ledger service needs. Optional;
// a nil cache disables the read fast path.
type BalanceCache interface {
	GetWalletBalance(ctx context.Context, userID uint, currency string) (*models.WalletBalance, bool)
	CacheWalletBalance(ctx context.Context, wallet *models.WalletBalance) error
	InvalidateWalletBalance(ctx context.Context, userID uint, currency string) error
}

type service struct {
	repo    repositories.WalletRepository
	cache   BalanceCache
	config  Config
	metrics MetricsCollector
}

// NewService creates a new wallet ledger service.
func NewService(repo repositories.WalletRepository, cache BalanceCache, config Config, metrics MetricsCollector) Service {
	if repo == nil {
		panic("repo is required")
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = DefaultRetryBackoff
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}

	return &service{
		repo:    repo,
		cache:   cache,
		config:  config,
		metrics: metrics,
	}
}

func (s *service) GetBalance(ctx context.Context, userID uint, currency string) (*models.WalletBalance, error) {
	if !models.IsValidCurrency(currency) {
		return nil, ErrInvalidCurrency
	}

	if s.cache != nil {
		if wallet, ok := s.cache.GetWalletBalance(ctx, userID, currency); ok {
			s.metrics.RecordCacheHit(WalletCachePrefix + currency)
			return wallet, nil
		}
		s.metrics.RecordCacheMiss(WalletCachePrefix + currency)
	}

	wallet, err := s.repo.GetOrCreate(ctx, userID, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	if s.cache != nil {
		s.cache.CacheWalletBalance(ctx, wallet)
	}
	return wallet, nil
}

func (s *service) Debit(ctx context.Context, userID uint, currency string, amount decimal.Decimal, ref Reference) (*models.WalletTransaction, error) {
	return s.apply(ctx, repositories.WalletOperation{
		UserID:        userID,
		Currency:      currency,
		Type:          models.TransactionTypeDebit,
		Amount:        amount,
		Description:   ref.Description,
		ReferenceID:   ref.ID,
		ReferenceType: ref.Type,
	})
}

func (s *service) Credit(ctx context.Context, userID uint, currency string, amount decimal.Decimal, ref Reference) (*models.WalletTransaction, error) {
	return s.apply(ctx, repositories.WalletOperation{
		UserID:        userID,
		Currency:      currency,
		Type:          models.TransactionTypeCredit,
		Amount:        amount,
		Description:   ref.Description,
		ReferenceID:   ref.ID,
		ReferenceType: ref.Type,
	})
}

// apply runs one atomic ledger operation, retrying serialization conflicts
// up to the configured bound before surfacing a conflict error.
func (s *service) apply(ctx context.Context, op repositories.WalletOperation) (*models.WalletTransaction, error) {
	if err := s.validate(op); err != nil {
		s.metrics.RecordError(op.Type, "validation")
		return nil, err
	}

	start := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(op.Type, time.Since(start))
	}()

	var entry *models.WalletTransaction
	var err error
	for attempt := 0; attempt < s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.RetryBackoff * time.Duration(attempt)):
			}
		}

		entry, err = s.repo.Apply(ctx, op)
		if err == nil {
			break
		}
		if !errors.Is(err, repositories.ErrConcurrencyConflict) {
			break
		}
		s.metrics.RecordError(op.Type, "conflict_retry")
	}

	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrInsufficientFunds):
			s.metrics.RecordError(op.Type, "insufficient_balance")
			return nil, ErrInsufficientBalance
		case errors.Is(err, repositories.ErrConcurrencyConflict):
			s.metrics.RecordError(op.Type, "conflict")
			return nil, fmt.Errorf("%w after %d attempts", ErrConflict, s.config.MaxRetries)
		default:
			s.metrics.RecordError(op.Type, "storage")
			return nil, err
		}
	}

	if s.cache != nil {
		s.cache.InvalidateWalletBalance(ctx, op.UserID, op.Currency)
	}

	amt, _ := op.Amount.Float64()
	s.metrics.RecordTransaction(op.Type, op.Currency, amt)

	return entry, nil
}

func (s *service) validate(op repositories.WalletOperation) error {
	if !op.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if op.Amount.Exponent() < -2 {
		return ErrInvalidAmount
	}
	if !models.IsValidCurrency(op.Currency) {
		return ErrInvalidCurrency
	}
	if op.UserID == 0 {
		return ErrInvalidUser
	}
	return nil
}

func (s *service) ListTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter) ([]models.WalletTransaction, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	return s.repo.ListTransactions(ctx, userID, filter)
}
