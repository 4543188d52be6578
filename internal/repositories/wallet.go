package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pavo/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletOperation describes a single balance mutation plus its ledger entry.
type WalletOperation struct {
	UserID        uint
	Currency      string
	Type          string // models.TransactionTypeCredit or ...Debit
	Amount        decimal.Decimal
	Description   string
	ReferenceID   string
	ReferenceType string
}

// TransactionFilter narrows a ledger listing.
type TransactionFilter struct {
	Type     string
	Currency string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// WalletRepository is the persistence contract for wallet balances and the
// transaction ledger. Apply is the only path that mutates a balance.
type WalletRepository interface {
	GetOrCreate(ctx context.Context, userID uint, currency string) (*models.WalletBalance, error)
	// Apply locks the wallet row, checks sufficiency for debits, writes the
	// new balance and appends the ledger entry as one database transaction.
	Apply(ctx context.Context, op WalletOperation) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, userID uint, filter TransactionFilter) ([]models.WalletTransaction, int64, error)
	WithTx(tx *gorm.DB) WalletRepository
}

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a gorm-backed wallet repository.
func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) WithTx(tx *gorm.DB) WalletRepository {
	return &walletRepository{db: tx}
}

func (r *walletRepository) GetOrCreate(ctx context.Context, userID uint, currency string) (*models.WalletBalance, error) {
	var wallet models.WalletBalance
	err := r.db.WithContext(ctx).
		Where(models.WalletBalance{UserID: userID, Currency: currency}).
		Attrs(models.WalletBalance{Balance: decimal.Zero}).
		FirstOrCreate(&wallet).Error
	if err != nil {
		if isDuplicateKey(err) {
			// Lost the lazy-creation race; the row exists now.
			err = r.db.WithContext(ctx).
				Where("user_id = ? AND currency = ?", userID, currency).
				First(&wallet).Error
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get wallet: %w", err)
		}
	}
	return &wallet, nil
}

func (r *walletRepository) Apply(ctx context.Context, op WalletOperation) (*models.WalletTransaction, error) {
	var entry *models.WalletTransaction

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWallet(tx, op.UserID, op.Currency)
		if err != nil {
			return err
		}

		var newBalance decimal.Decimal
		switch op.Type {
		case models.TransactionTypeDebit:
			if wallet.Balance.LessThan(op.Amount) {
				return ErrInsufficientFunds
			}
			newBalance = wallet.Balance.Sub(op.Amount)
		case models.TransactionTypeCredit:
			newBalance = wallet.Balance.Add(op.Amount)
		default:
			return fmt.Errorf("unsupported operation type: %s", op.Type)
		}

		if err := tx.Model(&models.WalletBalance{}).
			Where("id = ?", wallet.ID).
			Update("balance", newBalance).Error; err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		entry = &models.WalletTransaction{
			UserID:        op.UserID,
			Type:          op.Type,
			Amount:        op.Amount,
			Currency:      op.Currency,
			Description:   op.Description,
			ReferenceID:   op.ReferenceID,
			ReferenceType: op.ReferenceType,
			Status:        models.TransactionStatusCompleted,
			BalanceAfter:  newBalance,
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
		return nil
	})

	if err != nil {
		if isSerializationFailure(err) {
			return nil, ErrConcurrencyConflict
		}
		return nil, err
	}
	return entry, nil
}

// lockWallet takes a row-level lock on the (user, currency) wallet,
// lazily creating the zero-balance row when absent. Operations on
// different keys lock different rows and do not block each other.
func lockWallet(tx *gorm.DB, userID uint, currency string) (*models.WalletBalance, error) {
	var wallet models.WalletBalance
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND currency = ?", userID, currency).
		First(&wallet).Error
	if err == nil {
		return &wallet, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("failed to lock wallet: %w", err)
	}

	wallet = models.WalletBalance{UserID: userID, Currency: currency, Balance: decimal.Zero}
	if err := tx.Create(&wallet).Error; err != nil {
		if isDuplicateKey(err) {
			// Created concurrently; lock the winner's row.
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("user_id = ? AND currency = ?", userID, currency).
				First(&wallet).Error
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create wallet: %w", err)
		}
	}
	return &wallet, nil
}

func (r *walletRepository) ListTransactions(ctx context.Context, userID uint, filter TransactionFilter) ([]models.WalletTransaction, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.WalletTransaction{}).Where("user_id = ?", userID)

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Currency != "" {
		q = q.Where("currency = ?", filter.Currency)
	}
	if filter.From != nil {
		q = q.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("created_at < ?", *filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	var txs []models.WalletTransaction
	err := q.Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, total, nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if err == gorm.ErrDuplicatedKey {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "SQLSTATE 23505")
}

func isSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "could not serialize") ||
		strings.Contains(msg, "deadlock detected") ||
		strings.Contains(msg, "SQLSTATE 40001") ||
		strings.Contains(msg, "SQLSTATE 40P01")
}
