package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ledger entry types
const (
	TransactionTypeCredit = "credit"
	TransactionTypeDebit  = "debit"
)

// Ledger entry statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusReversed  = "reversed"
)

// Reference types linking a ledger entry back to its originating action.
const (
	ReferenceTypePayment = "payment"
	ReferenceTypeRefund  = "refund"
	ReferenceTypeTopUp   = "top_up"
)

// WalletTransaction is an append-only ledger entry. Once completed, the row
// is immutable and exactly one balance mutation has occurred for it.
type WalletTransaction struct {
	ID            string          `gorm:"type:uuid;primarykey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	Type          string          `gorm:"type:varchar(16);not null" json:"type"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(3);not null" json:"currency"`
	Description   string          `json:"description,omitempty"`
	ReferenceID   string          `gorm:"index" json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
	Status        string          `gorm:"type:varchar(16);not null;default:'completed'" json:"status"`
	BalanceAfter  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"balance_after"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
