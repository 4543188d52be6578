package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Payment statuses
const (
	PaymentStatusPending          = "pending"
	PaymentStatusProcessing       = "processing"
	PaymentStatusAwaitingApproval = "awaiting_approval"
	PaymentStatusCompleted        = "completed"
	PaymentStatusFailed           = "failed"
	PaymentStatusRefunded         = "refunded"
)

// Settlement methods
const (
	PaymentMethodCard         = "card"
	PaymentMethodWallet       = "wallet"
	PaymentMethodStablecoin   = "stablecoin"
	PaymentMethodWesternUnion = "western_union"
	PaymentMethodMoneyGram    = "moneygram"
	PaymentMethodBankWire     = "bank_wire"
)

// Payment is one settlement attempt. A payment that leaves pending is never
// hard-deleted; terminal payments are immutable except for AdminNotes.
type Payment struct {
	ID                    string          `gorm:"type:uuid;primarykey" json:"id"`
	BookingID             *uint           `gorm:"index" json:"booking_id,omitempty"`
	UserID                uint            `gorm:"index;not null" json:"user_id"`
	Amount                decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	Currency              string          `gorm:"type:varchar(3);not null" json:"currency"`
	Method                string          `gorm:"type:varchar(32);not null" json:"method"`
	Status                string          `gorm:"type:varchar(32);not null;default:'pending';index" json:"status"`
	ExternalTransactionID string          `json:"external_transaction_id,omitempty"`
	ExternalReferenceHash string          `json:"external_reference_hash,omitempty"`
	AdminNotes            string          `json:"admin_notes,omitempty"`
	Metadata              JSON            `gorm:"type:jsonb" json:"metadata,omitempty"`
	IdempotencyKey        string          `gorm:"uniqueIndex;not null" json:"idempotency_key"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = PaymentStatusPending
	}
	return nil
}

// IsTerminal reports whether the payment can no longer change state.
// Refund is the one admin-triggered exception out of completed.
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// IsRemittanceMethod reports whether the method belongs to the
// manual-remittance family. These always settle through operator approval.
func IsRemittanceMethod(method string) bool {
	switch method {
	case PaymentMethodWesternUnion, PaymentMethodMoneyGram, PaymentMethodBankWire:
		return true
	}
	return false
}

// ValidPaymentMethods is the closed set of settlement methods.
var ValidPaymentMethods = []string{
	PaymentMethodCard,
	PaymentMethodWallet,
	PaymentMethodStablecoin,
	PaymentMethodWesternUnion,
	PaymentMethodMoneyGram,
	PaymentMethodBankWire,
}

// CreatePaymentRequest is the payload for POST /api/payments.
type CreatePaymentRequest struct {
	BookingID             *uint                  `json:"booking_id,omitempty"`
	Amount                decimal.Decimal        `json:"amount"`
	Currency              string                 `json:"currency"`
	Method                string                 `json:"method"`
	ExternalReferenceHash string                 `json:"external_reference_hash,omitempty"`
	IdempotencyKey        string                 `json:"idempotency_key,omitempty"`
	Metadata              map[string]interface{} `json:"metadata,omitempty"`
}
