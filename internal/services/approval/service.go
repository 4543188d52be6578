// Package approval drives operator decisions over payments that settle
// asynchronously. A decision fans out to the payment record, the linked
// booking and the wallet ledger in one database transaction: either every
// effect is durable or none is.
package approval

import (
	"context"
	"errors"
	"fmt"

	apperr "pavo/internal/errors"
	"pavo/internal/models"
	"pavo/internal/repositories"
	"pavo/internal/services/payment"

	"gorm.io/gorm"
)

// Decisions an operator can take on a payment awaiting approval.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Service is the operator-facing decision contract.
type Service interface {
	// Decide approves or rejects a payment in awaiting_approval.
	// Approval completes the payment, confirms the linked booking and
	// credits the wallet ledger; rejection fails the payment. Deciding
	// a terminal payment returns AlreadyDecided without re-applying
	// any effect.
	Decide(ctx context.Context, operator payment.Actor, paymentID, decision, notes string) (*models.Payment, error)

	// Refund reverses a completed payment: the ledger effect is undone
	// with a refund-tagged entry and the payment moves to refunded. The
	// original ledger rows are never touched.
	Refund(ctx context.Context, operator payment.Actor, paymentID, notes string) (*models.Payment, error)
}

// txRunner runs a function inside one database transaction. Seam for
// tests; production uses gorm's Transaction.
type txRunner interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormRunner struct {
	db *gorm.DB
}

func (r gormRunner) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type service struct {
	runner   txRunner
	payments repositories.PaymentRepository
	bookings repositories.BookingRepository
	wallets  repositories.WalletRepository
	audits   repositories.AuditRepository
	notifier payment.Notifier
	metrics  payment.MetricsCollector
}

// NewService creates the approval service. Notifier and metrics may be nil.
func NewService(
	db *gorm.DB,
	payments repositories.PaymentRepository,
	bookings repositories.BookingRepository,
	wallets repositories.WalletRepository,
	audits repositories.AuditRepository,
	notifier payment.Notifier,
	metrics payment.MetricsCollector,
) Service {
	if db == nil {
		panic("approval: db is required")
	}
	if metrics == nil {
		metrics = payment.NoopMetricsCollector{}
	}
	return &service{
		runner:   gormRunner{db: db},
		payments: payments,
		bookings: bookings,
		wallets:  wallets,
		audits:   audits,
		notifier: notifier,
		metrics:  metrics,
	}
}

func (s *service) Decide(ctx context.Context, operator payment.Actor, paymentID, decision, notes string) (*models.Payment, error) {
	if !operator.IsAdmin() {
		return nil, apperr.Authorization("admin role required")
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, apperr.Validation(fmt.Sprintf("decision must be %s or %s", DecisionApprove, DecisionReject))
	}

	var decided *models.Payment
	err := s.runner.Transaction(ctx, func(tx *gorm.DB) error {
		payments := s.payments.WithTx(tx)

		p, err := payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, repositories.ErrPaymentNotFound) {
				return apperr.NotFound(fmt.Sprintf("payment %s not found", paymentID))
			}
			return err
		}
		if p.Status != models.PaymentStatusAwaitingApproval {
			if p.IsTerminal() {
				return apperr.AlreadyDecided(p.ID)
			}
			return apperr.Validation("payment is not awaiting approval")
		}

		from := p.Status
		switch decision {
		case DecisionApprove:
			if p.BookingID != nil {
				if err := s.bookings.WithTx(tx).UpdateStatus(ctx, *p.BookingID, models.BookingStatusConfirmed); err != nil {
					return err
				}
			}
			if _, err := s.wallets.WithTx(tx).Apply(ctx, repositories.WalletOperation{
				UserID:        p.UserID,
				Currency:      p.Currency,
				Type:          models.TransactionTypeCredit,
				Amount:        p.Amount,
				Description:   "settlement approved by operator",
				ReferenceID:   p.ID,
				ReferenceType: models.ReferenceTypePayment,
			}); err != nil {
				return err
			}
			p.Status = models.PaymentStatusCompleted
		case DecisionReject:
			p.Status = models.PaymentStatusFailed
			if notes == "" {
				notes = "rejected by operator"
			}
		}
		if notes != "" {
			p.AdminNotes = notes
		}

		if err := payments.Update(ctx, p); err != nil {
			return err
		}
		if err := s.audits.WithTx(tx).Append(ctx, &models.AuditLog{
			PaymentID:  p.ID,
			ActorID:    operator.UserID,
			ActorRole:  operator.Role,
			FromStatus: from,
			ToStatus:   p.Status,
			Note:       notes,
		}); err != nil {
			return err
		}

		decided = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, decided)
	s.metrics.RecordPayment(decided.Method, decided.Status)
	return decided, nil
}

func (s *service) Refund(ctx context.Context, operator payment.Actor, paymentID, notes string) (*models.Payment, error) {
	if !operator.IsAdmin() {
		return nil, apperr.Authorization("admin role required")
	}

	var refunded *models.Payment
	err := s.runner.Transaction(ctx, func(tx *gorm.DB) error {
		payments := s.payments.WithTx(tx)

		p, err := payments.GetByIDForUpdate(ctx, paymentID)
		if err != nil {
			if errors.Is(err, repositories.ErrPaymentNotFound) {
				return apperr.NotFound(fmt.Sprintf("payment %s not found", paymentID))
			}
			return err
		}
		switch p.Status {
		case models.PaymentStatusCompleted:
		case models.PaymentStatusRefunded:
			return apperr.AlreadyDecided(p.ID)
		default:
			return apperr.Validation("only completed payments can be refunded")
		}

		// A wallet payment debited the user, so the refund credits the
		// amount back. Stablecoin and remittance payments completed by
		// crediting the wallet, so the refund claws that credit back.
		// Card payments settle at the processor and never touched the
		// ledger; their reversal happens gateway-side.
		var reversalType, description string
		switch p.Method {
		case models.PaymentMethodWallet:
			reversalType = models.TransactionTypeCredit
			description = "wallet debit reversed"
		case models.PaymentMethodCard:
		default:
			reversalType = models.TransactionTypeDebit
			description = "settlement credit reversed"
		}
		if reversalType != "" {
			if _, err := s.wallets.WithTx(tx).Apply(ctx, repositories.WalletOperation{
				UserID:        p.UserID,
				Currency:      p.Currency,
				Type:          reversalType,
				Amount:        p.Amount,
				Description:   description,
				ReferenceID:   p.ID,
				ReferenceType: models.ReferenceTypeRefund,
			}); err != nil {
				if errors.Is(err, repositories.ErrInsufficientFunds) {
					return apperr.InsufficientBalance()
				}
				return err
			}
		}

		from := p.Status
		p.Status = models.PaymentStatusRefunded
		if notes != "" {
			p.AdminNotes = notes
		}
		if err := payments.Update(ctx, p); err != nil {
			return err
		}
		if err := s.audits.WithTx(tx).Append(ctx, &models.AuditLog{
			PaymentID:  p.ID,
			ActorID:    operator.UserID,
			ActorRole:  operator.Role,
			FromStatus: from,
			ToStatus:   p.Status,
			Note:       notes,
		}); err != nil {
			return err
		}

		refunded = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPayment(refunded.Method, refunded.Status)
	return refunded, nil
}

func (s *service) notify(ctx context.Context, p *models.Payment) {
	if s.notifier == nil {
		return
	}
	switch p.Status {
	case models.PaymentStatusCompleted:
		s.notifier.PaymentSettled(ctx, p)
	case models.PaymentStatusFailed:
		s.notifier.PaymentFailed(ctx, p)
	}
}
