package gateway

import (
	"context"
	"errors"
	"fmt"

	"pavo/internal/models"
	"pavo/internal/services/wallet"
)

// WalletStrategy settles against the stored wallet balance through the
// ledger service. The only strategy that is fully synchronous end-to-end.
type WalletStrategy struct {
	ledger wallet.Service
}

// NewWalletStrategy creates the wallet settlement strategy.
func NewWalletStrategy(ledger wallet.Service) *WalletStrategy {
	if ledger == nil {
		panic("ledger is required")
	}
	return &WalletStrategy{ledger: ledger}
}

func (s *WalletStrategy) Initiate(ctx context.Context, req Request) (Outcome, error) {
	entry, err := s.ledger.Debit(ctx, req.UserID, req.Currency, req.Amount, wallet.Reference{
		ID:          req.PaymentID,
		Type:        models.ReferenceTypePayment,
		Description: fmt.Sprintf("wallet payment %s", req.PaymentID),
	})
	if err != nil {
		if errors.Is(err, wallet.ErrInsufficientBalance) {
			return Outcome{
				Status:        models.PaymentStatusFailed,
				FailureReason: "insufficient wallet balance",
			}, err
		}
		return Outcome{}, err
	}

	return completedOutcome(entry.ID), nil
}
