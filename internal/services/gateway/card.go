package gateway

import (
	"context"
	"fmt"

	"pavo/internal/config"
	apperr "pavo/internal/errors"
	"pavo/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
)

// CardStrategy creates a charge intent with the card processor. The
// processor confirms asynchronously through its webhook path, so a
// successful initiation leaves the payment in processing.
type CardStrategy struct {
	createIntent func(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// NewCardStrategy configures the card processor client. Credentials are
// loaded once at startup and never mutated during a request.
func NewCardStrategy(creds config.GatewayCredentials) *CardStrategy {
	stripe.Key = creds.StripeSecretKey
	return &CardStrategy{createIntent: paymentintent.New}
}

func (s *CardStrategy) Initiate(ctx context.Context, req Request) (Outcome, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(req.Amount)),
		Currency: stripe.String(req.Currency),
	}
	params.Context = ctx
	params.AddMetadata("payment_id", req.PaymentID)

	intent, err := s.createIntent(params)
	if err != nil {
		if stripeErr, ok := err.(*stripe.Error); ok {
			// Synchronous rejection: the attempt is definitively failed.
			return Outcome{
				Status:        models.PaymentStatusFailed,
				FailureReason: fmt.Sprintf("card declined: %s", stripeErr.Code),
			}, apperr.Gateway(string(stripeErr.Code), "card processor rejected the charge", err)
		}
		return Outcome{}, apperr.Gateway("card_unavailable", "card processor unreachable", err)
	}

	return Outcome{
		Status:                models.PaymentStatusProcessing,
		ExternalTransactionID: intent.ID,
	}, nil
}

// minorUnits converts an exact decimal amount to the processor's integer
// minor units (cents for the currencies in scope).
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).IntPart()
}
