// Package gateway holds the per-method settlement strategies. Each strategy
// knows how to initiate settlement with its external rail; none of them
// touch the payment record or, with the exception of the wallet strategy's
// ledger debit, move money themselves.
package gateway

import (
	"context"

	"pavo/internal/models"

	"github.com/shopspring/decimal"
)

// Request carries the settlement attempt into a strategy.
type Request struct {
	PaymentID     string
	UserID        uint
	Amount        decimal.Decimal
	Currency      string
	ReferenceHash string
	Metadata      map[string]interface{}
}

// Outcome is a strategy's verdict. Status is the payment status the attempt
// should move to: completed, processing, awaiting_approval or failed.
type Outcome struct {
	Status                string
	ExternalTransactionID string
	FailureReason         string
}

// Strategy initiates settlement for one method.
type Strategy interface {
	Initiate(ctx context.Context, req Request) (Outcome, error)
}

// Registry is the closed set of strategies, keyed by settlement method.
// Adding a method means registering a strategy here.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register binds a strategy to a method.
func (r *Registry) Register(method string, s Strategy) {
	r.strategies[method] = s
}

// For returns the strategy for a method.
func (r *Registry) For(method string) (Strategy, error) {
	s, ok := r.strategies[method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	return s, nil
}

// Methods lists the registered methods.
func (r *Registry) Methods() []string {
	out := make([]string, 0, len(r.strategies))
	for m := range r.strategies {
		out = append(out, m)
	}
	return out
}

// completedOutcome is shared by the synchronous strategies.
func completedOutcome(externalID string) Outcome {
	return Outcome{Status: models.PaymentStatusCompleted, ExternalTransactionID: externalID}
}
