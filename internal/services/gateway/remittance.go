package gateway

import (
	"context"
	"fmt"
	"time"

	"pavo/internal/config"
	"pavo/internal/models"
)

// RemittanceStrategy covers the manual-remittance family (wire transfers,
// cash pickup). Settlement always waits for an operator to attach evidence
// and approve; initiation only records the intent with the partner.
type RemittanceStrategy struct {
	partner string
	apiKey  string
}

// NewRemittanceStrategy creates a strategy for one remittance partner.
func NewRemittanceStrategy(partner string, creds config.GatewayCredentials) *RemittanceStrategy {
	return &RemittanceStrategy{
		partner: partner,
		apiKey:  creds.RemittanceAPIKeys[partner],
	}
}

func (s *RemittanceStrategy) Initiate(ctx context.Context, req Request) (Outcome, error) {
	// Partner reference for the operator to reconcile against. UUIDs are
	// shortened to their first group; anything shorter is used whole.
	short := req.PaymentID
	if len(short) > 8 {
		short = short[:8]
	}
	ref := fmt.Sprintf("%s-%s-%d", s.partner, short, time.Now().Unix())

	return Outcome{
		Status:                models.PaymentStatusAwaitingApproval,
		ExternalTransactionID: ref,
	}, nil
}
