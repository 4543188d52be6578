package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"

	"pavo/internal/config"
	apperr "pavo/internal/errors"
	"pavo/internal/models"

	"github.com/shopspring/decimal"
)

// transferHashPattern is the syntactic shape of an EVM transaction hash.
var transferHashPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)

// Verifier confirms a stablecoin transfer against the chain. Confirmation
// may lag the transfer, so "not confirmed" is not an error.
type Verifier interface {
	VerifyTransfer(ctx context.Context, hash string, amount decimal.Decimal, currency string) (bool, error)
}

// StablecoinStrategy validates the supplied proof-of-transfer hash and asks
// the verifier to confirm it. A well-formed but unconfirmed transfer parks
// the payment for manual or later external confirmation.
type StablecoinStrategy struct {
	verifier Verifier
}

// NewStablecoinStrategy creates the stablecoin settlement strategy.
func NewStablecoinStrategy(verifier Verifier) *StablecoinStrategy {
	if verifier == nil {
		panic("verifier is required")
	}
	return &StablecoinStrategy{verifier: verifier}
}

func (s *StablecoinStrategy) Initiate(ctx context.Context, req Request) (Outcome, error) {
	if !transferHashPattern.MatchString(req.ReferenceHash) {
		return Outcome{
			Status:        models.PaymentStatusFailed,
			FailureReason: "malformed transfer hash",
		}, ErrInvalidReference
	}

	confirmed, err := s.verifier.VerifyTransfer(ctx, req.ReferenceHash, req.Amount, req.Currency)
	if err != nil {
		// Verification unavailable is not a settlement failure; park the
		// payment for manual resolution and record the cause.
		return Outcome{
			Status:                models.PaymentStatusAwaitingApproval,
			ExternalTransactionID: req.ReferenceHash,
			FailureReason:         fmt.Sprintf("verifier error: %v", err),
		}, nil
	}

	if !confirmed {
		return Outcome{
			Status:                models.PaymentStatusAwaitingApproval,
			ExternalTransactionID: req.ReferenceHash,
		}, nil
	}

	return completedOutcome(req.ReferenceHash), nil
}

// ChainVerifier confirms transfers against an external chain verification
// service over HTTP.
type ChainVerifier struct {
	url    string
	apiKey string
	client *http.Client
}

// NewChainVerifier creates an HTTP-backed verifier from gateway credentials.
func NewChainVerifier(creds config.GatewayCredentials) *ChainVerifier {
	return &ChainVerifier{
		url:    creds.ChainVerifierURL,
		apiKey: creds.ChainVerifierKey,
		client: &http.Client{Timeout: creds.InitiateTimeout},
	}
}

func (v *ChainVerifier) VerifyTransfer(ctx context.Context, hash string, amount decimal.Decimal, currency string) (bool, error) {
	if v.url == "" {
		// No verifier configured; every transfer goes to manual approval.
		return false, nil
	}

	body, err := json.Marshal(map[string]string{
		"hash":     hash,
		"amount":   amount.StringFixed(2),
		"currency": currency,
	})
	if err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.url+"/v1/transfers/verify", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return false, apperr.Gateway("chain_unavailable", "chain verifier unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, apperr.Gateway("chain_error", fmt.Sprintf("chain verifier returned %d", resp.StatusCode), nil)
	}

	var out struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	return out.Confirmed, nil
}
