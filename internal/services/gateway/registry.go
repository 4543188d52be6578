package gateway

import (
	"pavo/internal/config"
	"pavo/internal/models"
	"pavo/internal/services/wallet"
)

// BuildRegistry wires every settlement method to its strategy. Adding a
// settlement method is a closed, reviewable change here.
func BuildRegistry(creds config.GatewayCredentials, ledger wallet.Service, verifier Verifier) *Registry {
	if verifier == nil {
		verifier = NewChainVerifier(creds)
	}

	r := NewRegistry()
	r.Register(models.PaymentMethodCard, NewCardStrategy(creds))
	r.Register(models.PaymentMethodWallet, NewWalletStrategy(ledger))
	r.Register(models.PaymentMethodStablecoin, NewStablecoinStrategy(verifier))
	r.Register(models.PaymentMethodWesternUnion, NewRemittanceStrategy(models.PaymentMethodWesternUnion, creds))
	r.Register(models.PaymentMethodMoneyGram, NewRemittanceStrategy(models.PaymentMethodMoneyGram, creds))
	r.Register(models.PaymentMethodBankWire, NewRemittanceStrategy(models.PaymentMethodBankWire, creds))
	return r
}
