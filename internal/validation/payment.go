package validation

import (
	"pavo/internal/models"

	"github.com/shopspring/decimal"
)

// String length limits
const (
	MaxDescriptionLength = 500
	MaxReferenceLength   = 100
)

// Payment validates a payment creation request: positive amount at minor-unit
// precision, allow-listed currency, and a known settlement method.
func (v *Validator) Payment(req *models.CreatePaymentRequest) {
	v.Amount("amount", req.Amount)
	v.Currency("currency", req.Currency)
	v.OneOf("method", req.Method, models.ValidPaymentMethods)

	if req.Method == models.PaymentMethodStablecoin {
		v.Required("external_reference_hash", req.ExternalReferenceHash)
	}
	v.MaxLength("idempotency_key", req.IdempotencyKey, MaxReferenceLength)
}

// Amount checks that an amount is strictly positive and does not exceed
// 2 decimal places.
func (v *Validator) Amount(field string, amount decimal.Decimal) {
	v.Check(amount.IsPositive(), field, "must be greater than zero")
	v.Check(amount.Exponent() >= -2, field, "must have at most 2 decimal places")
}

// Currency checks the allow-list.
func (v *Validator) Currency(field, currency string) {
	v.Check(models.IsValidCurrency(currency), field, "must be a supported currency")
}
