package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supported wallet currencies. Minor-unit precision is 2 for all of them.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
)

// ValidCurrencies is the currency allow-list.
var ValidCurrencies = []string{CurrencyUSD, CurrencyEUR, CurrencyGBP}

// IsValidCurrency reports whether currency is on the allow-list.
func IsValidCurrency(currency string) bool {
	for _, c := range ValidCurrencies {
		if c == currency {
			return true
		}
	}
	return false
}

// WalletBalance is one row per (user, currency). The balance is never
// negative and always equals the signed sum of the completed ledger entries
// for that key. Rows are created lazily at zero and never deleted.
type WalletBalance struct {
	ID        uint            `gorm:"primarykey" json:"-"`
	UserID    uint            `gorm:"uniqueIndex:idx_wallet_user_currency;not null" json:"user_id"`
	Currency  string          `gorm:"uniqueIndex:idx_wallet_user_currency;type:varchar(3);not null" json:"currency"`
	Balance   decimal.Decimal `gorm:"type:decimal(20,2);not null;default:0" json:"balance"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"updated_at"`
}
