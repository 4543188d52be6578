package wallet

import "time"

// Retry bounds for serialization conflicts on the wallet row.
const (
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 25 * time.Millisecond
)

// WalletCachePrefix namespaces balance keys in cache metrics.
const WalletCachePrefix = "wallet:"
