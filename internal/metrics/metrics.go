// Package metrics exposes Prometheus instrumentation for the settlement
// core and adapters that satisfy the service-level collector interfaces.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pavo_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pavo_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pavo_payments_total",
			Help: "Payments by settlement method and resulting status",
		},
		[]string{"method", "status"},
	)

	SettlementDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pavo_settlement_duration_seconds",
			Help:    "Gateway initiate call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	WalletOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pavo_wallet_operation_duration_seconds",
			Help:    "Wallet ledger operation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	WalletTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pavo_wallet_transactions_total",
			Help: "Ledger entries appended, by type and currency",
		},
		[]string{"type", "currency"},
	)

	WalletTransactionAmount = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pavo_wallet_transaction_amount",
			Help:    "Ledger entry amounts in major units",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
		},
		[]string{"type", "currency"},
	)

	WalletErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pavo_wallet_errors_total",
			Help: "Wallet ledger errors by operation and kind",
		},
		[]string{"operation", "error"},
	)

	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pavo_cache_hits_total",
			Help: "Cache lookups by key prefix and result",
		},
		[]string{"prefix", "result"},
	)
)

// RecordHTTPRequest records one handled request.
func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// WalletCollector adapts the registry above to the wallet service's
// collector interface.
type WalletCollector struct{}

func (WalletCollector) RecordOperationDuration(operation string, duration time.Duration) {
	WalletOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (WalletCollector) RecordTransaction(txType, currency string, amount float64) {
	WalletTransactionsTotal.WithLabelValues(txType, currency).Inc()
	WalletTransactionAmount.WithLabelValues(txType, currency).Observe(amount)
}

func (WalletCollector) RecordError(operation, errType string) {
	WalletErrorsTotal.WithLabelValues(operation, errType).Inc()
}

func (WalletCollector) RecordCacheHit(key string) {
	CacheHitsTotal.WithLabelValues(key, "hit").Inc()
}

func (WalletCollector) RecordCacheMiss(key string) {
	CacheHitsTotal.WithLabelValues(key, "miss").Inc()
}

// PaymentCollector adapts the registry above to the payment service's
// collector interface.
type PaymentCollector struct{}

func (PaymentCollector) RecordPayment(method, status string) {
	PaymentsTotal.WithLabelValues(method, status).Inc()
}

func (PaymentCollector) RecordSettlementDuration(method string, duration time.Duration) {
	SettlementDuration.WithLabelValues(method).Observe(duration.Seconds())
}
