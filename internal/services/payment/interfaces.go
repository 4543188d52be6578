package payment

import (
	"context"
	"time"

	"pavo/internal/models"
)

// Actor identifies the caller of a payment operation.
type Actor struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == "admin"
}

// Service drives the payment lifecycle from creation through settlement.
// Approval and refund of settled payments live in the approval package.
type Service interface {
	// Create validates the request, inserts a pending payment and
	// immediately attempts settlement through the method's gateway
	// strategy. Retrying with the same idempotency key returns the
	// original payment without creating or settling a second one.
	// When settlement fails the persisted record is returned alongside
	// the settlement error.
	Create(ctx context.Context, actor Actor, req *models.CreatePaymentRequest) (*models.Payment, error)

	// Get returns a payment the actor owns, or any payment for admins.
	Get(ctx context.Context, actor Actor, id string) (*models.Payment, error)

	// List returns the actor's payments, newest first.
	List(ctx context.Context, actor Actor, limit, offset int) ([]models.Payment, int64, error)

	// Cancel narrows a pending or processing payment to failed. Only
	// the owner or an admin may cancel; terminal payments are rejected.
	Cancel(ctx context.Context, actor Actor, id, note string) (*models.Payment, error)

	// Annotate lets an admin attach notes and metadata to any payment,
	// including terminal ones. It never touches status.
	Annotate(ctx context.Context, actor Actor, id, notes string, metadata map[string]interface{}) (*models.Payment, error)
}

// Notifier receives fire-and-forget payment lifecycle events. Delivery
// failures are logged by the implementation, never surfaced to callers.
type Notifier interface {
	PaymentCreated(ctx context.Context, p *models.Payment)
	PaymentSettled(ctx context.Context, p *models.Payment)
	PaymentFailed(ctx context.Context, p *models.Payment)
}

// IdempotencyCache short-circuits duplicate creates before they hit the
// database. The unique index on idempotency_key remains the source of truth.
type IdempotencyCache interface {
	GetIdempotentPayment(ctx context.Context, key string) (string, bool)
	CacheIdempotentPayment(ctx context.Context, key, paymentID string) error
}

// MetricsCollector defines the interface for collecting payment metrics.
type MetricsCollector interface {
	RecordPayment(method, status string)
	RecordSettlementDuration(method string, duration time.Duration)
}
