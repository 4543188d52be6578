package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperr "pavo/internal/errors"
	"pavo/internal/models"
	"pavo/internal/repositories"
	"pavo/internal/services/gateway"
	"pavo/internal/services/wallet"
	"pavo/internal/validation"

	"github.com/google/uuid"
)

// DefaultInitiateTimeout bounds a single gateway initiate call.
const DefaultInitiateTimeout = 15 * time.Second

// Deps are the collaborators of the payment service.
type Deps struct {
	Payments repositories.PaymentRepository
	Bookings repositories.BookingRepository
	Audits   repositories.AuditRepository
	Ledger   wallet.Service
	Registry *gateway.Registry

	// Optional. Cache short-circuits idempotent retries, Notifier gets
	// lifecycle events, Metrics gets counters and timings.
	Cache    IdempotencyCache
	Notifier Notifier
	Metrics  MetricsCollector

	InitiateTimeout time.Duration
}

type service struct {
	deps Deps
}

// NewService creates the payment service.
func NewService(deps Deps) Service {
	if deps.Payments == nil || deps.Bookings == nil || deps.Audits == nil {
		panic("payment: repositories are required")
	}
	if deps.Ledger == nil || deps.Registry == nil {
		panic("payment: ledger and gateway registry are required")
	}
	if deps.Notifier == nil {
		deps.Notifier = noopNotifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = NoopMetricsCollector{}
	}
	if deps.InitiateTimeout <= 0 {
		deps.InitiateTimeout = DefaultInitiateTimeout
	}
	return &service{deps: deps}
}

func (s *service) Create(ctx context.Context, actor Actor, req *models.CreatePaymentRequest) (*models.Payment, error) {
	v := validation.New()
	v.Payment(req)
	if !v.Valid() {
		return nil, apperr.Validation(v.Summary())
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.NewString()
	} else if existing, ok := s.replay(ctx, req.IdempotencyKey); ok {
		// Replays are scoped to the submitter; a key reused by another
		// account must not leak the original record.
		if existing.UserID != actor.UserID {
			return nil, apperr.Authorization("idempotency key belongs to another user")
		}
		return existing, nil
	}

	if req.BookingID != nil {
		booking, err := s.deps.Bookings.GetByID(ctx, *req.BookingID)
		if err != nil {
			if errors.Is(err, repositories.ErrBookingNotFound) {
				return nil, apperr.NotFound(fmt.Sprintf("booking %d not found", *req.BookingID))
			}
			return nil, err
		}
		if booking.UserID != actor.UserID {
			return nil, apperr.Authorization("booking belongs to another user")
		}
	}

	p := &models.Payment{
		BookingID:             req.BookingID,
		UserID:                actor.UserID,
		Amount:                req.Amount,
		Currency:              req.Currency,
		Method:                req.Method,
		Status:                models.PaymentStatusPending,
		ExternalReferenceHash: req.ExternalReferenceHash,
		Metadata:              models.NewJSON(req.Metadata),
		IdempotencyKey:        req.IdempotencyKey,
	}

	if err := s.deps.Payments.Create(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrDuplicateIdempotency) {
			// Lost the insert race to a concurrent retry; return its row,
			// subject to the same ownership scope as a cache replay.
			if existing, lookupErr := s.deps.Payments.GetByIdempotencyKey(ctx, req.IdempotencyKey); lookupErr == nil {
				if existing.UserID != actor.UserID {
					return nil, apperr.Authorization("idempotency key belongs to another user")
				}
				return existing, nil
			}
		}
		return nil, err
	}

	if s.deps.Cache != nil {
		// Best effort; the unique index catches what the cache misses.
		_ = s.deps.Cache.CacheIdempotentPayment(ctx, req.IdempotencyKey, p.ID)
	}

	s.audit(ctx, p.ID, actor, "", models.PaymentStatusPending, "payment created")
	s.deps.Notifier.PaymentCreated(ctx, p)

	settleErr := s.settle(ctx, actor, p)
	s.deps.Metrics.RecordPayment(p.Method, p.Status)
	return p, settleErr
}

// settle dispatches to the method's gateway strategy and applies the
// outcome. The payment is persisted in its new state even when the
// attempt failed; the returned error describes why.
func (s *service) settle(ctx context.Context, actor Actor, p *models.Payment) error {
	strategy, err := s.deps.Registry.For(p.Method)
	if err != nil {
		return apperr.Validation(fmt.Sprintf("unsupported settlement method %q", p.Method))
	}

	ictx, cancel := context.WithTimeout(ctx, s.deps.InitiateTimeout)
	defer cancel()

	started := time.Now()
	outcome, initErr := strategy.Initiate(ictx, gateway.Request{
		PaymentID:     p.ID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		ReferenceHash: p.ExternalReferenceHash,
		Metadata:      p.Metadata,
	})
	s.deps.Metrics.RecordSettlementDuration(p.Method, time.Since(started))

	from := p.Status
	if outcome.Status == "" {
		// The strategy produced no verdict (timeout, transport failure).
		// Never guess completed: park the payment for follow-up instead.
		if models.IsRemittanceMethod(p.Method) || p.Method == models.PaymentMethodStablecoin {
			p.Status = models.PaymentStatusAwaitingApproval
		} else {
			p.Status = models.PaymentStatusProcessing
		}
		if initErr != nil {
			p.AdminNotes = fmt.Sprintf("settlement attempt unresolved: %v", initErr)
		}
	} else {
		p.Status = outcome.Status
		if outcome.ExternalTransactionID != "" {
			p.ExternalTransactionID = outcome.ExternalTransactionID
		}
		if outcome.FailureReason != "" {
			p.AdminNotes = outcome.FailureReason
		}
	}

	// A synchronously verified stablecoin transfer settles by crediting
	// the wallet; the wallet strategy already moved funds itself.
	if p.Status == models.PaymentStatusCompleted && p.Method == models.PaymentMethodStablecoin {
		_, creditErr := s.deps.Ledger.Credit(ctx, p.UserID, p.Currency, p.Amount, wallet.Reference{
			ID:          p.ID,
			Type:        models.ReferenceTypePayment,
			Description: "stablecoin settlement",
		})
		if creditErr != nil {
			p.Status = models.PaymentStatusAwaitingApproval
			p.AdminNotes = fmt.Sprintf("transfer verified but ledger credit failed: %v", creditErr)
		}
	}

	if err := s.deps.Payments.Update(ctx, p); err != nil {
		return err
	}
	s.audit(ctx, p.ID, actor, from, p.Status, p.AdminNotes)

	switch p.Status {
	case models.PaymentStatusCompleted:
		s.deps.Notifier.PaymentSettled(ctx, p)
	case models.PaymentStatusFailed:
		s.deps.Notifier.PaymentFailed(ctx, p)
	}

	return s.mapSettlementError(p, initErr)
}

// mapSettlementError translates strategy errors into domain errors. An
// error on an asynchronous path is recorded on the payment but not
// surfaced; the payment is parked, not failed. Ledger contention is the
// exception: a wallet debit has no follow-up channel, so an exhausted
// retry budget must reach the caller even though the payment is parked.
func (s *service) mapSettlementError(p *models.Payment, initErr error) error {
	if initErr == nil {
		return nil
	}
	if errors.Is(initErr, wallet.ErrConflict) {
		return apperr.Conflict("wallet ledger contention, retry the payment")
	}
	if p.Status == models.PaymentStatusAwaitingApproval || p.Status == models.PaymentStatusProcessing {
		return nil
	}
	if errors.Is(initErr, wallet.ErrInsufficientBalance) {
		return apperr.InsufficientBalance()
	}
	if errors.Is(initErr, gateway.ErrInvalidReference) {
		return apperr.Validation("malformed transfer hash")
	}
	var de *apperr.DomainError
	if errors.As(initErr, &de) {
		return initErr
	}
	return apperr.Gateway("", p.AdminNotes, initErr)
}

func (s *service) Get(ctx context.Context, actor Actor, id string) (*models.Payment, error) {
	p, err := s.deps.Payments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrPaymentNotFound) {
			return nil, apperr.NotFound(fmt.Sprintf("payment %s not found", id))
		}
		return nil, err
	}
	if p.UserID != actor.UserID && !actor.IsAdmin() {
		return nil, apperr.Authorization("payment belongs to another user")
	}
	return p, nil
}

func (s *service) List(ctx context.Context, actor Actor, limit, offset int) ([]models.Payment, int64, error) {
	return s.deps.Payments.ListByUser(ctx, actor.UserID, limit, offset)
}

func (s *service) Cancel(ctx context.Context, actor Actor, id, note string) (*models.Payment, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case models.PaymentStatusPending, models.PaymentStatusProcessing:
	case models.PaymentStatusAwaitingApproval:
		return nil, apperr.Validation("payments awaiting approval are decided through the approval endpoint")
	default:
		return nil, apperr.StatusImmutable(p.ID)
	}

	if note == "" {
		note = "cancelled by requester"
	}
	from := p.Status
	p.Status = models.PaymentStatusFailed
	p.AdminNotes = note
	if err := s.deps.Payments.Update(ctx, p); err != nil {
		return nil, err
	}

	s.audit(ctx, p.ID, actor, from, p.Status, note)
	s.deps.Notifier.PaymentFailed(ctx, p)
	s.deps.Metrics.RecordPayment(p.Method, p.Status)
	return p, nil
}

func (s *service) Annotate(ctx context.Context, actor Actor, id, notes string, metadata map[string]interface{}) (*models.Payment, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Authorization("admin role required")
	}
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	// Terminal payments stay immutable except for the notes field.
	if metadata != nil && p.IsTerminal() {
		return nil, apperr.StatusImmutable(p.ID)
	}

	if notes != "" {
		p.AdminNotes = notes
	}
	if metadata != nil {
		if p.Metadata == nil {
			p.Metadata = models.JSON{}
		}
		for k, val := range metadata {
			p.Metadata[k] = val
		}
	}
	if err := s.deps.Payments.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// audit appends a state-transition row. Audit writes on the synchronous
// settlement path are best effort; the approval path writes them inside
// its transaction instead.
func (s *service) audit(ctx context.Context, paymentID string, actor Actor, from, to, note string) {
	_ = s.deps.Audits.Append(ctx, &models.AuditLog{
		PaymentID:  paymentID,
		ActorID:    actor.UserID,
		ActorRole:  actor.Role,
		FromStatus: from,
		ToStatus:   to,
		Note:       note,
	})
}

// replay resolves an idempotency key to its original payment, trying the
// cache before the database.
func (s *service) replay(ctx context.Context, key string) (*models.Payment, bool) {
	if s.deps.Cache != nil {
		if id, ok := s.deps.Cache.GetIdempotentPayment(ctx, key); ok {
			if p, err := s.deps.Payments.GetByID(ctx, id); err == nil {
				return p, true
			}
		}
	}
	if p, err := s.deps.Payments.GetByIdempotencyKey(ctx, key); err == nil {
		return p, true
	}
	return nil, false
}

type noopNotifier struct{}

func (noopNotifier) PaymentCreated(context.Context, *models.Payment) {}
func (noopNotifier) PaymentSettled(context.Context, *models.Payment) {}
func (noopNotifier) PaymentFailed(context.Context, *models.Payment)  {}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordPayment(method, status string) {}

func (NoopMetricsCollector) RecordSettlementDuration(method string, d time.Duration) {}
