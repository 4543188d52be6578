package approval

import (
	"context"
	"sync"
	"testing"

	apperr "pavo/internal/errors"
	"pavo/internal/models"
	"pavo/internal/repositories"
	"pavo/internal/services/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeRunner struct{}

func (fakeRunner) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakePaymentRepo struct {
	mu   sync.Mutex
	byID map[string]*models.Payment
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byID: make(map[string]*models.Payment)}
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) get(id string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	return f.get(id)
}

func (f *fakePaymentRepo) GetByIDForUpdate(ctx context.Context, id string) (*models.Payment, error) {
	return f.get(id)
}

func (f *fakePaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	return nil, repositories.ErrPaymentNotFound
}

func (f *fakePaymentRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Payment, int64, error) {
	return nil, 0, nil
}

func (f *fakePaymentRepo) Update(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) WithTx(tx *gorm.DB) repositories.PaymentRepository { return f }

type fakeBookingRepo struct {
	bookings map[uint]*models.Booking
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, repositories.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, id uint, status string) error {
	b, ok := f.bookings[id]
	if !ok {
		return repositories.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

func (f *fakeBookingRepo) WithTx(tx *gorm.DB) repositories.BookingRepository { return f }

type fakeWalletRepo struct {
	mu      sync.Mutex
	balance decimal.Decimal
	entries []models.WalletTransaction
}

func (f *fakeWalletRepo) GetOrCreate(ctx context.Context, userID uint, currency string) (*models.WalletBalance, error) {
	return &models.WalletBalance{UserID: userID, Currency: currency, Balance: f.balance}, nil
}

func (f *fakeWalletRepo) Apply(ctx context.Context, op repositories.WalletOperation) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newBal decimal.Decimal
	if op.Type == models.TransactionTypeDebit {
		newBal = f.balance.Sub(op.Amount)
		if newBal.IsNegative() {
			return nil, repositories.ErrInsufficientFunds
		}
	} else {
		newBal = f.balance.Add(op.Amount)
	}
	f.balance = newBal
	entry := models.WalletTransaction{
		ID:            uuid.NewString(),
		UserID:        op.UserID,
		Type:          op.Type,
		Amount:        op.Amount,
		Currency:      op.Currency,
		Status:        models.TransactionStatusCompleted,
		BalanceAfter:  newBal,
		ReferenceID:   op.ReferenceID,
		ReferenceType: op.ReferenceType,
	}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *fakeWalletRepo) ListTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter) ([]models.WalletTransaction, int64, error) {
	return f.entries, int64(len(f.entries)), nil
}

func (f *fakeWalletRepo) WithTx(tx *gorm.DB) repositories.WalletRepository { return f }

type fakeAuditRepo struct {
	entries []models.AuditLog
}

func (f *fakeAuditRepo) Append(ctx context.Context, entry *models.AuditLog) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByPayment(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	return f.entries, nil
}

func (f *fakeAuditRepo) WithTx(tx *gorm.DB) repositories.AuditRepository { return f }

type fixture struct {
	payments *fakePaymentRepo
	bookings *fakeBookingRepo
	wallets  *fakeWalletRepo
	audits   *fakeAuditRepo
	service  Service
}

func newFixture() *fixture {
	payments := newFakePaymentRepo()
	bookings := &fakeBookingRepo{bookings: map[uint]*models.Booking{
		7: {ID: 7, UserID: 1, Status: models.BookingStatusPending},
	}}
	wallets := &fakeWalletRepo{balance: decimal.Zero}
	audits := &fakeAuditRepo{}

	svc := &service{
		runner:   fakeRunner{},
		payments: payments,
		bookings: bookings,
		wallets:  wallets,
		audits:   audits,
		metrics:  payment.NoopMetricsCollector{},
	}
	return &fixture{payments: payments, bookings: bookings, wallets: wallets, audits: audits, service: svc}
}

var operator = payment.Actor{UserID: 42, Role: "admin"}

func seedPayment(fx *fixture, status, method string, bookingID *uint) *models.Payment {
	p := &models.Payment{
		UserID:         1,
		BookingID:      bookingID,
		Amount:         decimal.RequireFromString("25.00"),
		Currency:       models.CurrencyUSD,
		Method:         method,
		Status:         status,
		IdempotencyKey: uuid.NewString(),
	}
	_ = fx.payments.Create(context.Background(), p)
	return p
}

func TestDecideApprove(t *testing.T) {
	fx := newFixture()
	bookingID := uint(7)
	p := seedPayment(fx, models.PaymentStatusAwaitingApproval, models.PaymentMethodWesternUnion, &bookingID)

	decided, err := fx.service.Decide(context.Background(), operator, p.ID, DecisionApprove, "evidence attached")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusCompleted, decided.Status)
	assert.Equal(t, models.BookingStatusConfirmed, fx.bookings.bookings[7].Status)
	assert.True(t, fx.wallets.balance.Equal(decimal.RequireFromString("25.00")))

	require.Len(t, fx.wallets.entries, 1)
	entry := fx.wallets.entries[0]
	assert.Equal(t, models.TransactionTypeCredit, entry.Type)
	assert.Equal(t, p.ID, entry.ReferenceID)

	require.Len(t, fx.audits.entries, 1)
	assert.Equal(t, models.PaymentStatusAwaitingApproval, fx.audits.entries[0].FromStatus)
	assert.Equal(t, models.PaymentStatusCompleted, fx.audits.entries[0].ToStatus)
}

func TestDecideReject(t *testing.T) {
	fx := newFixture()
	p := seedPayment(fx, models.PaymentStatusAwaitingApproval, models.PaymentMethodWesternUnion, nil)

	decided, err := fx.service.Decide(context.Background(), operator, p.ID, DecisionReject, "")
	require.NoError(t, err)

	assert.Equal(t, models.PaymentStatusFailed, decided.Status)
	assert.Equal(t, "rejected by operator", decided.AdminNotes)
	assert.Empty(t, fx.wallets.entries)
}

func TestDecideIdempotent(t *testing.T) {
	fx := newFixture()
	p := seedPayment(fx, models.PaymentStatusAwaitingApproval, models.PaymentMethodWesternUnion, nil)

	_, err := fx.service.Decide(context.Background(), operator, p.ID, DecisionApprove, "")
	require.NoError(t, err)

	// The second decision is a detectable no-op: the credit applies once.
	_, err = fx.service.Decide(context.Background(), operator, p.ID, DecisionApprove, "")
	assert.Equal(t, apperr.CodeAlreadyDecided, apperr.CodeOf(err))
	assert.Len(t, fx.wallets.entries, 1)
	assert.True(t, fx.wallets.balance.Equal(decimal.RequireFromString("25.00")))
}

func TestDecideGuards(t *testing.T) {
	fx := newFixture()
	p := seedPayment(fx, models.PaymentStatusAwaitingApproval, models.PaymentMethodWesternUnion, nil)
	pending := seedPayment(fx, models.PaymentStatusPending, models.PaymentMethodWesternUnion, nil)
	ctx := context.Background()

	t.Run("non-admin", func(t *testing.T) {
		_, err := fx.service.Decide(ctx, payment.Actor{UserID: 1, Role: "user"}, p.ID, DecisionApprove, "")
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("unknown decision", func(t *testing.T) {
		_, err := fx.service.Decide(ctx, operator, p.ID, "defer", "")
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})

	t.Run("missing payment", func(t *testing.T) {
		_, err := fx.service.Decide(ctx, operator, uuid.NewString(), DecisionApprove, "")
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("not awaiting approval", func(t *testing.T) {
		_, err := fx.service.Decide(ctx, operator, pending.ID, DecisionApprove, "")
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})

	assert.Empty(t, fx.wallets.entries)
}

func TestRefundWalletPayment(t *testing.T) {
	fx := newFixture()
	p := seedPayment(fx, models.PaymentStatusCompleted, models.PaymentMethodWallet, nil)

	refunded, err := fx.service.Refund(context.Background(), operator, p.ID, "customer request")
	require.NoError(t, err)

	// The original debit is reversed by a credit; balance goes up.
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	assert.True(t, fx.wallets.balance.Equal(decimal.RequireFromString("25.00")))

	require.Len(t, fx.wallets.entries, 1)
	entry := fx.wallets.entries[0]
	assert.Equal(t, models.TransactionTypeCredit, entry.Type)
	assert.Equal(t, models.ReferenceTypeRefund, entry.ReferenceType)
	assert.Equal(t, p.ID, entry.ReferenceID)
}

func TestRefundCreditedPayment(t *testing.T) {
	fx := newFixture()
	fx.wallets.balance = decimal.RequireFromString("25.00")
	p := seedPayment(fx, models.PaymentStatusCompleted, models.PaymentMethodWesternUnion, nil)

	refunded, err := fx.service.Refund(context.Background(), operator, p.ID, "")
	require.NoError(t, err)

	// The settlement credit is clawed back.
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	assert.True(t, fx.wallets.balance.IsZero())
	require.Len(t, fx.wallets.entries, 1)
	assert.Equal(t, models.TransactionTypeDebit, fx.wallets.entries[0].Type)
}

func TestRefundCardPayment(t *testing.T) {
	fx := newFixture()
	p := seedPayment(fx, models.PaymentStatusCompleted, models.PaymentMethodCard, nil)

	refunded, err := fx.service.Refund(context.Background(), operator, p.ID, "chargeback")
	require.NoError(t, err)

	// Card settlement never credited the wallet, so the refund must not
	// debit it either; the money moves at the processor.
	assert.Equal(t, models.PaymentStatusRefunded, refunded.Status)
	assert.Empty(t, fx.wallets.entries)
	assert.True(t, fx.wallets.balance.IsZero())

	require.Len(t, fx.audits.entries, 1)
	assert.Equal(t, models.PaymentStatusRefunded, fx.audits.entries[0].ToStatus)
}

func TestRefundGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("only completed payments", func(t *testing.T) {
		fx := newFixture()
		p := seedPayment(fx, models.PaymentStatusAwaitingApproval, models.PaymentMethodWesternUnion, nil)
		_, err := fx.service.Refund(ctx, operator, p.ID, "")
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})

	t.Run("double refund", func(t *testing.T) {
		fx := newFixture()
		p := seedPayment(fx, models.PaymentStatusCompleted, models.PaymentMethodWallet, nil)
		_, err := fx.service.Refund(ctx, operator, p.ID, "")
		require.NoError(t, err)

		_, err = fx.service.Refund(ctx, operator, p.ID, "")
		assert.Equal(t, apperr.CodeAlreadyDecided, apperr.CodeOf(err))
		assert.Len(t, fx.wallets.entries, 1)
	})

	t.Run("claw-back exceeding balance", func(t *testing.T) {
		fx := newFixture()
		p := seedPayment(fx, models.PaymentStatusCompleted, models.PaymentMethodWesternUnion, nil)
		_, err := fx.service.Refund(ctx, operator, p.ID, "")
		assert.Equal(t, apperr.CodeInsufficientBalance, apperr.CodeOf(err))

		// Payment unchanged; refund did not half-apply.
		stored, getErr := fx.payments.GetByID(ctx, p.ID)
		require.NoError(t, getErr)
		assert.Equal(t, models.PaymentStatusCompleted, stored.Status)
	})

	t.Run("non-admin", func(t *testing.T) {
		fx := newFixture()
		p := seedPayment(fx, models.PaymentStatusCompleted, models.PaymentMethodWallet, nil)
		_, err := fx.service.Refund(ctx, payment.Actor{UserID: 1, Role: "user"}, p.ID, "")
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})
}
