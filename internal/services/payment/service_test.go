package payment

import (
	"context"
	"sync"
	"testing"

	apperr "pavo/internal/errors"
	"pavo/internal/models"
	"pavo/internal/repositories"
	"pavo/internal/services/gateway"
	"pavo/internal/services/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const confirmedHash = "0xab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12ab12"

type fakePaymentRepo struct {
	mu    sync.Mutex
	byID  map[string]*models.Payment
	byKey map[string]string
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byID: make(map[string]*models.Payment), byKey: make(map[string]string)}
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *models.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byKey[p.IdempotencyKey]; exists {
		return repositories.ErrDuplicateIdempotency
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	f.byID[p.ID] = &cp
	f.byKey[p.IdempotencyKey] = p.ID
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
	f.mu.Lock()
	id, ok := f.byKey[key]
	f.mu.Unlock()
	if !ok {
		return nil, repositories.ErrPaymentNotFound
	}
	return f.get(id)
}

func (f *fakePaymentRepo) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Payment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Payment
	for _, p := range f.byID {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
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

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (f *fakeAuditRepo) Append(ctx context.Context, entry *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByPayment(ctx context.Context, paymentID string) ([]models.AuditLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AuditLog
	for _, e := range f.entries {
		if e.PaymentID == paymentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) WithTx(tx *gorm.DB) repositories.AuditRepository { return f }

// fakeLedger implements wallet.Service over a single balance. With
// contended set, every debit fails the way the real service does after
// its retry budget runs out.
type fakeLedger struct {
	mu        sync.Mutex
	balance   decimal.Decimal
	debits    int
	credits   int
	contended bool
}

func (f *fakeLedger) GetBalance(ctx context.Context, userID uint, currency string) (*models.WalletBalance, error) {
	return &models.WalletBalance{UserID: userID, Currency: currency, Balance: f.balance}, nil
}

func (f *fakeLedger) Debit(ctx context.Context, userID uint, currency string, amount decimal.Decimal, ref wallet.Reference) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contended {
		return nil, wallet.ErrConflict
	}
	if amount.GreaterThan(f.balance) {
		return nil, wallet.ErrInsufficientBalance
	}
	f.balance = f.balance.Sub(amount)
	f.debits++
	return &models.WalletTransaction{ID: uuid.NewString(), Type: models.TransactionTypeDebit, Amount: amount, BalanceAfter: f.balance}, nil
}

func (f *fakeLedger) Credit(ctx context.Context, userID uint, currency string, amount decimal.Decimal, ref wallet.Reference) (*models.WalletTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balance = f.balance.Add(amount)
	f.credits++
	return &models.WalletTransaction{ID: uuid.NewString(), Type: models.TransactionTypeCredit, Amount: amount, BalanceAfter: f.balance}, nil
}

func (f *fakeLedger) ListTransactions(ctx context.Context, userID uint, filter repositories.TransactionFilter) ([]models.WalletTransaction, int64, error) {
	return nil, 0, nil
}

type fakeVerifier struct {
	confirmed bool
}

func (f fakeVerifier) VerifyTransfer(ctx context.Context, hash string, amount decimal.Decimal, currency string) (bool, error) {
	return f.confirmed, nil
}

type fixture struct {
	payments *fakePaymentRepo
	bookings *fakeBookingRepo
	audits   *fakeAuditRepo
	ledger   *fakeLedger
	service  Service
}

func newFixture(balance string, confirmed bool) *fixture {
	payments := newFakePaymentRepo()
	bookings := &fakeBookingRepo{bookings: map[uint]*models.Booking{
		7: {ID: 7, UserID: 1, Status: models.BookingStatusPending},
		8: {ID: 8, UserID: 99, Status: models.BookingStatusPending},
	}}
	audits := &fakeAuditRepo{}
	ledger := &fakeLedger{balance: decimal.RequireFromString(balance)}

	registry := gateway.NewRegistry()
	registry.Register(models.PaymentMethodWallet, gateway.NewWalletStrategy(ledger))
	registry.Register(models.PaymentMethodStablecoin, gateway.NewStablecoinStrategy(fakeVerifier{confirmed: confirmed}))
	registry.Register(models.PaymentMethodWesternUnion, &awaitingStrategy{})

	svc := NewService(Deps{
		Payments: payments,
		Bookings: bookings,
		Audits:   audits,
		Ledger:   ledger,
		Registry: registry,
	})
	return &fixture{payments: payments, bookings: bookings, audits: audits, ledger: ledger, service: svc}
}

type awaitingStrategy struct{}

func (awaitingStrategy) Initiate(ctx context.Context, req gateway.Request) (gateway.Outcome, error) {
	return gateway.Outcome{Status: models.PaymentStatusAwaitingApproval, ExternalTransactionID: "wu-ref"}, nil
}

var user = Actor{UserID: 1, Role: "user"}
var admin = Actor{UserID: 42, Role: "admin"}

func createReq(method, amount string) *models.CreatePaymentRequest {
	return &models.CreatePaymentRequest{
		Amount:   decimal.RequireFromString(amount),
		Currency: models.CurrencyUSD,
		Method:   method,
	}
}

func TestCreateWalletPayment(t *testing.T) {
	fx := newFixture("100.00", false)

	p, err := fx.service.Create(context.Background(), user, createReq(models.PaymentMethodWallet, "40.00"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusCompleted, p.Status)
	assert.NotEmpty(t, p.ExternalTransactionID)
	assert.Equal(t, 1, fx.ledger.debits)
	assert.True(t, fx.ledger.balance.Equal(decimal.RequireFromString("60.00")))

	// Creation and settlement each leave an audit row.
	trail, _ := fx.audits.ListByPayment(context.Background(), p.ID)
	require.Len(t, trail, 2)
	assert.Equal(t, models.PaymentStatusPending, trail[0].ToStatus)
	assert.Equal(t, models.PaymentStatusCompleted, trail[1].ToStatus)
}

func TestCreateWalletPaymentInsufficientBalance(t *testing.T) {
	fx := newFixture("10.00", false)

	p, err := fx.service.Create(context.Background(), user, createReq(models.PaymentMethodWallet, "40.00"))
	assert.Equal(t, apperr.CodeInsufficientBalance, apperr.CodeOf(err))
	require.NotNil(t, p)
	assert.Equal(t, models.PaymentStatusFailed, p.Status)
	assert.Equal(t, "insufficient wallet balance", p.AdminNotes)

	// Balance untouched, no ledger rows.
	assert.True(t, fx.ledger.balance.Equal(decimal.RequireFromString("10.00")))
	assert.Zero(t, fx.ledger.debits)

	stored, err := fx.payments.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
}

func TestCreateRemittancePayment(t *testing.T) {
	fx := newFixture("0.00", false)

	p, err := fx.service.Create(context.Background(), user, createReq(models.PaymentMethodWesternUnion, "25.00"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusAwaitingApproval, p.Status)
	assert.Equal(t, "wu-ref", p.ExternalTransactionID)
	assert.Zero(t, fx.ledger.debits)
	assert.Zero(t, fx.ledger.credits)
}

func TestCreateStablecoinPayment(t *testing.T) {
	t.Run("confirmed transfer completes and credits", func(t *testing.T) {
		fx := newFixture("0.00", true)
		req := createReq(models.PaymentMethodStablecoin, "50.00")
		req.ExternalReferenceHash = confirmedHash

		p, err := fx.service.Create(context.Background(), user, req)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusCompleted, p.Status)
		assert.Equal(t, 1, fx.ledger.credits)
		assert.True(t, fx.ledger.balance.Equal(decimal.RequireFromString("50.00")))
	})

	t.Run("unconfirmed transfer awaits approval", func(t *testing.T) {
		fx := newFixture("0.00", false)
		req := createReq(models.PaymentMethodStablecoin, "50.00")
		req.ExternalReferenceHash = confirmedHash

		p, err := fx.service.Create(context.Background(), user, req)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusAwaitingApproval, p.Status)
		assert.Zero(t, fx.ledger.credits)
	})

	t.Run("malformed hash fails the payment", func(t *testing.T) {
		fx := newFixture("0.00", true)
		req := createReq(models.PaymentMethodStablecoin, "50.00")
		req.ExternalReferenceHash = "deadbeef"

		p, err := fx.service.Create(context.Background(), user, req)
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
		require.NotNil(t, p)
		assert.Equal(t, models.PaymentStatusFailed, p.Status)
		assert.Zero(t, fx.ledger.credits)
	})

	t.Run("missing hash is rejected up front", func(t *testing.T) {
		fx := newFixture("0.00", true)

		p, err := fx.service.Create(context.Background(), user, createReq(models.PaymentMethodStablecoin, "50.00"))
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
		assert.Nil(t, p)
	})
}

func TestCreateValidation(t *testing.T) {
	fx := newFixture("100.00", false)
	ctx := context.Background()

	tests := []struct {
		name string
		req  *models.CreatePaymentRequest
	}{
		{"negative amount", createReq(models.PaymentMethodWallet, "-5.00")},
		{"sub-cent precision", createReq(models.PaymentMethodWallet, "5.001")},
		{"unknown currency", &models.CreatePaymentRequest{Amount: decimal.RequireFromString("5.00"), Currency: "BTC", Method: models.PaymentMethodWallet}},
		{"unknown method", &models.CreatePaymentRequest{Amount: decimal.RequireFromString("5.00"), Currency: models.CurrencyUSD, Method: "barter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := fx.service.Create(ctx, user, tt.req)
			assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
			assert.Nil(t, p)
		})
	}
	assert.Zero(t, fx.ledger.debits)
}

func TestCreateBookingOwnership(t *testing.T) {
	fx := newFixture("100.00", false)
	ctx := context.Background()

	t.Run("missing booking", func(t *testing.T) {
		req := createReq(models.PaymentMethodWallet, "10.00")
		id := uint(404)
		req.BookingID = &id
		_, err := fx.service.Create(ctx, user, req)
		assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
	})

	t.Run("foreign booking", func(t *testing.T) {
		req := createReq(models.PaymentMethodWallet, "10.00")
		id := uint(8)
		req.BookingID = &id
		_, err := fx.service.Create(ctx, user, req)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	assert.Zero(t, fx.ledger.debits)
}

func TestCreateIdempotentReplay(t *testing.T) {
	fx := newFixture("100.00", false)
	ctx := context.Background()

	req := createReq(models.PaymentMethodWallet, "40.00")
	req.IdempotencyKey = "client-key-1"

	first, err := fx.service.Create(ctx, user, req)
	require.NoError(t, err)

	retry := createReq(models.PaymentMethodWallet, "40.00")
	retry.IdempotencyKey = "client-key-1"
	second, err := fx.service.Create(ctx, user, retry)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, fx.ledger.debits)
	assert.Len(t, fx.payments.byID, 1)
}

func TestCreateIdempotencyKeyOwnership(t *testing.T) {
	fx := newFixture("100.00", false)
	ctx := context.Background()

	req := createReq(models.PaymentMethodWallet, "40.00")
	req.IdempotencyKey = "shared-key"
	first, err := fx.service.Create(ctx, user, req)
	require.NoError(t, err)

	// Another account replaying the same key must not see the record.
	intruder := createReq(models.PaymentMethodWallet, "40.00")
	intruder.IdempotencyKey = "shared-key"
	p, err := fx.service.Create(ctx, Actor{UserID: 2, Role: "user"}, intruder)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	assert.Nil(t, p)

	stored, err := fx.payments.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), stored.UserID)
	assert.Equal(t, 1, fx.ledger.debits)
}

func TestCreateWalletLedgerContention(t *testing.T) {
	fx := newFixture("100.00", false)
	fx.ledger.contended = true

	p, err := fx.service.Create(context.Background(), user, createReq(models.PaymentMethodWallet, "40.00"))
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))

	// The payment is parked for follow-up, not silently accepted.
	require.NotNil(t, p)
	assert.Equal(t, models.PaymentStatusProcessing, p.Status)
	assert.Contains(t, p.AdminNotes, "settlement attempt unresolved")

	stored, err := fx.payments.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusProcessing, stored.Status)
	assert.True(t, fx.ledger.balance.Equal(decimal.RequireFromString("100.00")))
}

func TestGetOwnership(t *testing.T) {
	fx := newFixture("100.00", false)
	ctx := context.Background()

	p, err := fx.service.Create(ctx, user, createReq(models.PaymentMethodWallet, "10.00"))
	require.NoError(t, err)

	_, err = fx.service.Get(ctx, Actor{UserID: 2, Role: "user"}, p.ID)
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	got, err := fx.service.Get(ctx, admin, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = fx.service.Get(ctx, user, uuid.NewString())
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("narrows a processing payment to failed", func(t *testing.T) {
		fx := newFixture("0.00", false)
		seed := &models.Payment{UserID: 1, Status: models.PaymentStatusProcessing, Method: models.PaymentMethodCard, IdempotencyKey: "k1"}
		require.NoError(t, fx.payments.Create(ctx, seed))

		p, err := fx.service.Cancel(ctx, user, seed.ID, "")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusFailed, p.Status)
		assert.Equal(t, "cancelled by requester", p.AdminNotes)
	})

	t.Run("terminal payment is immutable", func(t *testing.T) {
		fx := newFixture("0.00", false)
		seed := &models.Payment{UserID: 1, Status: models.PaymentStatusCompleted, Method: models.PaymentMethodCard, IdempotencyKey: "k2"}
		require.NoError(t, fx.payments.Create(ctx, seed))

		_, err := fx.service.Cancel(ctx, user, seed.ID, "")
		assert.Equal(t, apperr.CodeStatusImmutable, apperr.CodeOf(err))
	})

	t.Run("awaiting approval goes through the approval flow", func(t *testing.T) {
		fx := newFixture("0.00", false)
		seed := &models.Payment{UserID: 1, Status: models.PaymentStatusAwaitingApproval, Method: models.PaymentMethodWesternUnion, IdempotencyKey: "k3"}
		require.NoError(t, fx.payments.Create(ctx, seed))

		_, err := fx.service.Cancel(ctx, user, seed.ID, "")
		assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	})
}

func TestAnnotate(t *testing.T) {
	ctx := context.Background()

	t.Run("admin role required", func(t *testing.T) {
		fx := newFixture("100.00", false)
		p, err := fx.service.Create(ctx, user, createReq(models.PaymentMethodWallet, "10.00"))
		require.NoError(t, err)

		_, err = fx.service.Annotate(ctx, user, p.ID, "note", nil)
		assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
	})

	t.Run("notes and metadata on a live payment", func(t *testing.T) {
		fx := newFixture("0.00", false)
		seed := &models.Payment{UserID: 1, Status: models.PaymentStatusProcessing, Method: models.PaymentMethodCard, IdempotencyKey: "k4"}
		require.NoError(t, fx.payments.Create(ctx, seed))

		got, err := fx.service.Annotate(ctx, admin, seed.ID, "manually reviewed", map[string]interface{}{"ticket": "OPS-12"})
		require.NoError(t, err)
		assert.Equal(t, "manually reviewed", got.AdminNotes)
		assert.Equal(t, "OPS-12", got.Metadata["ticket"])
		assert.Equal(t, models.PaymentStatusProcessing, got.Status)
	})

	t.Run("terminal payment takes notes but not metadata", func(t *testing.T) {
		fx := newFixture("100.00", false)
		p, err := fx.service.Create(ctx, user, createReq(models.PaymentMethodWallet, "10.00"))
		require.NoError(t, err)
		require.Equal(t, models.PaymentStatusCompleted, p.Status)

		_, err = fx.service.Annotate(ctx, admin, p.ID, "", map[string]interface{}{"injected": true})
		assert.Equal(t, apperr.CodeStatusImmutable, apperr.CodeOf(err))

		stored, err := fx.payments.GetByID(ctx, p.ID)
		require.NoError(t, err)
		assert.NotContains(t, stored.Metadata, "injected")

		got, err := fx.service.Annotate(ctx, admin, p.ID, "reconciled against statement", nil)
		require.NoError(t, err)
		assert.Equal(t, "reconciled against statement", got.AdminNotes)
		assert.Equal(t, models.PaymentStatusCompleted, got.Status)
	})
}
