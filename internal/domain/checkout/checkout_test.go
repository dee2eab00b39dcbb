package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualitytime/storefront/internal/domain/cart"
	"github.com/qualitytime/storefront/internal/domain/order"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	created  []*order.Order
	err      error
	onCreate func()
	panics   bool
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) error {
	if m.onCreate != nil {
		m.onCreate()
	}
	if m.panics {
		panic("driver bug")
	}
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, o)
	return nil
}

func (m *mockOrderRepo) List(context.Context) ([]order.Order, error) { return nil, nil }

func (m *mockOrderRepo) Get(context.Context, string) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (m *mockOrderRepo) UpdateStatus(context.Context, order.Status, *order.Order) error {
	return nil
}

func (m *mockOrderRepo) Delete(context.Context, string) error { return nil }

// --- Helpers ---

var testNow = time.Date(2025, 5, 2, 18, 0, 0, 0, time.UTC)

func validForm() Form {
	return Form{
		Name:         "Yacine",
		Phone:        "0555 12 34 56",
		Wilaya:       "16",
		Municipality: "Bab Ezzouar",
		Address:      "Cité 1000 logements",
		Delivery:     DeliveryHome,
	}
}

type fixture struct {
	svc   *Service
	repo  *mockOrderRepo
	store *cart.Store
	slot  *cart.MemorySlot
	inbox *cart.Inbox
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := &mockOrderRepo{}
	svc := NewService(repo, DefaultRates)
	svc.now = func() time.Time { return testNow }
	svc.newID = func() string { return "order-1" }

	slot := cart.NewMemorySlot()
	inbox := cart.NewInbox(nil)
	store := cart.NewStore(cart.Cart{}, cart.NewSnapshotPersister(slot, "k", nil), inbox)
	return &fixture{svc: svc, repo: repo, store: store, slot: slot, inbox: inbox}
}

func (f *fixture) add(t *testing.T, id string, price int64, qty int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.store.AddItem(ctx, cart.Item{
		ID:     id,
		Name:   "Watch " + id,
		Brand:  "Seiko",
		Price:  decimal.NewFromInt(price),
		Images: []string{id + "-front.jpg", id + "-back.jpg"},
	}))
	require.NoError(t, f.store.UpdateQuantity(ctx, id, qty))
	f.inbox.Drain()
}

// --- Tests ---

func TestSubmit_GrandTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "W1", 5000, 2)

	r, err := f.svc.Submit(ctx, f.store, validForm())
	require.NoError(t, err)

	assert.Equal(t, "order-1", r.OrderID)
	assert.True(t, decimal.NewFromInt(10000).Equal(r.Subtotal), "subtotal %s", r.Subtotal)
	assert.True(t, decimal.NewFromInt(800).Equal(r.Shipping), "shipping %s", r.Shipping)
	assert.True(t, decimal.NewFromInt(10800).Equal(r.Total), "total %s", r.Total)

	require.Len(t, f.repo.created, 1)
	o := f.repo.created[0]
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentCashOnDelivery, o.Payment)
	assert.Equal(t, "0555123456", o.Customer.Phone)
	assert.Equal(t, "الجزائر", o.Shipping.Wilaya)
	assert.Equal(t, testNow, o.CreatedAt)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "W1-front.jpg", o.Items[0].Image)
	assert.Equal(t, 2, o.Items[0].Quantity)
}

func TestSubmit_OfficeRate(t *testing.T) {
	f := newFixture(t)
	f.add(t, "W1", 5000, 1)
	f.add(t, "W2", 1250, 3)

	form := validForm()
	form.Delivery = "office"
	r, err := f.svc.Submit(context.Background(), f.store, form)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(8750).Equal(r.Subtotal))
	assert.True(t, decimal.NewFromInt(450).Equal(r.Shipping))
	assert.True(t, r.Subtotal.Add(r.Shipping).Equal(r.Total))
}

func TestSubmit_ClearsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "W1", 5000, 2)

	_, err := f.svc.Submit(ctx, f.store, validForm())
	require.NoError(t, err)

	assert.True(t, f.store.Snapshot().IsEmpty())
	assert.False(t, f.store.Frozen())

	persisted, err := cart.NewSnapshotPersister(f.slot, "k", nil).Load(ctx)
	require.NoError(t, err)
	assert.True(t, persisted.IsEmpty(), "persisted snapshot must be empty")

	notes := f.inbox.Drain()
	require.NotEmpty(t, notes)
	assert.Equal(t, cart.SeveritySuccess, notes[len(notes)-1].Severity)
	assert.Contains(t, notes[len(notes)-1].Message, "order-1")
}

func TestSubmit_FailureKeepsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "W1", 5000, 2)
	f.repo.err = errors.New("connection refused")
	before := f.store.Snapshot()

	_, err := f.svc.Submit(ctx, f.store, validForm())
	require.ErrorIs(t, err, ErrSubmissionFailed)

	assert.Equal(t, before, f.store.Snapshot())
	assert.False(t, f.store.Frozen(), "shopper must be able to retry")

	notes := f.inbox.Drain()
	require.Len(t, notes, 1)
	assert.Equal(t, cart.SeverityError, notes[0].Severity)

	f.repo.err = nil
	_, err = f.svc.Submit(ctx, f.store, validForm())
	require.NoError(t, err)
}

func TestSubmit_PanicThawsCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "W1", 5000, 2)
	f.repo.panics = true

	require.Panics(t, func() {
		_, _ = f.svc.Submit(ctx, f.store, validForm())
	})
	assert.False(t, f.store.Frozen(), "cart must not stay frozen")
	assert.Equal(t, 2, f.store.Count())

	f.repo.panics = false
	_, err := f.svc.Submit(ctx, f.store, validForm())
	require.NoError(t, err)
}

func TestSubmit_RequestNotifier(t *testing.T) {
	f := newFixture(t)
	f.add(t, "W1", 5000, 1)

	req := cart.NewInbox(nil)
	_, err := f.svc.Submit(cart.WithNotifier(context.Background(), req), f.store, validForm())
	require.NoError(t, err)

	notes := req.Drain()
	require.NotEmpty(t, notes)
	assert.Contains(t, notes[len(notes)-1].Message, "order-1")
	assert.NotEmpty(t, f.inbox.Drain(), "store notifier still receives")
}

func TestSubmit_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Submit(context.Background(), f.store, validForm())
	require.ErrorIs(t, err, cart.ErrEmptyCart)
	assert.Empty(t, f.repo.created)
}

func TestSubmit_InvalidFormLeavesCart(t *testing.T) {
	f := newFixture(t)
	f.add(t, "W1", 5000, 1)

	form := validForm()
	form.Phone = "12"
	_, err := f.svc.Submit(context.Background(), f.store, form)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "phone", verr.Field)
	assert.False(t, f.store.Frozen())
	assert.Equal(t, 1, f.store.Count())
}

func TestSubmit_CartFrozenWhileWriting(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "W1", 5000, 1)

	var addErr, submitErr error
	f.repo.onCreate = func() {
		addErr = f.store.AddItem(ctx, cart.Item{ID: "W2", Price: decimal.NewFromInt(1)})
		_, submitErr = f.svc.Submit(ctx, f.store, validForm())
	}

	_, err := f.svc.Submit(ctx, f.store, validForm())
	require.NoError(t, err)
	require.ErrorIs(t, addErr, cart.ErrCartFrozen)
	require.ErrorIs(t, submitErr, cart.ErrCartFrozen)

	require.Len(t, f.repo.created, 1)
	assert.Len(t, f.repo.created[0].Items, 1)
}

func TestQuote(t *testing.T) {
	f := newFixture(t)
	c := cart.Cart{Lines: []cart.Line{
		{Item: cart.Item{ID: "a", Price: decimal.NewFromInt(5000)}, Quantity: 3},
	}}

	shipping, total, err := f.svc.Quote(c, DeliveryOffice)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(450).Equal(shipping))
	assert.True(t, decimal.NewFromInt(15450).Equal(total))

	_, _, err = f.svc.Quote(c, "DRONE")
	require.Error(t, err)
}
