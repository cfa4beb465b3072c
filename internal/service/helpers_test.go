package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_school/internal/gateway"
	"github.com/Skotchmaster/online_school/internal/lock"
	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/repo"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/pkg/db"
	"github.com/Skotchmaster/online_school/pkg/events"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, topic string, ev events.Event) error {
	return m.Called(ctx, topic, ev).Error(0)
}

func eventOfType(typ string) any {
	return mock.MatchedBy(func(ev events.Event) bool { return ev.Type == typ })
}

type mockIndexer struct{ mock.Mock }

func (m *mockIndexer) IndexReceipt(ctx context.Context, r transport.ReceiptDetail) error {
	return m.Called(ctx, r).Error(0)
}

type fakeGateway struct {
	mu sync.Mutex

	readyErr   error
	approveErr error
	refundErr  error

	readyCalls   int
	approveCalls int
	refundCalls  int
}

func (g *fakeGateway) RequestPayment(_ context.Context, order *models.Order) (*gateway.ReadyResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.readyCalls++
	if g.readyErr != nil {
		return nil, g.readyErr
	}
	return &gateway.ReadyResponse{
		TID:               fmt.Sprintf("T%d-%d", order.ID, g.readyCalls),
		NextRedirectPCURL: "https://pay.example/redirect",
	}, nil
}

func (g *fakeGateway) ApprovePayment(_ context.Context, p *models.Payment, _ string) (*gateway.ApproveResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.approveCalls++
	if g.approveErr != nil {
		return nil, g.approveErr
	}
	return &gateway.ApproveResponse{TID: p.TransactionID}, nil
}

func (g *fakeGateway) RefundPayment(_ context.Context, p *models.Payment) (*gateway.CancelResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return &gateway.CancelResponse{TID: p.TransactionID, Status: "CANCEL_PAYMENT"}, nil
}

type testEnv struct {
	t    *testing.T
	repo *repo.GormRepo
	gw   *fakeGateway
	pub  *mockPublisher
	idx  *mockIndexer

	mu  sync.Mutex
	now time.Time

	carts    *CartService
	orders   *OrderService
	payments *PaymentService
	receipts *ReceiptService
	billing  *BillingService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := db.OpenSQLite(db.MemoryDSN(uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	r := repo.New(gdb)
	require.NoError(t, r.Migrate(context.Background()))

	e := &testEnv{
		t:    t,
		repo: r,
		gw:   &fakeGateway{},
		pub:  &mockPublisher{},
		idx:  &mockIndexer{},
		now:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	e.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	e.idx.On("IndexReceipt", mock.Anything, mock.Anything).Return(nil)

	policy := DefaultPolicy()
	e.carts = &CartService{Repo: r, Events: e.pub, Ceiling: policy.Ceiling}
	e.orders = &OrderService{Repo: r, Carts: r, Events: e.pub, Ceiling: policy.Ceiling}
	e.payments = &PaymentService{
		Repo:     r,
		Gateway:  e.gw,
		Locker:   lock.NewLocal(),
		Events:   e.pub,
		Receipts: e.idx,
		Policy:   policy,
		Now:      e.clock,
	}
	e.receipts = &ReceiptService{Repo: r}
	e.billing = &BillingService{Repo: r}
	return e
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func (e *testEnv) course(name string, price int64) *models.Course {
	e.t.Helper()
	c := &models.Course{Name: name, Price: price}
	require.NoError(e.t, e.repo.DB.Create(c).Error)
	return c
}

func (e *testEnv) curriculum(name string, price int64) *models.Curriculum {
	e.t.Helper()
	c := &models.Curriculum{Name: name, Price: price}
	require.NoError(e.t, e.repo.DB.Create(c).Error)
	return c
}

// pendingOrder fills the user's cart with the courses and checks out.
func (e *testEnv) pendingOrder(user uuid.UUID, courses ...*models.Course) *models.Order {
	e.t.Helper()
	ctx := context.Background()
	for _, c := range courses {
		_, err := e.carts.AddItem(ctx, user, models.ProductRef{CourseID: &c.ID}, 1)
		require.NoError(e.t, err)
	}
	order, err := e.orders.Checkout(ctx, user)
	require.NoError(e.t, err)
	require.NoError(e.t, e.carts.ClearCart(ctx, user))
	return order
}

// paidOrder runs an order through request and approval.
func (e *testEnv) paidOrder(user uuid.UUID, courses ...*models.Course) (*models.Order, *models.Payment) {
	e.t.Helper()
	ctx := context.Background()
	order := e.pendingOrder(user, courses...)
	_, _, err := e.payments.CreatePayment(ctx, user, order.ID)
	require.NoError(e.t, err)
	p, err := e.payments.ProcessPayment(ctx, user, order.ID, "pg-token")
	require.NoError(e.t, err)
	return order, p
}

func (e *testEnv) paymentsOf(orderID uint) []models.Payment {
	e.t.Helper()
	var out []models.Payment
	require.NoError(e.t, e.repo.DB.Where("order_id = ?", orderID).Order("id").Find(&out).Error)
	return out
}
