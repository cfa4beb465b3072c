package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/online_school/internal/gateway"
	"github.com/Skotchmaster/online_school/internal/lock"
	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/pkg/events"
	"github.com/Skotchmaster/online_school/pkg/logging"
)

type CartStore interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	FindProduct(ctx context.Context, ref models.ProductRef) (*models.Curriculum, *models.Course, error)
	AddItem(ctx context.Context, cartID uint, item *models.CartItem, guard func(items []models.CartItem) error) error
	RemoveItem(ctx context.Context, cartID, itemID uint) error
	ClearCart(ctx context.Context, cartID uint) error
	RemoveProducts(ctx context.Context, cartID uint, keys []string) (int64, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Order, error)
	PendingOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, int64, error)
}

type PaymentStore interface {
	GetOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Order, error)
	DefaultAddress(ctx context.Context, userID uuid.UUID) (*models.UserBillingAddress, error)
	SupersedePending(ctx context.Context, orderID uint, at time.Time) (int64, error)
	CreatePendingPayment(ctx context.Context, p *models.Payment, at time.Time, guard func(order *models.Order) error) error
	GetPayment(ctx context.Context, paymentID uint) (*models.Payment, error)
	FindPayment(ctx context.Context, userID uuid.UUID, orderID uint, statuses ...models.PaymentStatus) (*models.Payment, error)
	UpdatePaymentState(ctx context.Context, paymentID uint, mutate func(p *models.Payment) error) (*models.Payment, error)
}

type ReceiptStore interface {
	GetPayment(ctx context.Context, paymentID uint) (*models.Payment, error)
	ListReceipts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Payment, int64, error)
}

type AddressStore interface {
	ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.UserBillingAddress, error)
	CreateAddress(ctx context.Context, a *models.UserBillingAddress) error
	SetDefaultAddress(ctx context.Context, userID uuid.UUID, addressID uint) (*models.UserBillingAddress, error)
	DeleteAddress(ctx context.Context, userID uuid.UUID, addressID uint) error
}

type Gateway interface {
	RequestPayment(ctx context.Context, order *models.Order) (*gateway.ReadyResponse, error)
	ApprovePayment(ctx context.Context, p *models.Payment, pgToken string) (*gateway.ApproveResponse, error)
	RefundPayment(ctx context.Context, p *models.Payment) (*gateway.CancelResponse, error)
}

type Locker interface {
	Lock(ctx context.Context, key string) (lock.Unlock, error)
}

type ReceiptIndexer interface {
	IndexReceipt(ctx context.Context, r transport.ReceiptDetail) error
}

type ReceiptSearcher interface {
	SearchReceipts(ctx context.Context, query string, from, size int) (int64, []transport.ReceiptDetail, error)
}

// publish is best effort: the state change is already committed.
func publish(ctx context.Context, p events.Publisher, topic, typ string, userID uuid.UUID, payload any) {
	if p == nil {
		return
	}
	ev := events.Event{Type: typ, UserID: userID.String(), OccurredAt: time.Now().UTC(), Payload: payload}
	if err := p.Publish(ctx, topic, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", typ, "topic", topic, "error", err)
	}
}
