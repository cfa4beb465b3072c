package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/pricing"
	"github.com/Skotchmaster/online_school/internal/util"
	"github.com/Skotchmaster/online_school/pkg/events"
)

// OrderDraft is a detached copy of a cart's lines, priced at draft time.
type OrderDraft struct {
	UserID uuid.UUID
	Items  []models.OrderItem
}

func (d *OrderDraft) TotalPrice() int64 {
	var total int64
	for _, it := range d.Items {
		total = models.AddTotal(total, pricing.LineTotal(it.UnitPrice, it.Quantity))
	}
	return total
}

type OrderService struct {
	Repo    OrderStore
	Carts   CartStore
	Events  events.Publisher
	Ceiling int64
}

// CreateFromCart snapshots the cart into a draft. The cart is left as is.
func (s *OrderService) CreateFromCart(userID uuid.UUID, cart *models.Cart) (*OrderDraft, error) {
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	draft := &OrderDraft{UserID: userID, Items: make([]models.OrderItem, 0, len(cart.Items))}
	for _, it := range cart.Items {
		_, price := pricing.ForCartItem(it)
		draft.Items = append(draft.Items, models.OrderItem{
			CurriculumID: copyID(it.CurriculumID),
			CourseID:     copyID(it.CourseID),
			Quantity:     it.Quantity,
			UnitPrice:    price,
		})
	}

	if total := draft.TotalPrice(); s.Ceiling > 0 && total > s.Ceiling {
		return nil, fmt.Errorf("%w: %d > %d", ErrPriceCeilingExceeded, total, s.Ceiling)
	}
	return draft, nil
}

// CreateOrder persists a pending order with the given items.
func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, items []models.OrderItem) (*models.Order, error) {
	if len(items) == 0 {
		return nil, ErrNoOrderItems
	}

	var total int64
	for _, it := range items {
		if err := it.Ref().Validate(); err != nil {
			return nil, ErrInvalidProduct
		}
		if it.Quantity < 1 || it.Quantity > models.MaxQuantity {
			return nil, ErrInvalidQuantity
		}
		total = models.AddTotal(total, pricing.LineTotal(it.UnitPrice, it.Quantity))
	}
	if s.Ceiling > 0 && total > s.Ceiling {
		return nil, fmt.Errorf("%w: %d > %d", ErrPriceCeilingExceeded, total, s.Ceiling)
	}

	order := &models.Order{
		UserID: userID,
		Status: models.OrderStatusPending,
		Items:  append([]models.OrderItem(nil), items...),
	}
	for i := range order.Items {
		order.Items[i].ID = 0
		order.Items[i].ExpiryDate = nil
	}
	if err := s.Repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	publish(ctx, s.Events, events.TopicOrder, events.OrderCreated, userID, map[string]any{
		"order_id": order.ID, "total_price": total, "items": len(order.Items),
	})
	return order, nil
}

// Checkout turns the user's cart into a pending order.
func (s *OrderService) Checkout(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	cart, err := s.Carts.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	draft, err := s.CreateFromCart(userID, cart)
	if err != nil {
		return nil, err
	}
	order, err := s.CreateOrder(ctx, userID, draft.Items)
	if err != nil {
		return nil, err
	}

	// reload so items carry their products for display
	return s.GetOrder(ctx, userID, order.ID)
}

func (s *OrderService) GetOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, userID, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

func (s *OrderService) PendingOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.PendingOrder(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pending order: %w", err)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, page util.Page) ([]models.Order, int64, error) {
	orders, total, err := s.Repo.ListOrders(ctx, userID, page.Offset, page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

func copyID(id *uint) *uint {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
