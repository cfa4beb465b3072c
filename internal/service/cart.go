package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/pricing"
	"github.com/Skotchmaster/online_school/pkg/events"
)

type CartService struct {
	Repo    CartStore
	Events  events.Publisher
	Ceiling int64
}

func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddItem adds a product to the user's cart. The same product is never
// merged into an existing line; it is rejected with ErrDuplicateItem.
func (s *CartService) AddItem(ctx context.Context, userID uuid.UUID, ref models.ProductRef, quantity uint) (*models.CartItem, error) {
	if err := ref.Validate(); err != nil {
		return nil, ErrInvalidProduct
	}
	if quantity < 1 || quantity > models.MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	curriculum, course, err := s.Repo.FindProduct(ctx, ref)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, ref.Key())
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	item := &models.CartItem{
		CurriculumID: ref.CurriculumID,
		CourseID:     ref.CourseID,
		Quantity:     quantity,
	}
	_, unitPrice := pricing.Resolve(curriculum, course)
	key := ref.Key()

	err = s.Repo.AddItem(ctx, cart.ID, item, func(items []models.CartItem) error {
		for _, it := range items {
			if it.Ref().Key() == key {
				return ErrDuplicateItem
			}
		}
		if s.Ceiling > 0 && models.AddTotal(pricing.CartTotal(items), pricing.LineTotal(unitPrice, quantity)) > s.Ceiling {
			return ErrPriceCeilingExceeded
		}
		return nil
	})
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, ErrDuplicateItem
	case err != nil && errors.As(err, new(*DomainError)):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("add item: %w", err)
	}

	item.Curriculum, item.Course = curriculum, course
	publish(ctx, s.Events, events.TopicCart, events.CartItemAdded, userID, map[string]any{
		"cart_id": cart.ID, "item_id": item.ID, "product": key, "quantity": quantity,
	})
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, userID uuid.UUID, itemID uint) error {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}

	err = s.Repo.RemoveItem(ctx, cart.ID, itemID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCartItemNotFound
	}
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}

	publish(ctx, s.Events, events.TopicCart, events.CartItemRemoved, userID, map[string]any{
		"cart_id": cart.ID, "item_id": itemID,
	})
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	if err := s.Repo.ClearCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	publish(ctx, s.Events, events.TopicCart, events.CartCleared, userID, map[string]any{"cart_id": cart.ID})
	return nil
}

// RemovePurchased drops the order's products from the user's cart. Lines
// added after checkout stay.
func (s *CartService) RemovePurchased(ctx context.Context, userID uuid.UUID, order *models.Order) error {
	keys := make([]string, 0, len(order.Items))
	for _, it := range order.Items {
		ref := it.Ref()
		if ref.Validate() != nil {
			continue
		}
		keys = append(keys, ref.Key())
	}
	if len(keys) == 0 {
		return nil
	}

	cart, err := s.Repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return fmt.Errorf("get cart: %w", err)
	}
	n, err := s.Repo.RemoveProducts(ctx, cart.ID, keys)
	if err != nil {
		return fmt.Errorf("remove purchased: %w", err)
	}

	if n > 0 {
		publish(ctx, s.Events, events.TopicCart, events.CartItemRemoved, userID, map[string]any{
			"cart_id": cart.ID, "order_id": order.ID, "products": keys,
		})
	}
	return nil
}
