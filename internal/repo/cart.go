package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/online_school/internal/models"
)

// GetOrCreateCart returns the user's cart with priced items, creating the
// cart on first access.
func (r *GormRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	db := r.DB.WithContext(ctx)

	cart := models.Cart{UserID: userID}
	err := db.Where(models.Cart{UserID: userID}).FirstOrCreate(&cart).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = db.Where("user_id = ?", userID).First(&cart).Error
	}
	if err != nil {
		return nil, err
	}

	items, err := cartItems(db, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items
	return &cart, nil
}

func cartItems(tx *gorm.DB, cartID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	err := tx.Preload("Curriculum").Preload("Course").
		Where("cart_id = ?", cartID).
		Order("id").
		Find(&items).Error
	return items, err
}

// AddItem inserts item into the cart while holding the cart row lock. guard
// sees the current items and may veto the insert. A duplicate product
// surfaces as gorm.ErrDuplicatedKey.
func (r *GormRepo) AddItem(ctx context.Context, cartID uint, item *models.CartItem, guard func(items []models.CartItem) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Clauses(forUpdate()).First(&cart, cartID).Error; err != nil {
			return err
		}

		items, err := cartItems(tx, cartID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(items); err != nil {
				return err
			}
		}

		key := item.Ref().Key()
		for _, it := range items {
			if it.ProductKey == key {
				return gorm.ErrDuplicatedKey
			}
		}

		item.CartID = cartID
		item.ProductKey = key
		return tx.Omit(clause.Associations).Create(item).Error
	})
}

func (r *GormRepo) RemoveItem(ctx context.Context, cartID, itemID uint) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, cartID uint) error {
	return r.DB.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error
}

// RemoveProducts deletes the cart lines holding any of the product keys and
// reports how many went.
func (r *GormRepo) RemoveProducts(ctx context.Context, cartID uint, keys []string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res := r.DB.WithContext(ctx).
		Where("cart_id = ? AND product_key IN ?", cartID, keys).
		Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
