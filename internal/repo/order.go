package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/online_school/internal/models"
)

// CreateOrder persists the order and its items in one transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(order).Error; err != nil {
			return err
		}
		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		return tx.Omit(clause.Associations).Create(&order.Items).Error
	})
}

func withOrderItems(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Curriculum").
		Preload("Items.Course")
}

func (r *GormRepo) GetOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Order, error) {
	var order models.Order
	err := withOrderItems(r.DB.WithContext(ctx)).
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// PendingOrder returns the user's newest pending order.
func (r *GormRepo) PendingOrder(ctx context.Context, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withOrderItems(r.DB.WithContext(ctx)).
		Where("user_id = ? AND status = ?", userID, models.OrderStatusPending).
		Order("created_at DESC, id DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Order, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := withOrderItems(q).
		Order("created_at DESC, id DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
