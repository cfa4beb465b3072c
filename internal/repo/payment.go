package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/online_school/internal/models"
)

func supersede(tx *gorm.DB, orderID uint, at time.Time) (int64, error) {
	var ids []uint
	err := tx.Model(&models.Payment{}).Clauses(forUpdate()).
		Where("order_id = ? AND status = ?", orderID, models.PaymentStatusPending).
		Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}

	res := tx.Model(&models.Payment{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"status":       models.PaymentStatusCancelled,
			"cancelled_at": at,
		})
	return res.RowsAffected, res.Error
}

// SupersedePending cancels every pending payment of the order and commits.
// The order itself stays pending.
func (r *GormRepo) SupersedePending(ctx context.Context, orderID uint, at time.Time) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		n, err = supersede(tx, orderID, at)
		return err
	})
	return n, err
}

// CreatePendingPayment locks the order, lets guard re-check it, cancels any
// pending payment that appeared meanwhile and inserts p, all atomically.
func (r *GormRepo) CreatePendingPayment(ctx context.Context, p *models.Payment, at time.Time, guard func(order *models.Order) error) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := withOrderItems(tx.Clauses(forUpdate())).
			Where("id = ? AND user_id = ?", p.OrderID, p.UserID).
			First(&order).Error
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(&order); err != nil {
				return err
			}
		}

		if _, err := supersede(tx, order.ID, at); err != nil {
			return err
		}

		p.Status = models.PaymentStatusPending
		return tx.Omit(clause.Associations).Create(p).Error
	})
}

func withPaymentDetail(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Order").
		Preload("Order.Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Order.Items.Curriculum").
		Preload("Order.Items.Course").
		Preload("BillingAddress")
}

// GetPayment loads a payment with its order, items and billing address.
// Ownership is checked by the caller.
func (r *GormRepo) GetPayment(ctx context.Context, paymentID uint) (*models.Payment, error) {
	var p models.Payment
	if err := withPaymentDetail(r.DB.WithContext(ctx)).First(&p, paymentID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// FindPayment returns the newest payment of the user's order in one of the
// given statuses.
func (r *GormRepo) FindPayment(ctx context.Context, userID uuid.UUID, orderID uint, statuses ...models.PaymentStatus) (*models.Payment, error) {
	q := withPaymentDetail(r.DB.WithContext(ctx)).
		Where("user_id = ? AND order_id = ?", userID, orderID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var p models.Payment
	if err := q.Order("id DESC").First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePaymentState locks the payment's order and the payment, hands both to
// mutate and persists the payment status and timestamps, the order status and
// every item expiry date.
func (r *GormRepo) UpdatePaymentState(ctx context.Context, paymentID uint, mutate func(p *models.Payment) error) (*models.Payment, error) {
	var p models.Payment
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orderID uint
		if err := tx.Model(&models.Payment{}).Where("id = ?", paymentID).Pluck("order_id", &orderID).Error; err != nil {
			return err
		}
		if orderID == 0 {
			return gorm.ErrRecordNotFound
		}

		var order models.Order
		if err := withOrderItems(tx.Clauses(forUpdate())).First(&order, orderID).Error; err != nil {
			return err
		}
		if err := tx.Clauses(forUpdate()).Preload("BillingAddress").First(&p, paymentID).Error; err != nil {
			return err
		}
		p.Order = &order

		if err := mutate(&p); err != nil {
			return err
		}

		if err := tx.Model(&p).
			Select("status", "paid_at", "cancelled_at", "transaction_id").
			Updates(&p).Error; err != nil {
			return err
		}
		if err := tx.Model(&order).Update("status", order.Status).Error; err != nil {
			return err
		}
		for i := range order.Items {
			it := &order.Items[i]
			if err := tx.Model(it).Update("expiry_date", it.ExpiryDate).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListReceipts returns the user's completed and refunded payments, newest
// paid_at first.
func (r *GormRepo) ListReceipts(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.Payment, int64, error) {
	q := r.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("user_id = ? AND status IN ?", userID, []models.PaymentStatus{
			models.PaymentStatusCompleted, models.PaymentStatusRefunded,
		}).
		Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []models.Payment
	err := q.Order("paid_at DESC, id DESC").Offset(offset).Limit(limit).Find(&payments).Error
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
