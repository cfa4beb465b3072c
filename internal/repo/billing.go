package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_school/internal/models"
)

func (r *GormRepo) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.UserBillingAddress, error) {
	var out []models.UserBillingAddress
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, id").
		Find(&out).Error
	return out, err
}

func (r *GormRepo) DefaultAddress(ctx context.Context, userID uuid.UUID) (*models.UserBillingAddress, error) {
	var a models.UserBillingAddress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND is_default = ?", userID, true).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// lockAddresses takes row locks on every address of the user so concurrent
// default switches serialise.
func lockAddresses(tx *gorm.DB, userID uuid.UUID) ([]models.UserBillingAddress, error) {
	var rows []models.UserBillingAddress
	err := tx.Clauses(forUpdate()).Where("user_id = ?", userID).Order("id").Find(&rows).Error
	return rows, err
}

func clearDefault(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Model(&models.UserBillingAddress{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

func (r *GormRepo) CreateAddress(ctx context.Context, a *models.UserBillingAddress) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if a.IsDefault {
			if _, err := lockAddresses(tx, a.UserID); err != nil {
				return err
			}
			if err := clearDefault(tx, a.UserID); err != nil {
				return err
			}
		}
		return tx.Create(a).Error
	})
}

// SetDefaultAddress makes the address the user's only default.
func (r *GormRepo) SetDefaultAddress(ctx context.Context, userID uuid.UUID, addressID uint) (*models.UserBillingAddress, error) {
	var target *models.UserBillingAddress
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := lockAddresses(tx, userID)
		if err != nil {
			return err
		}
		for i := range rows {
			if rows[i].ID == addressID {
				target = &rows[i]
			}
		}
		if target == nil {
			return gorm.ErrRecordNotFound
		}
		if target.IsDefault {
			return nil
		}

		if err := clearDefault(tx, userID); err != nil {
			return err
		}
		target.IsDefault = true
		return tx.Model(target).Update("is_default", true).Error
	})
	if err != nil {
		return nil, err
	}
	return target, nil
}

func (r *GormRepo) DeleteAddress(ctx context.Context, userID uuid.UUID, addressID uint) error {
	res := r.DB.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&models.UserBillingAddress{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
