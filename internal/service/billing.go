package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/transport"
)

type BillingService struct {
	Repo AddressStore
}

func ValidateAddress(req transport.BillingAddressRequest) error {
	var fe FieldErrors
	required := []struct{ field, value string }{
		{"name", req.Name},
		{"address_line", req.AddressLine},
		{"postal_code", req.PostalCode},
		{"phone", req.Phone},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			fe.add(r.field, "is required")
		}
	}
	return fe.orNil()
}

func (s *BillingService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]models.UserBillingAddress, error) {
	out, err := s.Repo.ListAddresses(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return out, nil
}

func (s *BillingService) CreateAddress(ctx context.Context, userID uuid.UUID, req transport.BillingAddressRequest) (*models.UserBillingAddress, error) {
	if err := ValidateAddress(req); err != nil {
		return nil, err
	}

	a := &models.UserBillingAddress{
		UserID:        userID,
		Name:          strings.TrimSpace(req.Name),
		AddressLine:   strings.TrimSpace(req.AddressLine),
		AddressDetail: strings.TrimSpace(req.AddressDetail),
		PostalCode:    strings.TrimSpace(req.PostalCode),
		Phone:         strings.TrimSpace(req.Phone),
		IsDefault:     req.IsDefault,
	}
	if err := s.Repo.CreateAddress(ctx, a); err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}
	return a, nil
}

func (s *BillingService) SetDefault(ctx context.Context, userID uuid.UUID, addressID uint) (*models.UserBillingAddress, error) {
	a, err := s.Repo.SetDefaultAddress(ctx, userID, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set default address: %w", err)
	}
	return a, nil
}

func (s *BillingService) DeleteAddress(ctx context.Context, userID uuid.UUID, addressID uint) error {
	err := s.Repo.DeleteAddress(ctx, userID, addressID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrAddressNotFound
	}
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}
