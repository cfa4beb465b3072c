package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/internal/util"
)

// ReceiptService is a read-only projection of completed and refunded
// payments.
type ReceiptService struct {
	Repo   ReceiptStore
	Search ReceiptSearcher
}

func isReceipt(p *models.Payment) bool {
	return p.Status == models.PaymentStatusCompleted || p.Status == models.PaymentStatusRefunded
}

func (s *ReceiptService) ListReceipts(ctx context.Context, userID uuid.UUID, page util.Page) ([]transport.Receipt, int64, error) {
	payments, total, err := s.Repo.ListReceipts(ctx, userID, page.Offset, page.Size)
	if err != nil {
		return nil, 0, fmt.Errorf("list receipts: %w", err)
	}

	out := make([]transport.Receipt, 0, len(payments))
	for i := range payments {
		out = append(out, transport.NewReceipt(&payments[i]))
	}
	return out, total, nil
}

func (s *ReceiptService) ReceiptDetail(ctx context.Context, userID uuid.UUID, paymentID uint) (*transport.ReceiptDetail, error) {
	p, err := s.Repo.GetPayment(ctx, paymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if p.UserID != userID {
		return nil, ErrReceiptForbidden
	}
	if !isReceipt(p) {
		return nil, ErrReceiptNotFound
	}

	d := transport.NewReceiptDetail(p)
	return &d, nil
}

// SearchReceipts queries the audit index across all users.
func (s *ReceiptService) SearchReceipts(ctx context.Context, query string, page util.Page) (int64, []transport.ReceiptDetail, error) {
	if s.Search == nil {
		return 0, nil, ErrSearchUnavailable
	}
	return s.Search.SearchReceipts(ctx, query, page.Offset, page.Size)
}
