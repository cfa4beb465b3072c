package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/online_school/internal/gateway"
	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/pkg/events"
	"github.com/Skotchmaster/online_school/pkg/logging"
)

type Policy struct {
	// Ceiling is the largest order total that may be paid.
	Ceiling int64
	// ItemLifetime is how long purchased items stay accessible.
	ItemLifetime time.Duration
	// RefundWindow is how long after payment a refund is accepted.
	RefundWindow time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Ceiling:      50000,
		ItemLifetime: 730 * 24 * time.Hour,
		RefundWindow: 7 * 24 * time.Hour,
	}
}

// PaymentService drives a payment through
// pending -> {completed, failed, cancelled} and completed -> refunded.
type PaymentService struct {
	Repo     PaymentStore
	Gateway  Gateway
	Locker   Locker
	Events   events.Publisher
	Receipts ReceiptIndexer
	Policy   Policy
	Now      func() time.Time
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func orderLockKey(orderID uint) string {
	return fmt.Sprintf("order:%d", orderID)
}

func (s *PaymentService) lockOrder(ctx context.Context, orderID uint) (func(), error) {
	if s.Locker == nil {
		return func() {}, nil
	}
	unlock, err := s.Locker.Lock(ctx, orderLockKey(orderID))
	if err != nil {
		return nil, fmt.Errorf("lock order %d: %w", orderID, err)
	}
	return unlock, nil
}

func transition(p *models.Payment, next models.PaymentStatus) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, p.Status, next)
	}
	p.Status = next
	return nil
}

func (s *PaymentService) ValidateOrderForPayment(order *models.Order) error {
	if order.Status != models.OrderStatusPending {
		return fmt.Errorf("%w: status %s", ErrOrderNotPending, order.Status)
	}
	if total := order.TotalPrice(); s.Policy.Ceiling > 0 && total > s.Policy.Ceiling {
		return fmt.Errorf("%w: %d > %d", ErrAmountExceedsCeiling, total, s.Policy.Ceiling)
	}
	return nil
}

func (s *PaymentService) loadOrder(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, userID, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// CreatePayment starts a gateway payment for a pending order. Stale pending
// payments of the order are cancelled and committed before the gateway is
// called, and again atomically with the insert, so at most one payment per
// order is ever pending.
func (s *PaymentService) CreatePayment(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Payment, *gateway.ReadyResponse, error) {
	l := logging.FromContext(ctx).With("order_id", orderID)

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	defer unlock()

	order, err := s.loadOrder(ctx, userID, orderID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.ValidateOrderForPayment(order); err != nil {
		return nil, nil, err
	}

	now := s.now()
	superseded, err := s.Repo.SupersedePending(ctx, order.ID, now)
	if err != nil {
		return nil, nil, fmt.Errorf("supersede pending payments: %w", err)
	}
	if superseded > 0 {
		l.Info("pending_payments_superseded", "count", superseded)
	}

	ready, err := s.Gateway.RequestPayment(ctx, order)
	if err != nil {
		logGatewayError(l, "payment_request_failed", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrPaymentRequestFailed, err)
	}

	p := &models.Payment{
		UserID:        userID,
		OrderID:       order.ID,
		Amount:        order.TotalPrice(),
		TransactionID: ready.TID,
	}

	addr, err := s.Repo.DefaultAddress(ctx, userID)
	switch {
	case err == nil:
		p.BillingAddressID = &addr.ID
		p.Billing = models.NewBillingSnapshot(addr)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, fmt.Errorf("default billing address: %w", err)
	}

	err = s.Repo.CreatePendingPayment(ctx, p, now, func(locked *models.Order) error {
		if err := s.ValidateOrderForPayment(locked); err != nil {
			return err
		}
		p.Amount = locked.TotalPrice()
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("create payment: %w", err)
	}

	publish(ctx, s.Events, events.TopicPayment, events.PaymentRequested, userID, paymentPayload(p))
	return p, ready, nil
}

// ProcessPayment approves the pending payment of an order with the one-time
// token returned by the gateway. A failed approval is recorded as a failed
// payment.
func (s *PaymentService) ProcessPayment(ctx context.Context, userID uuid.UUID, orderID uint, pgToken string) (*models.Payment, error) {
	if pgToken == "" {
		return nil, ErrMissingApprovalToken
	}
	l := logging.FromContext(ctx).With("order_id", orderID)

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := s.findPayment(ctx, userID, orderID, models.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	if _, err := s.Gateway.ApprovePayment(ctx, p, pgToken); err != nil {
		logGatewayError(l, "payment_approval_failed", err)
		failed, ferr := s.Repo.UpdatePaymentState(ctx, p.ID, func(p *models.Payment) error {
			return transition(p, models.PaymentStatusFailed)
		})
		if ferr != nil {
			l.Error("mark_payment_failed_error", "payment_id", p.ID, "error", ferr)
		} else {
			publish(ctx, s.Events, events.TopicPayment, events.PaymentFailed, userID, paymentPayload(failed))
		}
		return nil, fmt.Errorf("%w: %w", ErrPaymentApprovalFailed, err)
	}

	now := s.now()
	done, err := s.Repo.UpdatePaymentState(ctx, p.ID, func(p *models.Payment) error {
		if err := transition(p, models.PaymentStatusCompleted); err != nil {
			return err
		}
		p.PaidAt = &now
		p.Order.Status = models.OrderStatusCompleted
		expiry := now.Add(s.Policy.ItemLifetime)
		for i := range p.Order.Items {
			it := &p.Order.Items[i]
			if it.ExpiryDate == nil || it.ExpiryDate.Before(now) {
				e := expiry
				it.ExpiryDate = &e
			}
		}
		return nil
	})
	if err != nil {
		l.Error("complete_payment_error", "payment_id", p.ID, "transaction_id", p.TransactionID, "error", err)
		return nil, fmt.Errorf("complete payment: %w", err)
	}

	s.indexReceipt(ctx, done)
	publish(ctx, s.Events, events.TopicPayment, events.PaymentCompleted, userID, paymentPayload(done))
	return done, nil
}

// CancelPayment records that the user abandoned the pending payment at the
// gateway; the order is cancelled with it.
func (s *PaymentService) CancelPayment(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Payment, error) {
	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := s.findPayment(ctx, userID, orderID, models.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	now := s.now()
	done, err := s.Repo.UpdatePaymentState(ctx, p.ID, func(p *models.Payment) error {
		if err := transition(p, models.PaymentStatusCancelled); err != nil {
			return err
		}
		p.CancelledAt = &now
		p.Order.Status = models.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, s.stateError("cancel payment", err)
	}

	publish(ctx, s.Events, events.TopicPayment, events.PaymentCancelled, userID, paymentPayload(done))
	return done, nil
}

// FailPayment marks the pending payment failed. The order stays pending so
// it can be paid again.
func (s *PaymentService) FailPayment(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Payment, error) {
	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	p, err := s.findPayment(ctx, userID, orderID, models.PaymentStatusPending)
	if err != nil {
		return nil, err
	}

	done, err := s.Repo.UpdatePaymentState(ctx, p.ID, func(p *models.Payment) error {
		return transition(p, models.PaymentStatusFailed)
	})
	if err != nil {
		return nil, s.stateError("fail payment", err)
	}

	publish(ctx, s.Events, events.TopicPayment, events.PaymentFailed, userID, paymentPayload(done))
	return done, nil
}

// RefundPayment refunds the completed payment of a completed order within
// the refund window.
func (s *PaymentService) RefundPayment(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Payment, error) {
	l := logging.FromContext(ctx).With("order_id", orderID)

	unlock, err := s.lockOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	order, err := s.loadOrder(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: status %s", ErrOrderNotCompleted, order.Status)
	}

	p, err := s.findPayment(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	if p.Status != models.PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: status %s", ErrPaymentNotCompleted, p.Status)
	}
	if p.PaidAt == nil {
		l.Error("payment_missing_paid_at", "payment_id", p.ID, "transaction_id", p.TransactionID)
		return nil, fmt.Errorf("%w: payment %d", ErrMissingPaidTimestamp, p.ID)
	}

	now := s.now()
	if now.Sub(*p.PaidAt) > s.Policy.RefundWindow {
		return nil, ErrRefundWindowExpired
	}

	if _, err := s.Gateway.RefundPayment(ctx, p); err != nil {
		logGatewayError(l, "refund_failed", err)
		return nil, fmt.Errorf("%w: %w", ErrRefundFailed, err)
	}

	done, err := s.Repo.UpdatePaymentState(ctx, p.ID, func(p *models.Payment) error {
		if err := transition(p, models.PaymentStatusRefunded); err != nil {
			return err
		}
		p.CancelledAt = &now
		p.Order.Status = models.OrderStatusRefunded
		for i := range p.Order.Items {
			p.Order.Items[i].ExpiryDate = nil
		}
		return nil
	})
	if err != nil {
		l.Error("refund_persist_error", "payment_id", p.ID, "transaction_id", p.TransactionID, "error", err)
		return nil, fmt.Errorf("refund payment: %w", err)
	}

	s.indexReceipt(ctx, done)
	publish(ctx, s.Events, events.TopicPayment, events.PaymentRefunded, userID, paymentPayload(done))
	return done, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, userID uuid.UUID, paymentID uint) (*models.Payment, error) {
	p, err := s.Repo.GetPayment(ctx, paymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && p.UserID != userID) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (s *PaymentService) LatestPendingPayment(ctx context.Context, userID uuid.UUID, orderID uint) (*models.Payment, error) {
	return s.findPayment(ctx, userID, orderID, models.PaymentStatusPending)
}

func (s *PaymentService) PaymentForOrder(ctx context.Context, userID uuid.UUID, orderID uint, status models.PaymentStatus) (*models.Payment, error) {
	return s.findPayment(ctx, userID, orderID, status)
}

func (s *PaymentService) findPayment(ctx context.Context, userID uuid.UUID, orderID uint, statuses ...models.PaymentStatus) (*models.Payment, error) {
	p, err := s.Repo.FindPayment(ctx, userID, orderID, statuses...)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return p, nil
}

func (s *PaymentService) stateError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPaymentNotFound
	}
	if errors.Is(err, ErrIllegalTransition) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *PaymentService) indexReceipt(ctx context.Context, p *models.Payment) {
	if s.Receipts == nil {
		return
	}
	if err := s.Receipts.IndexReceipt(ctx, transport.NewReceiptDetail(p)); err != nil {
		logging.FromContext(ctx).Warn("index_receipt_failed", "payment_id", p.ID, "error", err)
	}
}

func paymentPayload(p *models.Payment) map[string]any {
	return map[string]any{
		"payment_id":     p.ID,
		"order_id":       p.OrderID,
		"status":         p.Status,
		"amount":         p.Amount,
		"transaction_id": p.TransactionID,
	}
}

func logGatewayError(l *slog.Logger, msg string, err error) {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		l.Error(msg, "op", gwErr.Op, "status", gwErr.StatusCode, "body", gwErr.Body, "error", err)
		return
	}
	l.Error(msg, "error", err)
}
