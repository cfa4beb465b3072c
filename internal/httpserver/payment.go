package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/service"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/pkg/logging"
)

// Values of the result query parameter on the gateway callback.
const (
	ResultSuccess = "success"
	ResultCancel  = "cancel"
	ResultFail    = "fail"
)

type PaymentHTTP struct {
	Svc   *service.PaymentService
	Carts *service.CartService
}

func (h *PaymentHTTP) CreatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.create")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_payment_error", "invalid body", err)
	}
	if req.OrderID == 0 {
		return badRequest(l, "create_payment_error", "order_id is required", nil)
	}

	p, ready, err := h.Svc.CreatePayment(ctx, uid, req.OrderID)
	if err != nil {
		return fail(l.With("order_id", req.OrderID), "create_payment_error", err)
	}

	l.Info("create_payment_success", "payment_id", p.ID, "order_id", p.OrderID, "amount", p.Amount)
	return c.JSON(http.StatusCreated, transport.CreatePaymentResponse{
		Payment:           transport.NewPaymentResponse(p),
		RedirectURL:       ready.NextRedirectPCURL,
		MobileRedirectURL: ready.NextRedirectMobileURL,
		AppRedirectURL:    ready.NextRedirectAppURL,
	})
}

// Callback receives the browser back from the gateway. On success the
// pending payment is approved with pg_token and the purchased products leave
// the cart.
func (h *PaymentHTTP) Callback(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.callback")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	orderID, ok := uintParam(c.QueryParam("order_id"))
	if !ok {
		return badRequest(l, "payment_callback_error", "invalid order_id", nil)
	}
	result := c.QueryParam("result")
	l = l.With("order_id", orderID, "result", result)

	switch result {
	case ResultSuccess:
		p, err := h.Svc.ProcessPayment(ctx, uid, orderID, c.QueryParam("pg_token"))
		if err != nil {
			return fail(l, "process_payment_error", err)
		}
		if h.Carts != nil && p.Order != nil {
			if err := h.Carts.RemovePurchased(ctx, uid, p.Order); err != nil {
				l.Warn("remove_purchased_after_payment_error", "error", err)
			}
		}
		l.Info("payment_completed", "payment_id", p.ID, "transaction_id", p.TransactionID)
		return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))

	case ResultCancel:
		p, err := h.Svc.CancelPayment(ctx, uid, orderID)
		if err != nil {
			return fail(l, "cancel_payment_error", err)
		}
		l.Info("payment_cancelled", "payment_id", p.ID)
		return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))

	case ResultFail:
		p, err := h.Svc.FailPayment(ctx, uid, orderID)
		if err != nil {
			return fail(l, "fail_payment_error", err)
		}
		l.Info("payment_failed", "payment_id", p.ID)
		return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
	}

	return badRequest(l, "payment_callback_error", "unknown result", nil)
}

func (h *PaymentHTTP) Refund(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.refund")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	orderID, ok := uintParam(c.Param("order_id"))
	if !ok {
		return badRequest(l, "refund_error", "invalid order id", nil)
	}
	l = l.With("order_id", orderID)

	p, err := h.Svc.RefundPayment(ctx, uid, orderID)
	if err != nil {
		return fail(l, "refund_error", err)
	}

	l.Info("refund_success", "payment_id", p.ID, "transaction_id", p.TransactionID)
	return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
}

func (h *PaymentHTTP) GetPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	id, ok := uintParam(c.Param("id"))
	if !ok {
		return badRequest(l, "get_payment_error", "invalid payment id", nil)
	}

	p, err := h.Svc.GetPayment(ctx, uid, id)
	if err != nil {
		return fail(l, "get_payment_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
}

// OrderPayment returns the newest payment of an order. Without a status
// filter it looks for the pending one.
func (h *PaymentHTTP) OrderPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.order")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	orderID, ok := uintParam(c.Param("id"))
	if !ok {
		return badRequest(l, "order_payment_error", "invalid order id", nil)
	}
	l = l.With("order_id", orderID)

	var p *models.Payment
	status := models.PaymentStatus(c.QueryParam("status"))
	switch {
	case status == "":
		p, err = h.Svc.LatestPendingPayment(ctx, uid, orderID)
	case status.Valid():
		p, err = h.Svc.PaymentForOrder(ctx, uid, orderID, status)
	default:
		return badRequest(l, "order_payment_error", "unknown status", nil)
	}
	if err != nil {
		return fail(l, "order_payment_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewPaymentResponse(p))
}
