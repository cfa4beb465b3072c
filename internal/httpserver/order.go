package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_school/internal/service"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/internal/util"
	"github.com/Skotchmaster/online_school/pkg/logging"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

// GetPendingOrder returns the user's newest order still awaiting payment.
func (h *OrderHTTP) GetPendingOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.pending")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.PendingOrder(ctx, uid)
	if err != nil {
		return fail(l, "get_pending_order_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}

// Checkout snapshots the cart into a new pending order. The cart is left
// intact until the payment completes.
func (h *OrderHTTP) Checkout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	order, err := h.Svc.Checkout(ctx, uid)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.TotalPrice())
	return c.JSON(http.StatusCreated, transport.NewOrderResponse(order))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	page := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	orders, total, err := h.Svc.ListOrders(ctx, uid, page)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}

	out := transport.OrderListResponse{
		Orders: make([]transport.OrderResponse, 0, len(orders)),
		Total:  total,
		Page:   page.Page,
		Size:   page.Size,
	}
	for i := range orders {
		out.Orders = append(out.Orders, transport.NewOrderResponse(&orders[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	orderID, ok := uintParam(c.Param("id"))
	if !ok {
		return badRequest(l, "get_order_error", "invalid order id", nil)
	}

	order, err := h.Svc.GetOrder(ctx, uid, orderID)
	if err != nil {
		return fail(l, "get_order_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewOrderResponse(order))
}
