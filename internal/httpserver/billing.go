package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_school/internal/service"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/pkg/logging"
)

type BillingHTTP struct {
	Svc *service.BillingService
}

func (h *BillingHTTP) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "billing.list")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	addrs, err := h.Svc.ListAddresses(ctx, uid)
	if err != nil {
		return fail(l, "list_addresses_error", err)
	}

	out := make([]transport.BillingAddressResponse, 0, len(addrs))
	for i := range addrs {
		out = append(out, transport.NewBillingAddressResponse(&addrs[i]))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BillingHTTP) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "billing.create")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.BillingAddressRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_address_error", "invalid body", err)
	}

	a, err := h.Svc.CreateAddress(ctx, uid, req)
	if err != nil {
		return fail(l, "create_address_error", err)
	}

	l.Info("create_address_success", "address_id", a.ID, "is_default", a.IsDefault)
	return c.JSON(http.StatusCreated, transport.NewBillingAddressResponse(a))
}

func (h *BillingHTTP) SetDefault(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "billing.set_default")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	id, ok := uintParam(c.Param("id"))
	if !ok {
		return badRequest(l, "set_default_address_error", "invalid address id", nil)
	}

	a, err := h.Svc.SetDefault(ctx, uid, id)
	if err != nil {
		return fail(l, "set_default_address_error", err)
	}
	return c.JSON(http.StatusOK, transport.NewBillingAddressResponse(a))
}

func (h *BillingHTTP) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "billing.delete")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	id, ok := uintParam(c.Param("id"))
	if !ok {
		return badRequest(l, "delete_address_error", "invalid address id", nil)
	}

	if err := h.Svc.DeleteAddress(ctx, uid, id); err != nil {
		return fail(l, "delete_address_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
