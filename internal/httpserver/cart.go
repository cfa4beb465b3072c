package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/service"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.GetCart(ctx, uid)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}

	return c.JSON(http.StatusOK, transport.NewCartResponse(cart))
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}
	qty := uint(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	ref := models.ProductRef{CurriculumID: req.CurriculumID, CourseID: req.CourseID}
	item, err := h.Svc.AddItem(ctx, uid, ref, qty)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("cart_item_added", "item_id", item.ID, "product", ref.Key())
	return c.JSON(http.StatusCreated, transport.NewCartItemResponse(*item))
}

func (h *CartHTTP) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	itemID, ok := uintParam(c.Param("id"))
	if !ok {
		return badRequest(l, "remove_from_cart_error", "invalid item id", nil)
	}

	if err := h.Svc.RemoveItem(ctx, uid, itemID); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}

	l.Info("cart_item_removed", "item_id", itemID)
	return c.NoContent(http.StatusNoContent)
}
