package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/online_school/internal/service"
	"github.com/Skotchmaster/online_school/internal/transport"
	"github.com/Skotchmaster/online_school/internal/util"
	"github.com/Skotchmaster/online_school/pkg/logging"
)

type ReceiptHTTP struct {
	Svc *service.ReceiptService
}

func (h *ReceiptHTTP) ListReceipts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "receipt.list")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	page := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	receipts, total, err := h.Svc.ListReceipts(ctx, uid, page)
	if err != nil {
		return fail(l, "list_receipts_error", err)
	}

	return c.JSON(http.StatusOK, transport.ReceiptListResponse{
		Receipts: receipts,
		Total:    total,
		Page:     page.Page,
		Size:     page.Size,
	})
}

func (h *ReceiptHTTP) GetReceipt(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "receipt.get")

	uid, err := userID(c)
	if err != nil {
		return err
	}

	id, ok := uintParam(c.Param("id"))
	if !ok {
		return badRequest(l, "get_receipt_error", "invalid receipt id", nil)
	}

	d, err := h.Svc.ReceiptDetail(ctx, uid, id)
	if err != nil {
		return fail(l.With("payment_id", id), "get_receipt_error", err)
	}

	return c.JSON(http.StatusOK, d)
}

// SearchReceipts is the admin full-text search over the receipt audit index.
func (h *ReceiptHTTP) SearchReceipts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "receipt.search")

	page := util.ParsePage(c.QueryParam("page"), c.QueryParam("size"))
	q := c.QueryParam("q")

	total, hits, err := h.Svc.SearchReceipts(ctx, q, page)
	if err != nil {
		return fail(l.With("q", q), "search_receipts_error", err)
	}
	if hits == nil {
		hits = []transport.ReceiptDetail{}
	}

	return c.JSON(http.StatusOK, transport.ReceiptSearchResponse{
		Total: total,
		Hits:  hits,
		Page:  page.Page,
		Size:  page.Size,
	})
}
