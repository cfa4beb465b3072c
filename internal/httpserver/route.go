package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/online_school/pkg/middleware/auth"
)

type Deps struct {
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP
	ReceiptHandler *ReceiptHTTP
	BillingHandler *BillingHTTP

	JWTSecret  []byte
	AuthClient authmw.Refresher

	// Ready reports whether the backing stores answer; nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := authmw.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	api := e.Group("/api/v1")
	user := api.Group("", authMW.RequireAuth)

	user.GET("/cart", d.CartHandler.GetCart)
	user.POST("/cart", d.CartHandler.AddToCart)
	user.DELETE("/cart/item/:id", d.CartHandler.RemoveFromCart)

	user.GET("/order", d.OrderHandler.GetPendingOrder)
	user.POST("/order", d.OrderHandler.Checkout)
	user.GET("/orders", d.OrderHandler.ListOrders)
	user.GET("/orders/:id", d.OrderHandler.GetOrder)
	user.GET("/orders/:id/payment", d.PaymentHandler.OrderPayment)

	user.POST("/payment", d.PaymentHandler.CreatePayment)
	user.GET("/payment", d.PaymentHandler.Callback)
	user.GET("/payments/:id", d.PaymentHandler.GetPayment)
	user.DELETE("/payment-cancel/:order_id", d.PaymentHandler.Refund)

	user.GET("/receipts", d.ReceiptHandler.ListReceipts)
	user.GET("/receipts/:id", d.ReceiptHandler.GetReceipt)

	user.GET("/billing-addresses", d.BillingHandler.ListAddresses)
	user.POST("/billing-addresses", d.BillingHandler.CreateAddress)
	user.PUT("/billing-addresses/:id/default", d.BillingHandler.SetDefault)
	user.DELETE("/billing-addresses/:id", d.BillingHandler.DeleteAddress)

	admin := api.Group("/admin", authMW.RequireAdmin)
	admin.GET("/receipts/search", d.ReceiptHandler.SearchReceipts)
}
