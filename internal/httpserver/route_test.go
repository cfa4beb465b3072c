package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_school/pkg/tokens"
)

var testSecret = []byte("route-test-secret")

func accessCookie(t *testing.T, role string) *http.Cookie {
	t.Helper()
	tok, err := tokens.SignAccessToken(tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}, testSecret)
	require.NoError(t, err)
	return &http.Cookie{Name: tokens.AccessCookie, Value: tok}
}

func TestRegister_Routes(t *testing.T) {
	f := newFixture(t)
	ready := errors.New("db down")
	Register(f.e, &Deps{
		CartHandler:    f.carts,
		OrderHandler:   f.orders,
		PaymentHandler: f.payments,
		ReceiptHandler: f.receipts,
		BillingHandler: f.billing,
		JWTSecret:      testSecret,
		Ready:          func(context.Context) error { return ready },
	})

	serve := func(method, target string, cookies ...*http.Cookie) int {
		req := httptest.NewRequest(method, target, nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		f.e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/health/live"))
	assert.Equal(t, http.StatusServiceUnavailable, serve(http.MethodGet, "/health/ready"))
	ready = nil
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/health/ready"))

	assert.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "/api/v1/cart"))
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/api/v1/cart", accessCookie(t, tokens.RoleStudent)))
	assert.Equal(t, http.StatusOK, serve(http.MethodGet, "/api/v1/receipts", accessCookie(t, tokens.RoleStudent)))
	assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, "/api/v1/orders/1/payment", accessCookie(t, tokens.RoleStudent)))
	assert.Equal(t, http.StatusBadRequest, serve(http.MethodGet, "/api/v1/orders/1/payment?status=bogus", accessCookie(t, tokens.RoleStudent)))

	assert.Equal(t, http.StatusForbidden, serve(http.MethodGet, "/api/v1/admin/receipts/search?q=go", accessCookie(t, tokens.RoleStudent)))
	assert.Equal(t, http.StatusServiceUnavailable, serve(http.MethodGet, "/api/v1/admin/receipts/search?q=go", accessCookie(t, tokens.RoleAdmin)))
}
