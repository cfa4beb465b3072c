package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_school/internal/models"
)

func newTestClient(url string) *Client {
	return New(Config{
		BaseURL:         url,
		SecretKey:       "sk-test",
		MerchantID:      "TC0ONETIME",
		CallbackBaseURL: "https://school.example/",
		Timeout:         time.Second,
	})
}

func sampleOrder() *models.Order {
	return &models.Order{
		ID:     42,
		UserID: uuid.MustParse("2f1d7c0e-4b7e-4f59-9a53-6a1f0f6f1e11"),
		Items: []models.OrderItem{
			{Course: &models.Course{Name: "Go Basics"}, Quantity: 1, UnitPrice: 10000},
			{Curriculum: &models.Curriculum{Name: "Backend Track"}, Quantity: 2, UnitPrice: 15000},
			{Quantity: 1, UnitPrice: 500},
		},
	}
}

func TestItemName(t *testing.T) {
	assert.Equal(t, "Go Basics and 2 more", ItemName(sampleOrder()))

	single := &models.Order{Items: []models.OrderItem{{Course: &models.Course{Name: "Go Basics"}}}}
	assert.Equal(t, "Go Basics", ItemName(single))
}

func TestRequestPayment_SendsReadyRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/online/v1/payment/ready", r.URL.Path)
		assert.Equal(t, "SECRET_KEY sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body ReadyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "TC0ONETIME", body.CID)
		assert.Equal(t, "42", body.PartnerOrderID)
		assert.Equal(t, "2f1d7c0e-4b7e-4f59-9a53-6a1f0f6f1e11", body.PartnerUserID)
		assert.Equal(t, "Go Basics and 2 more", body.ItemName)
		assert.Equal(t, 3, body.Quantity)
		assert.EqualValues(t, 40500, body.TotalAmount)
		assert.Zero(t, body.TaxFreeAmount)
		assert.Equal(t, "https://school.example/api/v1/payment?order_id=42&result=success", body.ApprovalURL)
		assert.Equal(t, "https://school.example/api/v1/payment?order_id=42&result=cancel", body.CancelURL)
		assert.Equal(t, "https://school.example/api/v1/payment?order_id=42&result=fail", body.FailURL)

		_ = json.NewEncoder(w).Encode(ReadyResponse{TID: "T123", NextRedirectPCURL: "https://pay.example/redirect"})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).RequestPayment(context.Background(), sampleOrder())
	require.NoError(t, err)
	assert.Equal(t, "T123", res.TID)
	assert.Equal(t, "https://pay.example/redirect", res.NextRedirectPCURL)
}

func TestRequestPayment_NonSuccessCapturesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":-780,"error_message":"approval failure"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).RequestPayment(context.Background(), sampleOrder())
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrRequestFailed)

	var gwErr *Error
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusBadRequest, gwErr.StatusCode)
	assert.Contains(t, gwErr.Body, "approval failure")
	assert.NotContains(t, gwErr.Error(), "approval failure")
}

func TestRequestPayment_TimeoutIsRequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	c.httpClient.Timeout = 20 * time.Millisecond

	_, err := c.RequestPayment(context.Background(), sampleOrder())
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestApprovePayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/online/v1/payment/approve", r.URL.Path)

		var body ApproveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "T123", body.TID)
		assert.Equal(t, "pg-token", body.PGToken)
		assert.Equal(t, "42", body.PartnerOrderID)

		_ = json.NewEncoder(w).Encode(ApproveResponse{AID: "A1", TID: body.TID, Amount: Amount{Total: 10000}})
	}))
	defer srv.Close()

	p := &models.Payment{OrderID: 42, UserID: uuid.New(), TransactionID: "T123", Amount: 10000}
	res, err := newTestClient(srv.URL).ApprovePayment(context.Background(), p, "pg-token")
	require.NoError(t, err)
	assert.Equal(t, "A1", res.AID)
	assert.EqualValues(t, 10000, res.Amount.Total)
}

func TestApprovePayment_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ApprovePayment(context.Background(), &models.Payment{TransactionID: "T"}, "x")
	assert.ErrorIs(t, err, ErrApprovalFailed)
	assert.NotErrorIs(t, err, ErrRequestFailed)
}

func TestRefundPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/online/v1/payment/cancel", r.URL.Path)

		var body CancelRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "T123", body.TID)
		assert.EqualValues(t, 25000, body.CancelAmount)
		assert.Zero(t, body.CancelTaxFreeAmount)

		_ = json.NewEncoder(w).Encode(CancelResponse{TID: body.TID, Status: "CANCEL_PAYMENT"})
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).RefundPayment(context.Background(), &models.Payment{TransactionID: "T123", Amount: 25000})
	require.NoError(t, err)
	assert.Equal(t, "CANCEL_PAYMENT", res.Status)
}

func TestRefundPayment_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).RefundPayment(context.Background(), &models.Payment{TransactionID: "T"})
	assert.ErrorIs(t, err, ErrRefundFailed)
}
