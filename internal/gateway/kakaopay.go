// Package gateway is the client for the Kakao Pay single-payment API:
// ready (request), approve and cancel (refund).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/pricing"
)

var (
	ErrRequestFailed  = errors.New("payment request failed")
	ErrApprovalFailed = errors.New("payment approval failed")
	ErrRefundFailed   = errors.New("payment refund failed")
)

const maxBodyBytes = 64 << 10

// Error carries the upstream status and raw body for logs. Neither is meant
// for end users.
type Error struct {
	Op         string
	StatusCode int
	Body       string

	kind  error
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("kakaopay %s: %v", e.Op, e.cause)
	}
	return fmt.Sprintf("kakaopay %s: status %d", e.Op, e.StatusCode)
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.kind, e.cause}
	}
	return []error{e.kind}
}

type Config struct {
	BaseURL         string
	SecretKey       string
	MerchantID      string
	CallbackBaseURL string
	Timeout         time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.CallbackBaseURL = strings.TrimRight(cfg.CallbackBaseURL, "/")

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type ReadyRequest struct {
	CID            string `json:"cid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	ItemName       string `json:"item_name"`
	Quantity       int    `json:"quantity"`
	TotalAmount    int64  `json:"total_amount"`
	TaxFreeAmount  int64  `json:"tax_free_amount"`
	ApprovalURL    string `json:"approval_url"`
	CancelURL      string `json:"cancel_url"`
	FailURL        string `json:"fail_url"`
}

type ReadyResponse struct {
	TID                   string `json:"tid"`
	NextRedirectPCURL     string `json:"next_redirect_pc_url"`
	NextRedirectMobileURL string `json:"next_redirect_mobile_url"`
	NextRedirectAppURL    string `json:"next_redirect_app_url"`
	CreatedAt             string `json:"created_at"`
}

type ApproveRequest struct {
	CID            string `json:"cid"`
	TID            string `json:"tid"`
	PartnerOrderID string `json:"partner_order_id"`
	PartnerUserID  string `json:"partner_user_id"`
	PGToken        string `json:"pg_token"`
}

type Amount struct {
	Total    int64 `json:"total"`
	TaxFree  int64 `json:"tax_free"`
	VAT      int64 `json:"vat"`
	Point    int64 `json:"point"`
	Discount int64 `json:"discount"`
}

type ApproveResponse struct {
	AID               string `json:"aid"`
	TID               string `json:"tid"`
	CID               string `json:"cid"`
	PartnerOrderID    string `json:"partner_order_id"`
	PartnerUserID     string `json:"partner_user_id"`
	PaymentMethodType string `json:"payment_method_type"`
	Amount            Amount `json:"amount"`
	ItemName          string `json:"item_name"`
	Quantity          int    `json:"quantity"`
	ApprovedAt        string `json:"approved_at"`
}

type CancelRequest struct {
	CID                 string `json:"cid"`
	TID                 string `json:"tid"`
	CancelAmount        int64  `json:"cancel_amount"`
	CancelTaxFreeAmount int64  `json:"cancel_tax_free_amount"`
}

type CancelResponse struct {
	AID                  string `json:"aid"`
	TID                  string `json:"tid"`
	CID                  string `json:"cid"`
	Status               string `json:"status"`
	Amount               Amount `json:"amount"`
	ApprovedCancelAmount Amount `json:"approved_cancel_amount"`
	CanceledAt           string `json:"canceled_at"`
}

// ItemName is the first item's name, suffixed with the number of further
// items.
func ItemName(order *models.Order) string {
	if len(order.Items) == 0 {
		return pricing.UnknownProduct
	}
	name, _ := pricing.ForOrderItem(order.Items[0])
	if n := len(order.Items) - 1; n > 0 {
		return fmt.Sprintf("%s and %d more", name, n)
	}
	return name
}

func (c *Client) callbackURL(result string, orderID uint) string {
	q := url.Values{}
	q.Set("result", result)
	q.Set("order_id", fmt.Sprint(orderID))
	return c.cfg.CallbackBaseURL + "/api/v1/payment?" + q.Encode()
}

func (c *Client) RequestPayment(ctx context.Context, order *models.Order) (*ReadyResponse, error) {
	req := ReadyRequest{
		CID:            c.cfg.MerchantID,
		PartnerOrderID: fmt.Sprint(order.ID),
		PartnerUserID:  order.UserID.String(),
		ItemName:       ItemName(order),
		Quantity:       len(order.Items),
		TotalAmount:    order.TotalPrice(),
		TaxFreeAmount:  0,
		ApprovalURL:    c.callbackURL("success", order.ID),
		CancelURL:      c.callbackURL("cancel", order.ID),
		FailURL:        c.callbackURL("fail", order.ID),
	}

	var out ReadyResponse
	if err := c.post(ctx, "ready", req, &out, ErrRequestFailed); err != nil {
		return nil, err
	}
	if out.TID == "" {
		return nil, &Error{Op: "ready", StatusCode: http.StatusOK, kind: ErrRequestFailed, cause: errors.New("empty tid")}
	}
	return &out, nil
}

func (c *Client) ApprovePayment(ctx context.Context, p *models.Payment, pgToken string) (*ApproveResponse, error) {
	req := ApproveRequest{
		CID:            c.cfg.MerchantID,
		TID:            p.TransactionID,
		PartnerOrderID: fmt.Sprint(p.OrderID),
		PartnerUserID:  p.UserID.String(),
		PGToken:        pgToken,
	}

	var out ApproveResponse
	if err := c.post(ctx, "approve", req, &out, ErrApprovalFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RefundPayment(ctx context.Context, p *models.Payment) (*CancelResponse, error) {
	req := CancelRequest{
		CID:                 c.cfg.MerchantID,
		TID:                 p.TransactionID,
		CancelAmount:        p.Amount,
		CancelTaxFreeAmount: 0,
	}

	var out CancelResponse
	if err := c.post(ctx, "cancel", req, &out, ErrRefundFailed); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, op string, body, out any, kind error) error {
	fail := func(status int, raw string, cause error) error {
		return &Error{Op: op, StatusCode: status, Body: raw, kind: kind, cause: cause}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fail(0, "", fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/online/v1/payment/"+op, bytes.NewReader(payload))
	if err != nil {
		return fail(0, "", fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Authorization", "SECRET_KEY "+c.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, string(raw), nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fail(resp.StatusCode, string(raw), fmt.Errorf("decode response: %w", err))
	}
	return nil
}
