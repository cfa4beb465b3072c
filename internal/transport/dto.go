package transport

import "time"

type AddCartItemRequest struct {
	CurriculumID *uint `json:"curriculum_id"`
	CourseID     *uint `json:"course_id"`
	Quantity     *uint `json:"quantity"`
}

type CartItemResponse struct {
	ID           uint   `json:"id"`
	CurriculumID *uint  `json:"curriculum_id,omitempty"`
	CourseID     *uint  `json:"course_id,omitempty"`
	Name         string `json:"name"`
	UnitPrice    int64  `json:"unit_price"`
	Quantity     uint   `json:"quantity"`
	LinePrice    int64  `json:"line_price"`
}

type CartResponse struct {
	ID         uint               `json:"id"`
	Items      []CartItemResponse `json:"items"`
	TotalItems uint               `json:"total_items"`
	TotalPrice int64              `json:"total_price"`
}

type OrderItemResponse struct {
	ID           uint       `json:"id"`
	CurriculumID *uint      `json:"curriculum_id,omitempty"`
	CourseID     *uint      `json:"course_id,omitempty"`
	Name         string     `json:"name"`
	Quantity     uint       `json:"quantity"`
	UnitPrice    int64      `json:"unit_price"`
	LinePrice    int64      `json:"line_price"`
	ExpiryDate   *time.Time `json:"expiry_date"`
}

type OrderResponse struct {
	ID         uint                `json:"id"`
	Status     string              `json:"status"`
	Items      []OrderItemResponse `json:"items"`
	TotalPrice int64               `json:"total_price"`
	CreatedAt  time.Time           `json:"created_at"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Size   int             `json:"size"`
}

type CreatePaymentRequest struct {
	OrderID uint `json:"order_id"`
}

type PaymentResponse struct {
	ID               uint       `json:"id"`
	OrderID          uint       `json:"order_id"`
	Status           string     `json:"status"`
	Amount           int64      `json:"amount"`
	TransactionID    string     `json:"transaction_id"`
	BillingAddressID *uint      `json:"billing_address_id,omitempty"`
	PaidAt           *time.Time `json:"paid_at"`
	CancelledAt      *time.Time `json:"cancelled_at"`
}

type CreatePaymentResponse struct {
	Payment           PaymentResponse `json:"payment"`
	RedirectURL       string          `json:"next_redirect_pc_url"`
	MobileRedirectURL string          `json:"next_redirect_mobile_url,omitempty"`
	AppRedirectURL    string          `json:"next_redirect_app_url,omitempty"`
}

type Receipt struct {
	ID            uint       `json:"id"`
	ReceiptNumber string     `json:"receipt_number"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	PaidAt        *time.Time `json:"paid_at"`
	OrderID       uint       `json:"order_id"`
}

type ReceiptLine struct {
	Name      string `json:"name"`
	Quantity  uint   `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	LinePrice int64  `json:"line_price"`
}

type ReceiptDetail struct {
	Receipt
	UserID         string                  `json:"user_id"`
	TransactionID  string                  `json:"transaction_id"`
	CancelledAt    *time.Time              `json:"cancelled_at"`
	Items          []ReceiptLine           `json:"items"`
	BillingAddress *BillingAddressResponse `json:"billing_address"`
}

type ReceiptListResponse struct {
	Receipts []Receipt `json:"receipts"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Size     int       `json:"size"`
}

type ReceiptSearchResponse struct {
	Total int64           `json:"total"`
	Hits  []ReceiptDetail `json:"hits"`
	Page  int             `json:"page"`
	Size  int             `json:"size"`
}

type BillingAddressRequest struct {
	Name          string `json:"name"`
	AddressLine   string `json:"address_line"`
	AddressDetail string `json:"address_detail"`
	PostalCode    string `json:"postal_code"`
	Phone         string `json:"phone"`
	IsDefault     bool   `json:"is_default"`
}

type BillingAddressResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	AddressLine   string `json:"address_line"`
	AddressDetail string `json:"address_detail"`
	PostalCode    string `json:"postal_code"`
	Phone         string `json:"phone"`
	IsDefault     bool   `json:"is_default"`
}

type ErrorResponse struct {
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
