package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Curriculum and Course are owned by the content service; this service only
// reads them to price line items.
type Curriculum struct {
	ID    uint   `gorm:"primaryKey"          json:"id"`
	Name  string `gorm:"not null"            json:"name"`
	Price int64  `gorm:"not null;check:price>=0" json:"price"`
}

type Course struct {
	ID           uint        `gorm:"primaryKey"          json:"id"`
	CurriculumID *uint       `gorm:"index"               json:"curriculum_id,omitempty"`
	Curriculum   *Curriculum `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Name         string      `gorm:"not null"            json:"name"`
	Price        int64       `gorm:"not null;check:price>=0" json:"price"`
}

var ErrInvalidProductRef = errors.New("exactly one of curriculum_id or course_id must be set")

// ProductRef points at exactly one of a Curriculum or a Course.
type ProductRef struct {
	CurriculumID *uint `json:"curriculum_id,omitempty"`
	CourseID     *uint `json:"course_id,omitempty"`
}

func (p ProductRef) Validate() error {
	if (p.CurriculumID == nil) == (p.CourseID == nil) {
		return ErrInvalidProductRef
	}
	return nil
}

// Key is stable per product and distinguishes the two product kinds.
func (p ProductRef) Key() string {
	switch {
	case p.CurriculumID != nil:
		return fmt.Sprintf("curriculum:%d", *p.CurriculumID)
	case p.CourseID != nil:
		return fmt.Sprintf("course:%d", *p.CourseID)
	default:
		return ""
	}
}

type Cart struct {
	ID        uint       `gorm:"primaryKey"                 json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt time.Time  `json:"created_at"`
}

type CartItem struct {
	ID           uint        `gorm:"primaryKey"                                 json:"id"`
	CartID       uint        `gorm:"not null;uniqueIndex:idx_cart_product"     json:"cart_id"`
	CurriculumID *uint       `gorm:"index"                                      json:"curriculum_id,omitempty"`
	Curriculum   *Curriculum `gorm:"constraint:OnDelete:CASCADE"               json:"-"`
	CourseID     *uint       `gorm:"index"                                      json:"course_id,omitempty"`
	Course       *Course     `gorm:"constraint:OnDelete:CASCADE"               json:"-"`
	// ProductKey mirrors Ref().Key(); NULL-able FK columns cannot carry the
	// uniqueness on their own.
	ProductKey string    `gorm:"not null;uniqueIndex:idx_cart_product"     json:"-"`
	Quantity   uint      `gorm:"not null;default:1;check:quantity>0"        json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

func (i CartItem) Ref() ProductRef {
	return ProductRef{CurriculumID: i.CurriculumID, CourseID: i.CourseID}
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type Order struct {
	ID        uint        `gorm:"primaryKey"                         json:"id"`
	UserID    uuid.UUID   `gorm:"type:uuid;index;not null"           json:"user_id"`
	Status    OrderStatus `gorm:"type:varchar(16);index;not null;default:pending" json:"status"`
	Items     []OrderItem `gorm:"constraint:OnDelete:CASCADE"        json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TotalPrice sums the price snapshot taken at order creation.
func (o *Order) TotalPrice() int64 {
	var total int64
	for _, it := range o.Items {
		total = AddTotal(total, LineTotal(it.UnitPrice, it.Quantity))
	}
	return total
}

type OrderItem struct {
	ID           uint        `gorm:"primaryKey"                     json:"id"`
	OrderID      uint        `gorm:"index;not null"                 json:"order_id"`
	CurriculumID *uint       `gorm:"index"                          json:"curriculum_id,omitempty"`
	Curriculum   *Curriculum `gorm:"constraint:OnDelete:SET NULL"   json:"-"`
	CourseID     *uint       `gorm:"index"                          json:"course_id,omitempty"`
	Course       *Course     `gorm:"constraint:OnDelete:SET NULL"   json:"-"`
	Quantity     uint        `gorm:"not null;check:quantity>0"      json:"quantity"`
	UnitPrice    int64       `gorm:"not null;check:unit_price>=0"   json:"unit_price"`
	ExpiryDate   *time.Time  `json:"expiry_date"`
}

func (i OrderItem) Ref() ProductRef {
	return ProductRef{CurriculumID: i.CurriculumID, CourseID: i.CourseID}
}

type UserBillingAddress struct {
	ID            uint      `gorm:"primaryKey"                                          json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_billing_default,where:is_default" json:"user_id"`
	Name          string    `gorm:"not null"                                            json:"name"`
	AddressLine   string    `gorm:"not null"                                            json:"address_line"`
	AddressDetail string    `json:"address_detail"`
	PostalCode    string    `gorm:"not null"                                            json:"postal_code"`
	Phone         string    `gorm:"not null"                                            json:"phone"`
	IsDefault     bool      `gorm:"not null;default:false"                              json:"is_default"`
	CreatedAt     time.Time `json:"created_at"`
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var transitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:   {PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusCompleted: {PaymentStatusRefunded},
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed,
		PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Payment struct {
	ID               uint                `gorm:"primaryKey"                       json:"id"`
	UserID           uuid.UUID           `gorm:"type:uuid;index;not null"         json:"user_id"`
	OrderID          uint                `gorm:"index;not null"                   json:"order_id"`
	Order            *Order              `gorm:"constraint:OnDelete:CASCADE"      json:"-"`
	Status           PaymentStatus       `gorm:"type:varchar(16);index;not null;default:pending" json:"status"`
	Amount           int64               `gorm:"not null;check:amount>=0"         json:"amount"`
	TransactionID    string              `gorm:"index"                            json:"transaction_id"`
	BillingAddressID *uint               `json:"billing_address_id,omitempty"`
	BillingAddress   *UserBillingAddress `gorm:"constraint:OnDelete:SET NULL"     json:"-"`
	Billing          BillingSnapshot     `gorm:"embedded;embeddedPrefix:billing_" json:"billing"`
	PaidAt           *time.Time          `json:"paid_at"`
	CancelledAt      *time.Time          `json:"cancelled_at"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// BillingSnapshot is the billing address as it was when the payment was
// created. It outlives edits and deletion of the address row.
type BillingSnapshot struct {
	Name          string `json:"name"`
	AddressLine   string `json:"address_line"`
	AddressDetail string `json:"address_detail"`
	PostalCode    string `json:"postal_code"`
	Phone         string `json:"phone"`
}

func NewBillingSnapshot(a *UserBillingAddress) BillingSnapshot {
	return BillingSnapshot{
		Name:          a.Name,
		AddressLine:   a.AddressLine,
		AddressDetail: a.AddressDetail,
		PostalCode:    a.PostalCode,
		Phone:         a.Phone,
	}
}

func (b BillingSnapshot) IsZero() bool { return b == BillingSnapshot{} }

func (Cart) TableName() string               { return "carts" }
func (CartItem) TableName() string           { return "cart_items" }
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (Payment) TableName() string            { return "payments" }
func (UserBillingAddress) TableName() string { return "user_billing_addresses" }

// All lists every table this service migrates.
func All() []any {
	return []any{
		&Curriculum{}, &Course{},
		&Cart{}, &CartItem{},
		&Order{}, &OrderItem{},
		&UserBillingAddress{}, &Payment{},
	}
}
