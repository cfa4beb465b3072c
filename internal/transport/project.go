package transport

import (
	"fmt"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/pricing"
)

func ReceiptNumber(paymentID uint) string {
	return fmt.Sprintf("REC-%d", paymentID)
}

func NewCartItemResponse(it models.CartItem) CartItemResponse {
	name, price := pricing.ForCartItem(it)
	return CartItemResponse{
		ID:           it.ID,
		CurriculumID: it.CurriculumID,
		CourseID:     it.CourseID,
		Name:         name,
		UnitPrice:    price,
		Quantity:     it.Quantity,
		LinePrice:    pricing.LineTotal(price, it.Quantity),
	}
}

func NewCartResponse(c *models.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, NewCartItemResponse(it))
	}
	return CartResponse{
		ID:         c.ID,
		Items:      items,
		TotalItems: pricing.CartQuantity(c.Items),
		TotalPrice: pricing.CartTotal(c.Items),
	}
}

func NewOrderResponse(o *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		name, price := pricing.ForOrderItem(it)
		items = append(items, OrderItemResponse{
			ID:           it.ID,
			CurriculumID: it.CurriculumID,
			CourseID:     it.CourseID,
			Name:         name,
			Quantity:     it.Quantity,
			UnitPrice:    price,
			LinePrice:    pricing.LineTotal(price, it.Quantity),
			ExpiryDate:   it.ExpiryDate,
		})
	}
	return OrderResponse{
		ID:         o.ID,
		Status:     string(o.Status),
		Items:      items,
		TotalPrice: o.TotalPrice(),
		CreatedAt:  o.CreatedAt,
	}
}

func NewPaymentResponse(p *models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:               p.ID,
		OrderID:          p.OrderID,
		Status:           string(p.Status),
		Amount:           p.Amount,
		TransactionID:    p.TransactionID,
		BillingAddressID: p.BillingAddressID,
		PaidAt:           p.PaidAt,
		CancelledAt:      p.CancelledAt,
	}
}

func NewReceipt(p *models.Payment) Receipt {
	return Receipt{
		ID:            p.ID,
		ReceiptNumber: ReceiptNumber(p.ID),
		Status:        string(p.Status),
		Amount:        p.Amount,
		PaidAt:        p.PaidAt,
		OrderID:       p.OrderID,
	}
}

// NewReceiptDetail expects p.Order.Items to be loaded. The billing snapshot
// wins over the live address row.
func NewReceiptDetail(p *models.Payment) ReceiptDetail {
	d := ReceiptDetail{
		Receipt:       NewReceipt(p),
		UserID:        p.UserID.String(),
		TransactionID: p.TransactionID,
		CancelledAt:   p.CancelledAt,
		Items:         []ReceiptLine{},
	}
	if p.Order != nil {
		for _, it := range p.Order.Items {
			name, price := pricing.ForOrderItem(it)
			d.Items = append(d.Items, ReceiptLine{
				Name:      name,
				Quantity:  it.Quantity,
				UnitPrice: price,
				LinePrice: pricing.LineTotal(price, it.Quantity),
			})
		}
	}
	switch {
	case !p.Billing.IsZero():
		a := BillingAddressResponse{
			Name:          p.Billing.Name,
			AddressLine:   p.Billing.AddressLine,
			AddressDetail: p.Billing.AddressDetail,
			PostalCode:    p.Billing.PostalCode,
			Phone:         p.Billing.Phone,
		}
		if p.BillingAddressID != nil {
			a.ID = *p.BillingAddressID
		}
		d.BillingAddress = &a
	case p.BillingAddress != nil:
		a := NewBillingAddressResponse(p.BillingAddress)
		d.BillingAddress = &a
	}
	return d
}

func NewBillingAddressResponse(a *models.UserBillingAddress) BillingAddressResponse {
	return BillingAddressResponse{
		ID:            a.ID,
		Name:          a.Name,
		AddressLine:   a.AddressLine,
		AddressDetail: a.AddressDetail,
		PostalCode:    a.PostalCode,
		Phone:         a.Phone,
		IsDefault:     a.IsDefault,
	}
}
