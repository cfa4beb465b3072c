// Package pricing resolves display names and prices of line items.
package pricing

import "github.com/Skotchmaster/online_school/internal/models"

const UnknownProduct = "unknown product"

// Resolve returns the name and unit price of whichever product is set. It
// never fails: a line item whose product was deleted resolves to
// UnknownProduct with price 0.
func Resolve(curriculum *models.Curriculum, course *models.Course) (string, int64) {
	switch {
	case curriculum != nil:
		return curriculum.Name, curriculum.Price
	case course != nil:
		return course.Name, course.Price
	default:
		return UnknownProduct, 0
	}
}

func ForCartItem(it models.CartItem) (string, int64) {
	return Resolve(it.Curriculum, it.Course)
}

// ForOrderItem takes the name from the live product, if any, and the price
// from the snapshot.
func ForOrderItem(it models.OrderItem) (string, int64) {
	name, _ := Resolve(it.Curriculum, it.Course)
	return name, it.UnitPrice
}

// LineTotal saturates instead of overflowing; see models.LineTotal.
func LineTotal(unitPrice int64, quantity uint) int64 {
	return models.LineTotal(unitPrice, quantity)
}

func CartTotal(items []models.CartItem) int64 {
	var total int64
	for _, it := range items {
		_, price := ForCartItem(it)
		total = models.AddTotal(total, LineTotal(price, it.Quantity))
	}
	return total
}

func CartQuantity(items []models.CartItem) uint {
	var n uint
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
