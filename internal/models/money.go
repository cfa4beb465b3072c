package models

import "math"

// MaxQuantity bounds the quantity of a single line item.
const MaxQuantity = 9999

// LineTotal is unitPrice*quantity, saturating at math.MaxInt64 so an
// oversized quantity can never wrap below a price ceiling. Non-positive
// prices total 0.
func LineTotal(unitPrice int64, quantity uint) int64 {
	if unitPrice <= 0 || quantity == 0 {
		return 0
	}
	if uint64(quantity) > uint64(math.MaxInt64/unitPrice) {
		return math.MaxInt64
	}
	return unitPrice * int64(quantity)
}

// AddTotal adds two non-negative totals, saturating at math.MaxInt64.
func AddTotal(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
