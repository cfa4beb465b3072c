package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/online_school/internal/models"
)

func TestResolve(t *testing.T) {
	name, price := Resolve(&models.Curriculum{Name: "Go Track", Price: 30000}, nil)
	assert.Equal(t, "Go Track", name)
	assert.EqualValues(t, 30000, price)

	name, price = Resolve(nil, &models.Course{Name: "Channels", Price: 10000})
	assert.Equal(t, "Channels", name)
	assert.EqualValues(t, 10000, price)

	name, price = Resolve(nil, nil)
	assert.Equal(t, UnknownProduct, name)
	assert.Zero(t, price)
}

func TestForOrderItem_KeepsSnapshotPrice(t *testing.T) {
	it := models.OrderItem{Course: &models.Course{Name: "Channels", Price: 99999}, UnitPrice: 10000, Quantity: 1}
	name, price := ForOrderItem(it)
	assert.Equal(t, "Channels", name)
	assert.EqualValues(t, 10000, price)

	name, price = ForOrderItem(models.OrderItem{UnitPrice: 500})
	assert.Equal(t, UnknownProduct, name)
	assert.EqualValues(t, 500, price)
}

func TestCartTotals(t *testing.T) {
	items := []models.CartItem{
		{Course: &models.Course{Price: 10000}, Quantity: 2},
		{Curriculum: &models.Curriculum{Price: 5000}, Quantity: 1},
		{Quantity: 3},
	}
	assert.EqualValues(t, 25000, CartTotal(items))
	assert.EqualValues(t, 6, CartQuantity(items))
	assert.Zero(t, CartTotal(nil))
}

func TestCartTotal_Saturates(t *testing.T) {
	items := []models.CartItem{
		{Course: &models.Course{Price: 4}, Quantity: 1 << 62},
		{Course: &models.Course{Price: 10000}, Quantity: 1},
	}
	assert.EqualValues(t, int64(math.MaxInt64), CartTotal(items))
}
