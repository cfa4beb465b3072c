package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/online_school/internal/models"
	"github.com/Skotchmaster/online_school/internal/util"
)

func TestCreateFromCart_SingleCourse(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := uuid.New()
	course := e.course("Go Basics", 10000)

	_, err := e.carts.AddItem(ctx, user, models.ProductRef{CourseID: &course.ID}, 1)
	require.NoError(t, err)
	cart, err := e.carts.GetCart(ctx, user)
	require.NoError(t, err)

	draft, err := e.orders.CreateFromCart(user, cart)
	require.NoError(t, err)
	assert.EqualValues(t, 10000, draft.TotalPrice())
	require.Len(t, draft.Items, 1)
	assert.Equal(t, course.ID, *draft.Items[0].CourseID)

	// the draft is detached from the cart
	*cart.Items[0].CourseID = 12345
	assert.Equal(t, course.ID, *draft.Items[0].CourseID)

	again, err := e.carts.GetCart(ctx, user)
	require.NoError(t, err)
	assert.Len(t, again.Items, 1, "cart is not cleared by drafting")
}

func TestCreateFromCart_OverCeiling(t *testing.T) {
	e := newEnv(t)
	cart := &models.Cart{Items: []models.CartItem{
		{Course: &models.Course{Name: "A", Price: 30000}, Quantity: 1},
		{Curriculum: &models.Curriculum{Name: "B", Price: 30000}, Quantity: 1},
	}}

	_, err := e.orders.CreateFromCart(uuid.New(), cart)
	assert.ErrorIs(t, err, ErrPriceCeilingExceeded)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateFromCart_Empty(t *testing.T) {
	e := newEnv(t)
	_, err := e.orders.CreateFromCart(uuid.New(), &models.Cart{})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestCreateOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := uuid.New()
	course := e.course("Go Basics", 10000)

	_, err := e.orders.CreateOrder(ctx, user, nil)
	assert.ErrorIs(t, err, ErrNoOrderItems)

	_, err = e.orders.CreateOrder(ctx, user, []models.OrderItem{{CourseID: &course.ID, Quantity: 6, UnitPrice: 10000}})
	assert.ErrorIs(t, err, ErrPriceCeilingExceeded)

	order, err := e.orders.CreateOrder(ctx, user, []models.OrderItem{{CourseID: &course.ID, Quantity: 2, UnitPrice: 10000}})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.EqualValues(t, 20000, order.TotalPrice())

	got, err := e.orders.GetOrder(ctx, user, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Nil(t, got.Items[0].ExpiryDate)

	_, err = e.orders.GetOrder(ctx, uuid.New(), order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestCheckout_PendingOrderAndHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := uuid.New()

	_, err := e.orders.Checkout(ctx, user)
	assert.ErrorIs(t, err, ErrEmptyCart)
	_, err = e.orders.PendingOrder(ctx, user)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	first := e.pendingOrder(user, e.course("Go Basics", 10000))
	second := e.pendingOrder(user, e.course("Concurrency", 5000))
	require.Len(t, second.Items, 1)
	assert.Equal(t, "Concurrency", second.Items[0].Course.Name)

	pending, err := e.orders.PendingOrder(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, second.ID, pending.ID)

	orders, total, err := e.orders.ListOrders(ctx, user, util.Paginate(1, 10))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}

func TestCreateFromCart_QuantityCannotWrapTotal(t *testing.T) {
	e := newEnv(t)
	cart := &models.Cart{Items: []models.CartItem{
		{Course: &models.Course{Name: "A", Price: 4}, Quantity: 1 << 62},
	}}

	_, err := e.orders.CreateFromCart(uuid.New(), cart)
	assert.ErrorIs(t, err, ErrPriceCeilingExceeded)
}

func TestCreateOrder_QuantityBounds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	user := uuid.New()
	course := e.course("Go Basics", 4)
	other := e.course("Concurrency", 4)

	_, err := e.orders.CreateOrder(ctx, user, []models.OrderItem{
		{CourseID: &course.ID, Quantity: 1 << 62, UnitPrice: 4},
	})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = e.orders.CreateOrder(ctx, user, []models.OrderItem{
		{CourseID: &course.ID, Quantity: models.MaxQuantity, UnitPrice: 4},
		{CourseID: &other.ID, Quantity: models.MaxQuantity, UnitPrice: 4},
	})
	assert.ErrorIs(t, err, ErrPriceCeilingExceeded)

	var count int64
	require.NoError(t, e.repo.DB.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
}
