package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusCanTransition(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderPending, OrderCancelled, true},
		{OrderConfirmed, OrderShipped, true},
		{OrderShipped, OrderDelivered, true},

		{OrderPending, OrderShipped, false},
		{OrderConfirmed, OrderCancelled, false},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderPending, false},
		{OrderCancelled, OrderPending, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderAllowStatusChange(t *testing.T) {
	o := Order{BuyerID: "buyer-1", ManufacturerID: "manu-1", Status: OrderPending}

	assert.True(t, o.AllowStatusChange(OrderCancelled, "buyer-1", RoleBuyer))
	assert.True(t, o.AllowStatusChange(OrderCancelled, "manu-1", RoleManufacturer))
	assert.False(t, o.AllowStatusChange(OrderCancelled, "other", RoleBuyer))

	assert.True(t, o.AllowStatusChange(OrderConfirmed, "manu-1", RoleManufacturer))
	assert.False(t, o.AllowStatusChange(OrderConfirmed, "buyer-1", RoleBuyer))

	assert.True(t, o.AllowStatusChange(OrderConfirmed, "anyone", RoleAdmin))

	o.Status = OrderConfirmed
	assert.False(t, o.AllowStatusChange(OrderCancelled, "buyer-1", RoleBuyer))
	assert.True(t, o.AllowStatusChange(OrderShipped, "manu-1", RoleManufacturer))
}

func TestValidRole(t *testing.T) {
	for _, s := range []string{"donor", "manufacturer", "buyer", "admin"} {
		assert.True(t, ValidRole(s), s)
	}
	assert.False(t, ValidRole("superuser"))
	assert.False(t, ValidRole(""))
}
