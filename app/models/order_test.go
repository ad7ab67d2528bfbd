package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusLattice(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{OrderStatusPending, OrderStatusPaid, true},
		{OrderStatusPending, OrderStatusFailed, true},
		{OrderStatusPending, OrderStatusRefunded, false},
		{OrderStatusPaid, OrderStatusRefunded, true},
		{OrderStatusPaid, OrderStatusPending, false},
		{OrderStatusPaid, OrderStatusFailed, false},
		{OrderStatusFailed, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusPaid, false},
		{OrderStatusRefunded, OrderStatusPending, false},
	}

	for _, tc := range cases {
		order := Order{Status: tc.from}
		assert.Equal(t, tc.allowed, order.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderTransitionTo(t *testing.T) {
	order := Order{UUID: "o-1", Status: OrderStatusPending}

	assert.NoError(t, order.TransitionTo(OrderStatusPaid))
	assert.Equal(t, OrderStatusPaid, order.Status)
	assert.True(t, order.IsPaid())

	assert.NoError(t, order.TransitionTo(OrderStatusRefunded))
	assert.False(t, order.IsPaid())

	err := order.TransitionTo(OrderStatusPaid)
	assert.Error(t, err)
	assert.Equal(t, OrderStatusRefunded, order.Status)
}

func TestProductPurchasability(t *testing.T) {
	p := Product{Visibility: VisibilityPublic, Published: true}
	assert.True(t, p.IsPurchasable())
	assert.True(t, p.IsPublic())

	p.Published = false
	assert.False(t, p.IsPurchasable())

	p = Product{Visibility: VisibilityPrivate, Published: true}
	assert.False(t, p.IsPurchasable())
	assert.False(t, p.IsPublic())
}
