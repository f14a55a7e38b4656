package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus_Valid(t *testing.T) {
	for _, s := range []string{"pending", "paid", "shipped", "delivered", "canceled"} {
		st, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), st)
	}
}

func TestParseStatus_Invalid(t *testing.T) {
	_, err := ParseStatus("refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = ParseStatus("")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusShipped, false},
		{StatusPending, StatusDelivered, false},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCanceled, true},
		{StatusPaid, StatusPaid, false},
		{StatusPaid, StatusDelivered, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCanceled, false},
		{StatusShipped, StatusPaid, false},
		{StatusDelivered, StatusCanceled, false},
		{StatusDelivered, StatusPaid, false},
		{StatusCanceled, StatusPaid, false},
		{StatusCanceled, StatusCanceled, false},
	}

	for _, tt := range tests {
		o := &Order{Status: tt.from}
		assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestTransitionError(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want error
	}{
		{"canceled is terminal", StatusCanceled, StatusPaid, ErrOrderCanceled},
		{"delivered is terminal", StatusDelivered, StatusCanceled, ErrOrderDelivered},
		{"shipped cannot be canceled", StatusShipped, StatusCanceled, ErrOrderShipped},
		{"only pending can be paid", StatusPaid, StatusPaid, ErrOrderNotPending},
		{"pending cannot ship", StatusPending, StatusShipped, ErrOrderNotPaid},
		{"pending cannot be delivered", StatusPending, StatusDelivered, ErrOrderNotShipped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.from}
			assert.ErrorIs(t, o.TransitionError(tt.to), tt.want)
		})
	}
}

func TestItem_Subtotal(t *testing.T) {
	item := Item{Quantity: 3, Price: decimal.RequireFromString("19.99")}
	assert.True(t, item.Subtotal().Equal(decimal.RequireFromString("59.97")))
}

func TestTotal_RoundsToTwoPlaces(t *testing.T) {
	items := []Item{
		{Quantity: 3, Price: decimal.RequireFromString("0.333")},
		{Quantity: 1, Price: decimal.RequireFromString("10.00")},
	}
	// 0.999 + 10.00 = 10.999 -> 11.00
	assert.Equal(t, "11.00", Total(items).StringFixed(2))
}

func TestTotal_Empty(t *testing.T) {
	assert.True(t, Total(nil).IsZero())
}

func TestNewNumber_Format(t *testing.T) {
	n := NewNumber()

	require.Len(t, n, 14)
	assert.Equal(t, time.Now().Format("20060102"), n[:8])
	for _, c := range n[8:] {
		assert.True(t, (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9'),
			"unexpected character %q in %s", c, n)
	}
}

func TestNewNumber_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := NewNumber()
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}
