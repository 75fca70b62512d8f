package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalculateTotal(t *testing.T) {
	assert.Equal(t, "0.00", CalculateTotal(nil).StringFixed(2))

	items := []OrderItem{NewItem(1, 3, d("9.99")), NewItem(2, 2, d("15.50"))}
	assert.Equal(t, "29.97", items[0].Subtotal.StringFixed(2))
	assert.True(t, CalculateTotal(items).Equal(d("60.97")))

	// a float64 sum of the same lines drifts; decimals must not
	var cents decimal.Decimal
	for i := 0; i < 10; i++ {
		cents = cents.Add(NewItem(int64(i), 1, d("0.10")).Subtotal)
	}
	assert.True(t, cents.Equal(d("1.00")))
}

func TestRecalculateMatchesItems(t *testing.T) {
	o := Order{Items: []OrderItem{NewItem(1, 1, d("0.01")), NewItem(2, 7, d("3.33"))}}
	assert.True(t, o.Recalculate().Equal(d("23.32")))
	assert.True(t, o.TotalAmount.Equal(d("23.32")))

	o.Items = nil
	assert.True(t, o.Recalculate().IsZero())
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusConfirmed))
	assert.True(t, CanTransition(StatusProcessing, StatusCancelled))
	assert.False(t, CanTransition(StatusShipped, StatusCancelled))
	assert.False(t, CanTransition(StatusDelivered, StatusPending))
	assert.False(t, CanTransition(Status("bogus"), StatusPending))
	assert.True(t, StatusCancelled.Valid())
	assert.False(t, Status("bogus").Valid())
}
