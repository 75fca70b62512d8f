package orders

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64           `json:"id"`
	CustomerID  int64           `json:"customer_id"`
	Status      Status          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Notes       *string         `json:"notes,omitempty"`
	Items       []OrderItem     `json:"items"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type CreateRequest struct {
	CustomerID int64       `json:"customer_id"`
	Notes      *string     `json:"notes,omitempty"`
	Items      []ItemInput `json:"items"`
}

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateLine     = errors.New("product appears more than once in order")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// NewItem snapshots the unit price and derives the subtotal.
func NewItem(productID int64, qty int, unitPrice decimal.Decimal) OrderItem {
	return OrderItem{
		ProductID: productID,
		Quantity:  qty,
		UnitPrice: unitPrice,
		Subtotal:  unitPrice.Mul(decimal.NewFromInt(int64(qty))),
	}
}

// CalculateTotal sums the subtotals of items; no items yields zero.
func CalculateTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return total.Round(2)
}

// Recalculate resets TotalAmount from the order's items.
func (o *Order) Recalculate() decimal.Decimal {
	o.TotalAmount = CalculateTotal(o.Items)
	return o.TotalAmount
}
