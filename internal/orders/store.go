package orders

import (
	"context"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/shopspring/decimal"
)

// Tx extends the catalog transaction with order bookkeeping, so stock
// mutation and order rows commit or roll back together.
type Tx interface {
	catalog.Tx

	CustomerByID(ctx context.Context, id int64) (customer.Customer, error)
	InsertOrder(ctx context.Context, o *Order) error
	InsertOrderItem(ctx context.Context, it *OrderItem) error
	SetOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error
	SetOrderStatus(ctx context.Context, id int64, status Status) error
	// OrderByID returns the order with its items.
	OrderByID(ctx context.Context, id int64) (Order, error)
	// LockOrder is OrderByID holding the order row until the transaction ends.
	LockOrder(ctx context.Context, id int64) (Order, error)
	OrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error)
}

type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}
