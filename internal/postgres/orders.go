package postgres

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var _ orders.Tx = (*txn)(nil)

func (t *txn) insertCustomer(ctx context.Context, c *customer.Customer) error {
	err := t.db.QueryRow(ctx, `
		INSERT INTO customers(name, email, phone) VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Email, c.Phone,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate("postgres.InsertCustomer", err, nil)
}

func (t *txn) CustomerByID(ctx context.Context, id int64) (customer.Customer, error) {
	var c customer.Customer
	err := t.db.QueryRow(ctx, `
		SELECT id, name, email, phone, created_at, updated_at FROM customers WHERE id=$1`, id,
	).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return customer.Customer{}, translate("postgres.CustomerByID", err, fmt.Errorf("%w: %d", customer.ErrNotFound, id))
	}
	return c, nil
}

func (t *txn) InsertOrder(ctx context.Context, o *orders.Order) error {
	if o.Status == "" {
		o.Status = orders.StatusPending
	}
	err := t.db.QueryRow(ctx, `
		INSERT INTO orders(customer_id, status, total_amount, notes)
		VALUES ($1, $2, 0, $3)
		RETURNING id, total_amount, created_at, updated_at`,
		o.CustomerID, o.Status, o.Notes,
	).Scan(&o.ID, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	return translate("postgres.InsertOrder", err, nil)
}

func (t *txn) InsertOrderItem(ctx context.Context, it *orders.OrderItem) error {
	err := t.db.QueryRow(ctx, `
		INSERT INTO order_items(order_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		it.OrderID, it.ProductID, it.Quantity, it.UnitPrice, it.Subtotal,
	).Scan(&it.ID)
	return translate("postgres.InsertOrderItem", err, nil)
}

func (t *txn) SetOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	return t.updateOrder(ctx, "postgres.SetOrderTotal", `UPDATE orders SET total_amount=$2, updated_at=now() WHERE id=$1`, id, total)
}

func (t *txn) SetOrderStatus(ctx context.Context, id int64, status orders.Status) error {
	return t.updateOrder(ctx, "postgres.SetOrderStatus", `UPDATE orders SET status=$2, updated_at=now() WHERE id=$1`, id, status)
}

func (t *txn) updateOrder(ctx context.Context, op, sql string, id int64, v any) error {
	ct, err := t.db.Exec(ctx, sql, id, v)
	if err != nil {
		return translate(op, err, nil)
	}
	if ct.RowsAffected() != 1 {
		return translate(op, pgx.ErrNoRows, fmt.Errorf("%w: %d", orders.ErrOrderNotFound, id))
	}
	return nil
}

const orderCols = `id, customer_id, status, total_amount, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (orders.Order, error) {
	var o orders.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (t *txn) OrderByID(ctx context.Context, id int64) (orders.Order, error) {
	return t.loadOrder(ctx, "postgres.OrderByID", `SELECT `+orderCols+` FROM orders WHERE id=$1`, id)
}

func (t *txn) LockOrder(ctx context.Context, id int64) (orders.Order, error) {
	return t.loadOrder(ctx, "postgres.LockOrder", `SELECT `+orderCols+` FROM orders WHERE id=$1 FOR UPDATE`, id)
}

func (t *txn) loadOrder(ctx context.Context, op, sql string, id int64) (orders.Order, error) {
	o, err := scanOrder(t.db.QueryRow(ctx, sql, id))
	if err != nil {
		return orders.Order{}, translate(op, err, fmt.Errorf("%w: %d", orders.ErrOrderNotFound, id))
	}
	items, err := t.items(ctx, op, []int64{id})
	if err != nil {
		return orders.Order{}, err
	}
	o.Items = items[id]
	if o.Items == nil {
		o.Items = []orders.OrderItem{}
	}
	return o, nil
}

func (t *txn) OrdersByCustomer(ctx context.Context, customerID int64) ([]orders.Order, error) {
	const op = "postgres.OrdersByCustomer"
	rows, err := t.db.Query(ctx, `SELECT `+orderCols+` FROM orders WHERE customer_id=$1 ORDER BY created_at DESC, id DESC`, customerID)
	if err != nil {
		return nil, translate(op, err, nil)
	}
	defer rows.Close()

	var (
		out []orders.Order
		ids []int64
	)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, translate(op, err, nil)
		}
		out = append(out, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(op, err, nil)
	}
	rows.Close()

	items, err := t.items(ctx, op, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
		if out[i].Items == nil {
			out[i].Items = []orders.OrderItem{}
		}
	}
	return out, nil
}

func (t *txn) items(ctx context.Context, op string, orderIDs []int64) (map[int64][]orders.OrderItem, error) {
	rows, err := t.db.Query(ctx, `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.unit_price, oi.subtotal
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, orderIDs)
	if err != nil {
		return nil, translate(op, err, nil)
	}
	defer rows.Close()

	out := make(map[int64][]orders.OrderItem, len(orderIDs))
	for rows.Next() {
		var it orders.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.UnitPrice, &it.Subtotal); err != nil {
			return nil, translate(op, err, nil)
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, translate(op, rows.Err(), nil)
}
