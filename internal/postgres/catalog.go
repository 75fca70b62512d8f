package postgres

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/jackc/pgx/v5"
)

// txn implements catalog.Tx and orders.Tx on top of a pgx transaction.
type txn struct{ db DBTX }

var _ catalog.Tx = (*txn)(nil)

func (t *txn) Savepoint(ctx context.Context, fn func(catalog.Tx) error) error {
	return withTx(ctx, t.db, func(sp pgx.Tx) error { return fn(&txn{db: sp}) })
}

const categoryCols = `id, name, description, parent_id, slug, created_at, updated_at`

func scanCategory(row pgx.Row) (catalog.Category, error) {
	var c catalog.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ParentID, &c.Slug, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (t *txn) Categories(ctx context.Context) ([]catalog.Category, error) {
	const op = "postgres.Categories"
	rows, err := t.db.Query(ctx, `SELECT `+categoryCols+` FROM categories ORDER BY id`)
	if err != nil {
		return nil, translate(op, err, nil)
	}
	defer rows.Close()

	var out []catalog.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, translate(op, err, nil)
		}
		out = append(out, c)
	}
	return out, translate(op, rows.Err(), nil)
}

func (t *txn) CategoryByID(ctx context.Context, id int64) (catalog.Category, error) {
	c, err := scanCategory(t.db.QueryRow(ctx, `SELECT `+categoryCols+` FROM categories WHERE id=$1`, id))
	if err != nil {
		return catalog.Category{}, translate("postgres.CategoryByID", err, fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, id))
	}
	return c, nil
}

func (t *txn) CategoryBySlug(ctx context.Context, slug string) (catalog.Category, error) {
	c, err := scanCategory(t.db.QueryRow(ctx, `SELECT `+categoryCols+` FROM categories WHERE slug=$1`, slug))
	if err != nil {
		return catalog.Category{}, translate("postgres.CategoryBySlug", err, fmt.Errorf("%w: slug %q", catalog.ErrCategoryNotFound, slug))
	}
	return c, nil
}

func (t *txn) InsertCategory(ctx context.Context, c *catalog.Category) error {
	err := t.db.QueryRow(ctx, `
		INSERT INTO categories(name, description, parent_id, slug)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Description, c.ParentID, c.Slug,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate("postgres.InsertCategory", err, nil)
}

func (t *txn) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	err := t.db.QueryRow(ctx, `
		UPDATE categories SET name=$2, description=$3, parent_id=$4, slug=$5, updated_at=now()
		WHERE id=$1
		RETURNING created_at, updated_at`,
		c.ID, c.Name, c.Description, c.ParentID, c.Slug,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	return translate("postgres.UpdateCategory", err, fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, c.ID))
}

// DeleteCategories relies on ON DELETE CASCADE for products; the RESTRICT
// on order_items.product_id refuses the whole statement if any product in
// the set is on an order.
func (t *txn) DeleteCategories(ctx context.Context, ids []int64) (int, error) {
	const op = "postgres.DeleteCategories"
	var n int
	if err := t.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE id = ANY($1)`, ids).Scan(&n); err != nil {
		return 0, translate(op, err, nil)
	}
	if _, err := t.db.Exec(ctx, `DELETE FROM categories WHERE id = ANY($1)`, ids); err != nil {
		return 0, translate(op, err, nil)
	}
	return n, nil
}

func (t *txn) CountOrderedProducts(ctx context.Context, categoryIDs []int64) (int, error) {
	var n int
	err := t.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE p.category_id = ANY($1)`, categoryIDs).Scan(&n)
	return n, translate("postgres.CountOrderedProducts", err, nil)
}

const productCols = `id, name, description, price, category_id, sku, stock_quantity, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.SKU,
		&p.StockQuantity, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (t *txn) InsertProduct(ctx context.Context, p *catalog.Product) error {
	err := t.db.QueryRow(ctx, `
		INSERT INTO products(name, description, price, category_id, sku, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.Price, p.CategoryID, p.SKU, p.StockQuantity, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	return translate("postgres.InsertProduct", err, nil)
}

func (t *txn) ProductByID(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := scanProduct(t.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id))
	if err != nil {
		return catalog.Product{}, translate("postgres.ProductByID", err, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id))
	}
	return p, nil
}

// LockProduct takes a row lock held until the surrounding transaction ends,
// serializing concurrent stock changes on the same product.
func (t *txn) LockProduct(ctx context.Context, id int64) (catalog.Product, error) {
	p, err := scanProduct(t.db.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		return catalog.Product{}, translate("postgres.LockProduct", err, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id))
	}
	return p, nil
}

func (t *txn) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	err := t.db.QueryRow(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4, category_id=$5, sku=$6, stock_quantity=$7, is_active=$8, updated_at=now()
		WHERE id=$1
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.SKU, p.StockQuantity, p.Active,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	return translate("postgres.UpdateProduct", err, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, p.ID))
}

func (t *txn) SetStock(ctx context.Context, id int64, qty int) error {
	const op = "postgres.SetStock"
	ct, err := t.db.Exec(ctx, `UPDATE products SET stock_quantity=$2, updated_at=now() WHERE id=$1`, id, qty)
	if err != nil {
		return translate(op, err, nil)
	}
	if ct.RowsAffected() != 1 {
		return translate(op, pgx.ErrNoRows, fmt.Errorf("%w: %d", catalog.ErrProductNotFound, id))
	}
	return nil
}

func (t *txn) ActiveProducts(ctx context.Context, categoryIDs []int64) ([]catalog.Product, error) {
	return t.queryProducts(ctx, "postgres.ActiveProducts",
		`SELECT `+productCols+` FROM products WHERE is_active AND category_id = ANY($1) ORDER BY id`, categoryIDs)
}

func (t *txn) Products(ctx context.Context, activeOnly bool) ([]catalog.Product, error) {
	return t.queryProducts(ctx, "postgres.Products",
		`SELECT `+productCols+` FROM products WHERE is_active OR NOT $1 ORDER BY id`, activeOnly)
}

func (t *txn) queryProducts(ctx context.Context, op, sql string, args ...any) ([]catalog.Product, error) {
	rows, err := t.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, translate(op, err, nil)
	}
	defer rows.Close()

	var out []catalog.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, translate(op, err, nil)
		}
		out = append(out, p)
	}
	return out, translate(op, rows.Err(), nil)
}
