package postgres

import (
	"errors"
	"fmt"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes handled explicitly.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNumericOutOfRange   = "22003"
	codeSerialization       = "40001"
	codeDeadlockDetected    = "40P01"
)

type violation struct {
	kind apperr.Kind
	err  error
}

// Constraints from migrations/0001_init.up.sql and what they mean to callers.
// order_items_product_id_fkey fires when a category delete cascades into a
// product that is on an order.
var constraints = map[string]violation{
	"categories_slug_key":              {apperr.KindConflict, catalog.ErrDuplicateSlug},
	"categories_parent_id_fkey":        {apperr.KindNotFound, catalog.ErrCategoryNotFound},
	"products_sku_key":                 {apperr.KindConflict, catalog.ErrDuplicateSKU},
	"products_category_id_fkey":        {apperr.KindNotFound, catalog.ErrCategoryNotFound},
	"products_stock_non_negative":      {apperr.KindConflict, catalog.ErrInsufficientStock},
	"orders_customer_id_fkey":          {apperr.KindNotFound, customer.ErrNotFound},
	"orders_status_valid":              {apperr.KindValidation, orders.ErrInvalidTransition},
	"order_items_order_product_unique": {apperr.KindConflict, orders.ErrDuplicateLine},
	"order_items_order_id_fkey":        {apperr.KindNotFound, orders.ErrOrderNotFound},
	"order_items_product_id_fkey":      {apperr.KindConflict, catalog.ErrCategoryInUse},
}

// translate maps a pgx error onto the apperr taxonomy so raw driver errors
// never leave this package. notFound is the sentinel reported for
// pgx.ErrNoRows.
func translate(op string, err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if notFound == nil {
			return apperr.Wrap(apperr.KindNotFound, op, err)
		}
		return apperr.Wrap(apperr.KindNotFound, op, notFound)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperr.Wrap(apperr.KindInternal, op, err)
	}
	if v, ok := constraints[pgErr.ConstraintName]; ok {
		return apperr.Wrap(v.kind, op, fmt.Errorf("%w: %s", v.err, pgErr.Detail))
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return apperr.Wrap(apperr.KindConflict, op, err)
	case codeForeignKeyViolation:
		return apperr.Wrap(apperr.KindNotFound, op, err)
	case codeCheckViolation:
		return apperr.Newf(apperr.KindValidation, op, "%s violates %s", pgErr.TableName, pgErr.ConstraintName)
	case codeNumericOutOfRange:
		return apperr.New(apperr.KindValidation, op, "amount out of range")
	case codeSerialization, codeDeadlockDetected:
		return apperr.Wrap(apperr.KindConflict, op, err)
	}
	return apperr.Wrap(apperr.KindInternal, op, err)
}
