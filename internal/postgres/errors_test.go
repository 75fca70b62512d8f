package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		notFound error
		kind     apperr.Kind
		is       error
	}{
		{
			name: "duplicate sku",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "products_sku_key", Detail: "Key (sku)=(M-1) already exists."},
			kind: apperr.KindConflict,
			is:   catalog.ErrDuplicateSKU,
		},
		{
			name: "stock below zero",
			err:  &pgconn.PgError{Code: "23514", ConstraintName: "products_stock_non_negative"},
			kind: apperr.KindConflict,
			is:   catalog.ErrInsufficientStock,
		},
		{
			name: "ordered product in deleted subtree",
			err:  fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23503", ConstraintName: "order_items_product_id_fkey"}),
			kind: apperr.KindConflict,
			is:   catalog.ErrCategoryInUse,
		},
		{
			name: "duplicate order line",
			err:  &pgconn.PgError{Code: "23505", ConstraintName: "order_items_order_product_unique"},
			kind: apperr.KindConflict,
			is:   orders.ErrDuplicateLine,
		},
		{
			name: "bare foreign key",
			err:  &pgconn.PgError{Code: "23503"},
			kind: apperr.KindNotFound,
		},
		{
			name: "bare unique",
			err:  &pgconn.PgError{Code: "23505"},
			kind: apperr.KindConflict,
		},
		{
			name: "unnamed check",
			err:  &pgconn.PgError{Code: "23514", TableName: "products", ConstraintName: "products_price_check"},
			kind: apperr.KindValidation,
		},
		{
			name: "numeric overflow",
			err:  &pgconn.PgError{Code: "22003"},
			kind: apperr.KindValidation,
		},
		{
			name: "serialization failure",
			err:  &pgconn.PgError{Code: "40001"},
			kind: apperr.KindConflict,
		},
		{
			name: "deadlock",
			err:  &pgconn.PgError{Code: "40P01"},
			kind: apperr.KindConflict,
		},
		{
			name:     "no rows with sentinel",
			err:      pgx.ErrNoRows,
			notFound: fmt.Errorf("%w: %d", catalog.ErrProductNotFound, 7),
			kind:     apperr.KindNotFound,
			is:       catalog.ErrProductNotFound,
		},
		{
			name: "no rows without sentinel",
			err:  pgx.ErrNoRows,
			kind: apperr.KindNotFound,
			is:   pgx.ErrNoRows,
		},
		{
			name: "unknown pg error",
			err:  &pgconn.PgError{Code: "57014"},
			kind: apperr.KindInternal,
		},
		{
			name: "non pg error",
			err:  errors.New("conn reset"),
			kind: apperr.KindInternal,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := translate("postgres.Test", c.err, c.notFound)
			require.Error(t, got)

			var ae *apperr.Error
			require.ErrorAs(t, got, &ae)
			assert.Equal(t, c.kind, apperr.KindOf(got))
			assert.Equal(t, "postgres.Test", ae.Op)
			if c.is != nil {
				assert.ErrorIs(t, got, c.is)
			}
		})
	}
}

func TestTranslateNil(t *testing.T) {
	assert.NoError(t, translate("postgres.Test", nil, catalog.ErrProductNotFound))
}
