package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Catalog().InTx(ctx, func(tx catalog.Tx) error {
		if err := tx.InsertCategory(ctx, &catalog.Category{Name: "A", Slug: "a"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_ = s.Catalog().InTx(ctx, func(tx catalog.Tx) error {
		cats, err := tx.Categories(ctx)
		require.NoError(t, err)
		assert.Empty(t, cats)
		return nil
	})
}

func TestSavepointKeepsOuterWork(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Catalog().InTx(ctx, func(tx catalog.Tx) error {
		if err := tx.InsertCategory(ctx, &catalog.Category{Name: "Kept", Slug: "kept"}); err != nil {
			return err
		}
		spErr := tx.Savepoint(ctx, func(sp catalog.Tx) error {
			if err := sp.InsertCategory(ctx, &catalog.Category{Name: "Dropped", Slug: "dropped"}); err != nil {
				return err
			}
			return sp.InsertCategory(ctx, &catalog.Category{Name: "kept again", Slug: "kept"})
		})
		assert.ErrorIs(t, spErr, catalog.ErrDuplicateSlug)
		return tx.Savepoint(ctx, func(sp catalog.Tx) error {
			return sp.InsertCategory(ctx, &catalog.Category{Name: "Nested", Slug: "nested"})
		})
	})
	require.NoError(t, err)

	_ = s.Catalog().InTx(ctx, func(tx catalog.Tx) error {
		cats, _ := tx.Categories(ctx)
		names := []string{}
		for _, c := range cats {
			names = append(names, c.Name)
		}
		assert.ElementsMatch(t, []string{"Kept", "Nested"}, names)
		return nil
	})
}

func TestProductConstraints(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Catalog().InTx(ctx, func(tx catalog.Tx) error {
		c := catalog.Category{Name: "C", Slug: "c"}
		require.NoError(t, tx.InsertCategory(ctx, &c))

		p := catalog.Product{Name: "P", Price: decimal.NewFromInt(1), CategoryID: c.ID, SKU: "P-1", StockQuantity: 1}
		require.NoError(t, tx.InsertProduct(ctx, &p))

		dup := p
		dup.ID = 0
		assert.ErrorIs(t, tx.InsertProduct(ctx, &dup), catalog.ErrDuplicateSKU)

		dangling := catalog.Product{Name: "D", Price: decimal.NewFromInt(1), CategoryID: 99, SKU: "D-1"}
		err := tx.InsertProduct(ctx, &dangling)
		assert.True(t, apperr.Is(err, apperr.KindNotFound))

		assert.ErrorIs(t, tx.SetStock(ctx, p.ID, -1), catalog.ErrInsufficientStock)
		return nil
	})
	require.NoError(t, err)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().Catalog().InTx(ctx, func(catalog.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
