// Package pricing computes aggregate price statistics over category subtrees.
package pricing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/logger"
	"github.com/ariefcatur/go-catalog-orders/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog is the read side of the catalog the aggregator needs.
type Catalog interface {
	Tree(ctx context.Context) (*catalog.Tree, error)
	ListActive(ctx context.Context, categoryIDs []int64) ([]catalog.Product, error)
}

// Cache holds serialized results. It may serve stale data.
type Cache interface {
	Get(ctx context.Context, categoryID int64) ([]byte, bool, error)
	Set(ctx context.Context, categoryID int64, b []byte) error
}

type Result struct {
	CategoryID            int64           `json:"category_id"`
	CategoryName          string          `json:"category_name"`
	CategoryPath          string          `json:"category_path"`
	AveragePrice          decimal.Decimal `json:"average_price"`
	ProductCount          int             `json:"product_count"`
	IncludesSubcategories bool            `json:"includes_subcategories"`
}

type Aggregator struct {
	Catalog Catalog
	Cache   Cache // optional
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

// AveragePrice averages the prices of the active products in the category
// and all of its descendants.
func (a *Aggregator) AveragePrice(ctx context.Context, categoryID int64) (Result, error) {
	if r, ok := a.cached(ctx, categoryID); ok {
		return r, nil
	}
	r, err := a.compute(ctx, categoryID)
	if err != nil {
		return Result{}, err
	}
	a.store(ctx, r)
	return r, nil
}

func (a *Aggregator) compute(ctx context.Context, categoryID int64) (Result, error) {
	const op = "pricing.AveragePrice"
	tree, err := a.Catalog.Tree(ctx)
	if err != nil {
		return Result{}, err
	}
	cat, ok := tree.Category(categoryID)
	if !ok {
		return Result{}, apperr.Wrap(apperr.KindNotFound, op, fmt.Errorf("%w: %d", catalog.ErrCategoryNotFound, categoryID))
	}
	ids, err := tree.SubtreeIDs(categoryID)
	if err != nil {
		return Result{}, err
	}
	path, err := tree.PathString(categoryID)
	if err != nil {
		return Result{}, err
	}
	products, err := a.Catalog.ListActive(ctx, ids)
	if err != nil {
		return Result{}, err
	}
	if len(products) == 0 {
		return Result{}, apperr.New(apperr.KindNotFound, op, "no products in category or subtree")
	}

	prices := make([]decimal.Decimal, len(products))
	for i, p := range products {
		prices[i] = p.Price
	}
	return Result{
		CategoryID:            cat.ID,
		CategoryName:          cat.Name,
		CategoryPath:          path,
		AveragePrice:          Average(prices),
		ProductCount:          len(products),
		IncludesSubcategories: len(ids) > 1,
	}, nil
}

// Average sums prices exactly and rounds the quotient once to cents.
// An empty slice averages to zero.
func Average(prices []decimal.Decimal) decimal.Decimal {
	if len(prices) == 0 {
		return decimal.Zero
	}
	return decimal.Sum(decimal.Zero, prices...).DivRound(decimal.NewFromInt(int64(len(prices))), catalog.PriceScale)
}

func (a *Aggregator) cached(ctx context.Context, categoryID int64) (Result, bool) {
	if a.Cache == nil {
		return Result{}, false
	}
	b, ok, err := a.Cache.Get(ctx, categoryID)
	if err != nil {
		a.Metrics.PricingLookup("error")
		logger.OrNop(a.Log).Named("pricing").Warn("pricing cache read failed", zap.Int64("category_id", categoryID), zap.Error(err))
		return Result{}, false
	}
	if !ok {
		a.Metrics.PricingLookup("miss")
		return Result{}, false
	}
	var r Result
	if err := json.Unmarshal(b, &r); err != nil {
		a.Metrics.PricingLookup("error")
		return Result{}, false
	}
	a.Metrics.PricingLookup("hit")
	return r, true
}

func (a *Aggregator) store(ctx context.Context, r Result) {
	if a.Cache == nil {
		return
	}
	b, err := json.Marshal(r)
	if err == nil {
		err = a.Cache.Set(ctx, r.CategoryID, b)
	}
	if err != nil {
		logger.OrNop(a.Log).Named("pricing").Warn("pricing cache write failed", zap.Int64("category_id", r.CategoryID), zap.Error(err))
	}
}
