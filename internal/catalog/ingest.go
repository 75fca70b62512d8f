package catalog

import (
	"context"
	"fmt"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// IngestItem is one entry of a bulk product upload; CategoryPath lists
// category names from the root to the product's leaf category.
type IngestItem struct {
	Name          string           `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	CategoryPath  []string         `json:"category_path"`
	SKU           string           `json:"sku"`
	StockQuantity int              `json:"stock_quantity"`
}

type IngestResult struct {
	CreatedCount int       `json:"created_count"`
	ErrorCount   int       `json:"error_count"`
	Created      []Product `json:"created_products"`
	Errors       []string  `json:"errors"`
}

// Ingest creates products item by item inside one transaction. Each item runs
// under its own savepoint, so a failing item is reported and skipped while
// the others are kept.
func (s *Service) Ingest(ctx context.Context, items []IngestItem) (IngestResult, error) {
	const op = "catalog.Ingest"
	if len(items) == 0 {
		return IngestResult{}, apperr.New(apperr.KindValidation, op, "expected a non-empty list of products")
	}

	var res IngestResult
	err := s.Store.InTx(ctx, func(tx Tx) error {
		res = IngestResult{Created: []Product{}, Errors: []string{}}
		for i, it := range items {
			if len(it.CategoryPath) == 0 {
				res.Errors = append(res.Errors, fmt.Sprintf("product %d: category_path is required", i+1))
				continue
			}
			var p Product
			err := tx.Savepoint(ctx, func(sp Tx) (err error) {
				p, err = CreateProduct(ctx, sp, ProductInput{
					Name:          it.Name,
					Description:   it.Description,
					Price:         it.Price,
					CategoryPath:  it.CategoryPath,
					SKU:           it.SKU,
					StockQuantity: it.StockQuantity,
				})
				return err
			})
			if err != nil {
				if !isItemError(err) {
					return err
				}
				res.Errors = append(res.Errors, fmt.Sprintf("product %d: %s", i+1, apperr.Message(err)))
				continue
			}
			res.Created = append(res.Created, p)
		}
		return nil
	})
	if err != nil {
		return IngestResult{}, apperr.Wrap(apperr.KindTxAbort, op, err)
	}

	res.CreatedCount, res.ErrorCount = len(res.Created), len(res.Errors)
	s.Metrics.Ingested(res.CreatedCount, res.ErrorCount)
	s.logger().Info("bulk ingestion finished",
		zap.Int("created", res.CreatedCount),
		zap.Int("failed", res.ErrorCount),
	)
	return res, nil
}

// isItemError reports whether err belongs to a single item rather than to
// the batch transaction as a whole.
func isItemError(err error) bool {
	return apperr.Is(err, apperr.KindValidation) ||
		apperr.Is(err, apperr.KindConflict) ||
		apperr.Is(err, apperr.KindNotFound)
}
