package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/logger"
	"github.com/ariefcatur/go-catalog-orders/internal/metrics"
	"github.com/ariefcatur/go-catalog-orders/internal/validation"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Service struct {
	Store   Store
	Log     *zap.Logger
	Metrics *metrics.Metrics
}

type CategoryInput struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	ParentID    *int64  `json:"parent_id"`
}

// ProductInput describes a new product. Exactly one of CategoryID and
// CategoryPath must be set; a path is resolved with EnsurePath.
type ProductInput struct {
	Name          string           `json:"name" validate:"required,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price" validate:"required"`
	CategoryID    *int64           `json:"category_id"`
	CategoryPath  []string         `json:"category_path" validate:"omitempty,dive,required,max=255"`
	SKU           string           `json:"sku" validate:"required,max=100"`
	StockQuantity int              `json:"stock_quantity" validate:"min=0"`
	Active        *bool            `json:"is_active"`
}

// ProductUpdate is an administrative edit; nil fields are left unchanged.
type ProductUpdate struct {
	Name          *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	CategoryID    *int64           `json:"category_id"`
	StockQuantity *int             `json:"stock_quantity" validate:"omitempty,min=0"`
	Active        *bool            `json:"is_active"`
}

// Slugify normalizes a category name into the key used for slug lookups.
func Slugify(name string) string {
	return slug.Make(strings.TrimSpace(name))
}

func (s *Service) logger() *zap.Logger {
	return logger.OrNop(s.Log).Named("catalog")
}

// Tree loads a snapshot of the whole category hierarchy.
func (s *Service) Tree(ctx context.Context) (*Tree, error) {
	var tree *Tree
	err := s.Store.InTx(ctx, func(tx Tx) error {
		cats, err := tx.Categories(ctx)
		if err != nil {
			return err
		}
		tree = NewTree(cats)
		return nil
	})
	return tree, err
}

func (s *Service) Category(ctx context.Context, id int64) (Category, error) {
	var c Category
	err := s.Store.InTx(ctx, func(tx Tx) (err error) {
		c, err = tx.CategoryByID(ctx, id)
		return err
	})
	return c, err
}

// CreateCategory inserts a category explicitly. Unlike EnsurePath it refuses
// a name whose slug is already taken.
func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	const op = "catalog.CreateCategory"
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(op, in); err != nil {
		return Category{}, err
	}
	sl, err := slugFor(op, in.Name)
	if err != nil {
		return Category{}, err
	}

	c := Category{Name: in.Name, Description: trimmed(in.Description), ParentID: in.ParentID, Slug: sl}
	err = s.Store.InTx(ctx, func(tx Tx) error {
		if in.ParentID != nil {
			if _, err := tx.CategoryByID(ctx, *in.ParentID); err != nil {
				return err
			}
		}
		if err := ensureSlugFree(ctx, tx, op, sl, 0); err != nil {
			return err
		}
		return tx.InsertCategory(ctx, &c)
	})
	if err != nil {
		return Category{}, err
	}
	s.logger().Info("category created", zap.Int64("category_id", c.ID), zap.String("slug", c.Slug))
	return c, nil
}

// RenameCategory changes a category's name and regenerates its slug.
func (s *Service) RenameCategory(ctx context.Context, id int64, name string) (Category, error) {
	const op = "catalog.RenameCategory"
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, apperr.New(apperr.KindValidation, op, "name is required")
	}
	sl, err := slugFor(op, name)
	if err != nil {
		return Category{}, err
	}

	var c Category
	err = s.Store.InTx(ctx, func(tx Tx) (err error) {
		if c, err = tx.CategoryByID(ctx, id); err != nil {
			return err
		}
		if err := ensureSlugFree(ctx, tx, op, sl, id); err != nil {
			return err
		}
		c.Name, c.Slug = name, sl
		return tx.UpdateCategory(ctx, &c)
	})
	return c, err
}

// MoveCategory re-parents a category. A nil parent makes it a root. Moving a
// category under itself or one of its descendants is rejected.
func (s *Service) MoveCategory(ctx context.Context, id int64, parentID *int64) (Category, error) {
	const op = "catalog.MoveCategory"
	var c Category
	err := s.Store.InTx(ctx, func(tx Tx) error {
		cats, err := tx.Categories(ctx)
		if err != nil {
			return err
		}
		tree := NewTree(cats)
		cur, ok := tree.Category(id)
		if !ok {
			return apperr.Wrap(apperr.KindNotFound, op, fmt.Errorf("%w: %d", ErrCategoryNotFound, id))
		}
		if parentID != nil {
			if _, ok := tree.Category(*parentID); !ok {
				return apperr.Wrap(apperr.KindNotFound, op, fmt.Errorf("%w: %d", ErrCategoryNotFound, *parentID))
			}
		}
		allowed, err := tree.CanReparent(id, parentID)
		if err != nil {
			return err
		}
		if !allowed {
			return apperr.Newf(apperr.KindValidation, op, "category %d cannot be moved under its own subtree", id)
		}
		cur.ParentID = parentID
		c = cur
		return tx.UpdateCategory(ctx, &c)
	})
	return c, err
}

// DeleteCategory removes a category, its descendants and their products.
// It refuses when any product in the subtree appears on an order.
func (s *Service) DeleteCategory(ctx context.Context, id int64) (int, error) {
	const op = "catalog.DeleteCategory"
	var deleted int
	err := s.Store.InTx(ctx, func(tx Tx) error {
		cats, err := tx.Categories(ctx)
		if err != nil {
			return err
		}
		ids, err := NewTree(cats).SubtreeIDs(id)
		if err != nil {
			return err
		}
		n, err := tx.CountOrderedProducts(ctx, ids)
		if err != nil {
			return err
		}
		if n > 0 {
			return apperr.Wrap(apperr.KindConflict, op, fmt.Errorf("%w: %d order lines", ErrCategoryInUse, n))
		}
		deleted, err = tx.DeleteCategories(ctx, ids)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.logger().Info("category subtree deleted", zap.Int64("category_id", id), zap.Int("categories", deleted))
	return deleted, nil
}

// EnsurePath resolves a root-to-leaf name sequence in its own transaction.
func (s *Service) EnsurePath(ctx context.Context, names []string) (Category, error) {
	var leaf Category
	err := s.Store.InTx(ctx, func(tx Tx) (err error) {
		leaf, err = EnsurePath(ctx, tx, names)
		return err
	})
	return leaf, err
}

// EnsurePath walks names from the root, finding each segment by its slug or
// creating it under the previous one, and returns the deepest category.
//
// Slugs are globally unique, so a segment whose slug already exists anywhere
// in the tree reuses that category even when it sits under another parent or
// was created with a differently spelled name.
func EnsurePath(ctx context.Context, tx Tx, names []string) (Category, error) {
	const op = "catalog.EnsurePath"
	if len(names) == 0 {
		return Category{}, apperr.New(apperr.KindValidation, op, "category path must not be empty")
	}
	var cursor *Category
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		sl, err := slugFor(op, name)
		if err != nil {
			return Category{}, err
		}
		c, err := tx.CategoryBySlug(ctx, sl)
		switch {
		case err == nil:
		case errors.Is(err, ErrCategoryNotFound):
			c = Category{Name: name, Slug: sl}
			if cursor != nil {
				pid := cursor.ID
				c.ParentID = &pid
			}
			if err := tx.InsertCategory(ctx, &c); err != nil {
				return Category{}, err
			}
		default:
			return Category{}, err
		}
		cursor = &c
	}
	return *cursor, nil
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	var p Product
	err := s.Store.InTx(ctx, func(tx Tx) (err error) {
		p, err = CreateProduct(ctx, tx, in)
		return err
	})
	if err != nil {
		return Product{}, err
	}
	s.logger().Info("product created", zap.Int64("product_id", p.ID), zap.String("sku", p.SKU))
	return p, nil
}

// CreateProduct validates in and inserts the product inside tx.
func CreateProduct(ctx context.Context, tx Tx, in ProductInput) (Product, error) {
	const op = "catalog.CreateProduct"
	in.Name = strings.TrimSpace(in.Name)
	in.SKU = strings.TrimSpace(in.SKU)
	if err := validation.Struct(op, in); err != nil {
		return Product{}, err
	}
	if err := validatePrice(op, *in.Price); err != nil {
		return Product{}, err
	}

	var (
		cat Category
		err error
	)
	switch {
	case in.CategoryID != nil && len(in.CategoryPath) > 0:
		return Product{}, apperr.New(apperr.KindValidation, op, "only one of category_id or category_path may be set")
	case in.CategoryID != nil:
		cat, err = tx.CategoryByID(ctx, *in.CategoryID)
	case len(in.CategoryPath) > 0:
		cat, err = EnsurePath(ctx, tx, in.CategoryPath)
	default:
		return Product{}, apperr.New(apperr.KindValidation, op, "category_id or category_path is required")
	}
	if err != nil {
		return Product{}, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	p := Product{
		Name:          in.Name,
		Description:   trimmed(in.Description),
		Price:         *in.Price,
		CategoryID:    cat.ID,
		SKU:           in.SKU,
		StockQuantity: in.StockQuantity,
		Active:        active,
	}
	if err := tx.InsertProduct(ctx, &p); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (s *Service) Product(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := s.Store.InTx(ctx, func(tx Tx) (err error) {
		p, err = tx.ProductByID(ctx, id)
		return err
	})
	return p, err
}

func (s *Service) Products(ctx context.Context, activeOnly bool) ([]Product, error) {
	var out []Product
	err := s.Store.InTx(ctx, func(tx Tx) (err error) {
		out, err = tx.Products(ctx, activeOnly)
		return err
	})
	return out, err
}

// ListActive returns the active products bound to any of categoryIDs.
func (s *Service) ListActive(ctx context.Context, categoryIDs []int64) ([]Product, error) {
	if len(categoryIDs) == 0 {
		return nil, nil
	}
	var out []Product
	err := s.Store.InTx(ctx, func(tx Tx) (err error) {
		out, err = tx.ActiveProducts(ctx, categoryIDs)
		return err
	})
	return out, err
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, upd ProductUpdate) (Product, error) {
	const op = "catalog.UpdateProduct"
	if err := validation.Struct(op, upd); err != nil {
		return Product{}, err
	}
	if upd.Price != nil {
		if err := validatePrice(op, *upd.Price); err != nil {
			return Product{}, err
		}
	}

	var p Product
	err := s.Store.InTx(ctx, func(tx Tx) (err error) {
		if p, err = tx.LockProduct(ctx, id); err != nil {
			return err
		}
		if upd.CategoryID != nil {
			if _, err := tx.CategoryByID(ctx, *upd.CategoryID); err != nil {
				return err
			}
			p.CategoryID = *upd.CategoryID
		}
		if upd.Name != nil {
			if p.Name = strings.TrimSpace(*upd.Name); p.Name == "" {
				return apperr.New(apperr.KindValidation, op, "name is required")
			}
		}
		if upd.Description != nil {
			p.Description = trimmed(upd.Description)
		}
		if upd.Price != nil {
			p.Price = *upd.Price
		}
		if upd.StockQuantity != nil {
			p.StockQuantity = *upd.StockQuantity
		}
		if upd.Active != nil {
			p.Active = *upd.Active
		}
		return tx.UpdateProduct(ctx, &p)
	})
	return p, err
}

// Deactivate pulls a product from sale without removing it.
func (s *Service) Deactivate(ctx context.Context, id int64) (Product, error) {
	inactive := false
	return s.UpdateProduct(ctx, id, ProductUpdate{Active: &inactive})
}

// AdjustStock applies delta to a product's stock in its own transaction.
func (s *Service) AdjustStock(ctx context.Context, productID int64, delta int) (int, error) {
	var qty int
	err := s.Store.InTx(ctx, func(tx Tx) (err error) {
		qty, err = AdjustStock(ctx, tx, productID, delta)
		return err
	})
	return qty, err
}

// AdjustStock locks the product row, applies delta and returns the new
// quantity. It fails with ErrInsufficientStock when the result would be
// negative. Commit and rollback belong to the caller owning tx.
func AdjustStock(ctx context.Context, tx Tx, productID int64, delta int) (int, error) {
	const op = "catalog.AdjustStock"
	p, err := tx.LockProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	next := p.StockQuantity + delta
	if next < 0 {
		return p.StockQuantity, apperr.Wrap(apperr.KindConflict, op,
			fmt.Errorf("%w: product %d has %d, requested %d", ErrInsufficientStock, productID, p.StockQuantity, -delta))
	}
	if err := tx.SetStock(ctx, productID, next); err != nil {
		return 0, err
	}
	return next, nil
}

func slugFor(op, name string) (string, error) {
	sl := Slugify(name)
	if sl == "" {
		return "", apperr.Newf(apperr.KindValidation, op, "category name %q has no letters or digits", name)
	}
	return sl, nil
}

func ensureSlugFree(ctx context.Context, tx Tx, op, sl string, self int64) error {
	existing, err := tx.CategoryBySlug(ctx, sl)
	switch {
	case errors.Is(err, ErrCategoryNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == self:
		return nil
	}
	return apperr.Wrap(apperr.KindConflict, op, fmt.Errorf("%w: %q used by category %d", ErrDuplicateSlug, sl, existing.ID))
}

func validatePrice(op string, price decimal.Decimal) error {
	if price.IsNegative() {
		return apperr.New(apperr.KindValidation, op, "price must not be negative")
	}
	if price.GreaterThan(MaxAmount) {
		return apperr.Newf(apperr.KindValidation, op, "price must not exceed %s", MaxAmount.StringFixed(PriceScale))
	}
	if !price.Equal(price.Round(PriceScale)) {
		return apperr.Newf(apperr.KindValidation, op, "price must have at most %d decimal places", PriceScale)
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
