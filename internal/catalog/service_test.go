package catalog_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/memstore"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (*catalog.Service, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	return &catalog.Service{Store: st.Catalog(), Log: zap.NewNop()}, st
}

func price(s string) *decimal.Decimal { return ptr(decimal.RequireFromString(s)) }

func TestEnsurePathIsIdempotent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	path := []string{"Electronics", "Computers", "Gaming Laptops"}

	first, err := svc.EnsurePath(ctx, path)
	require.NoError(t, err)
	second, err := svc.EnsurePath(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "gaming-laptops", first.Slug)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Len())
	full, err := tree.FullPath(first.ID)
	require.NoError(t, err)
	assert.Equal(t, path, full)
}

func TestEnsurePathMergesOnSlug(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	a, err := svc.EnsurePath(ctx, []string{"Gaming Laptops"})
	require.NoError(t, err)
	// a differently spelled name under another parent still resolves to the same node
	b, err := svc.EnsurePath(ctx, []string{"Electronics", "  gaming   LAPTOPS "})
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "Gaming Laptops", b.Name)
	assert.Nil(t, b.ParentID)

	_, err = svc.EnsurePath(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.EnsurePath(ctx, []string{"Electronics", "  "})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestCreateCategoryRejectsTakenSlug(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Books"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, catalog.CategoryInput{Name: "books"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorIs(t, err, catalog.ErrDuplicateSlug)

	_, err = svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Orphan", ParentID: ptr(int64(99))})
	assert.ErrorIs(t, err, catalog.ErrCategoryNotFound)
}

func TestRenameRegeneratesSlug(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Laptops"})
	require.NoError(t, err)
	renamed, err := svc.RenameCategory(ctx, c.ID, "Notebook Computers")
	require.NoError(t, err)
	assert.Equal(t, "notebook-computers", renamed.Slug)

	got, err := svc.Category(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Notebook Computers", got.Name)
}

func TestMoveCategoryRejectsCycles(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	leaf, err := svc.EnsurePath(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)
	root, err := svc.EnsurePath(ctx, []string{"A"})
	require.NoError(t, err)

	_, err = svc.MoveCategory(ctx, root.ID, &leaf.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	moved, err := svc.MoveCategory(ctx, leaf.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.ParentID)
}

func TestCreateProduct(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, catalog.ProductInput{
		Name:          " Pro Laptop ",
		Price:         price("1299.99"),
		CategoryPath:  []string{"Electronics", "Computers"},
		SKU:           "LAP-001",
		StockQuantity: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pro Laptop", p.Name)
	assert.True(t, p.Active)

	_, err = svc.CreateProduct(ctx, catalog.ProductInput{
		Name: "Clone", Price: price("1"), CategoryID: &p.CategoryID, SKU: "LAP-001",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorIs(t, err, catalog.ErrDuplicateSKU)

	invalid := []catalog.ProductInput{
		{Name: "No category", Price: price("1"), SKU: "X-1"},
		{Name: "Both", Price: price("1"), SKU: "X-2", CategoryID: &p.CategoryID, CategoryPath: []string{"Electronics"}},
		{Name: "Negative", Price: price("-0.01"), SKU: "X-3", CategoryID: &p.CategoryID},
		{Name: "Sub-cent", Price: price("1.005"), SKU: "X-4", CategoryID: &p.CategoryID},
		{Name: "", Price: price("1"), SKU: "X-5", CategoryID: &p.CategoryID},
		{Name: "Neg stock", Price: price("1"), SKU: "X-6", CategoryID: &p.CategoryID, StockQuantity: -1},
		{Name: "No price", SKU: "X-7", CategoryID: &p.CategoryID},
		{Name: "Too dear", Price: price("100000000.00"), SKU: "X-8", CategoryID: &p.CategoryID},
	}
	for _, in := range invalid {
		_, err := svc.CreateProduct(ctx, in)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%s: %v", in.SKU, err)
	}
}

func TestCreateProductRequiresPrice(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	var in catalog.ProductInput
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Mouse","sku":"M-1","stock_quantity":3,"category_path":["Electronics"]}`), &in))
	_, err := svc.CreateProduct(ctx, in)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "price is required")

	all, err := svc.Products(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, all)

	p, err := svc.CreateProduct(ctx, catalog.ProductInput{
		Name: "Top", Price: price("99999999.99"), CategoryPath: []string{"Electronics"}, SKU: "TOP-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "99999999.99", p.Price.StringFixed(2))
}

func seedProduct(t *testing.T, svc *catalog.Service, sku, p string, stock int, path ...string) catalog.Product {
	t.Helper()
	prod, err := svc.CreateProduct(context.Background(), catalog.ProductInput{
		Name: sku, Price: price(p), CategoryPath: path, SKU: sku, StockQuantity: stock,
	})
	require.NoError(t, err)
	return prod
}

func TestAdjustStock(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "SKU-1", "9.99", 5, "Misc")

	qty, err := svc.AdjustStock(ctx, p.ID, -3)
	require.NoError(t, err)
	assert.Equal(t, 2, qty)

	_, err = svc.AdjustStock(ctx, p.ID, -3)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := svc.Product(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.StockQuantity)

	_, err = svc.AdjustStock(ctx, 404, 1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestUpdateAndDeactivate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "SKU-1", "9.99", 5, "Misc")

	newPrice := price("12.50")
	upd, err := svc.UpdateProduct(ctx, p.ID, catalog.ProductUpdate{Price: newPrice, Name: ptr("Renamed")})
	require.NoError(t, err)
	assert.True(t, upd.Price.Equal(*newPrice))
	assert.Equal(t, "Renamed", upd.Name)

	_, err = svc.UpdateProduct(ctx, p.ID, catalog.ProductUpdate{Name: ptr("   ")})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.UpdateProduct(ctx, p.ID, catalog.ProductUpdate{StockQuantity: ptr(-1)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	off, err := svc.Deactivate(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, off.Active)

	active, err := svc.ListActive(ctx, []int64{p.CategoryID})
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.Products(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListActiveFiltersByCategory(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	a := seedProduct(t, svc, "A", "1.00", 1, "Electronics", "Phones")
	seedProduct(t, svc, "B", "2.00", 1, "Books")

	got, err := svc.ListActive(ctx, []int64{a.CategoryID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].SKU)

	none, err := svc.ListActive(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteCategoryCascades(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	laptop := seedProduct(t, svc, "LAP", "999.00", 1, "Electronics", "Computers", "Laptops")
	seedProduct(t, svc, "BOOK", "10.00", 1, "Books")

	computers, err := svc.EnsurePath(ctx, []string{"Electronics", "Computers"})
	require.NoError(t, err)

	n, err := svc.DeleteCategory(ctx, computers.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = svc.Product(ctx, laptop.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	left, err := svc.Products(ctx, false)
	require.NoError(t, err)
	assert.Len(t, left, 1)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, tree.Len())
}

func TestDeleteCategoryRefusedWhenOrdered(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	p := seedProduct(t, svc, "LAP", "999.00", 3, "Electronics", "Computers")

	cust := customer.Customer{Name: "Ada", Email: "ada@example.com", Phone: "+254700000001"}
	require.NoError(t, st.InsertCustomer(ctx, &cust))
	proc := &orders.Processor{Store: st.Orders()}
	_, err := proc.Create(ctx, orders.CreateRequest{CustomerID: cust.ID, Items: []orders.ItemInput{{ProductID: p.ID, Quantity: 1}}})
	require.NoError(t, err)

	root, err := svc.EnsurePath(ctx, []string{"Electronics"})
	require.NoError(t, err)
	_, err = svc.DeleteCategory(ctx, root.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorIs(t, err, catalog.ErrCategoryInUse)

	_, err = svc.Product(ctx, p.ID)
	assert.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }
