package catalog

import "context"

// Tx is the set of catalog operations available inside a storage
// transaction. Implementations translate storage failures into
// *apperr.Error values carrying the sentinels declared in models.go.
type Tx interface {
	Categories(ctx context.Context) ([]Category, error)
	CategoryByID(ctx context.Context, id int64) (Category, error)
	CategoryBySlug(ctx context.Context, slug string) (Category, error)
	InsertCategory(ctx context.Context, c *Category) error
	UpdateCategory(ctx context.Context, c *Category) error
	// DeleteCategories removes the given categories and every product bound to them.
	DeleteCategories(ctx context.Context, ids []int64) (int, error)
	// CountOrderedProducts counts order lines referencing products in the given categories.
	CountOrderedProducts(ctx context.Context, categoryIDs []int64) (int, error)

	InsertProduct(ctx context.Context, p *Product) error
	ProductByID(ctx context.Context, id int64) (Product, error)
	// LockProduct reads a product and holds its row until the transaction ends.
	LockProduct(ctx context.Context, id int64) (Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	SetStock(ctx context.Context, id int64, qty int) error
	ActiveProducts(ctx context.Context, categoryIDs []int64) ([]Product, error)
	Products(ctx context.Context, activeOnly bool) ([]Product, error)

	// Savepoint runs fn in a nested scope; an error from fn rolls back only
	// the work done inside it.
	Savepoint(ctx context.Context, fn func(Tx) error) error
}

// Store opens catalog transactions.
type Store interface {
	InTx(ctx context.Context, fn func(Tx) error) error
}
