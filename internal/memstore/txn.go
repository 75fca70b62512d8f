package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/shopspring/decimal"
)

// txn implements both catalog.Tx and orders.Tx over a working copy.
type txn struct {
	st  *state
	now func() time.Time
}

var (
	_ catalog.Tx = (*txn)(nil)
	_ orders.Tx  = (*txn)(nil)
)

func (t *txn) Savepoint(ctx context.Context, fn func(catalog.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	child := t.st.clone()
	if err := fn(&txn{st: child, now: t.now}); err != nil {
		return err
	}
	*t.st = *child
	return nil
}

// ---------- categories ----------

func (t *txn) Categories(ctx context.Context) ([]catalog.Category, error) {
	out := make([]catalog.Category, 0, len(t.st.categories))
	for _, c := range t.st.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *txn) CategoryByID(ctx context.Context, id int64) (catalog.Category, error) {
	c, ok := t.st.categories[id]
	if !ok {
		return catalog.Category{}, notFound("memstore.CategoryByID", catalog.ErrCategoryNotFound, id)
	}
	return c, nil
}

func (t *txn) CategoryBySlug(ctx context.Context, slug string) (catalog.Category, error) {
	for _, c := range t.st.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return catalog.Category{}, apperr.Wrap(apperr.KindNotFound, "memstore.CategoryBySlug",
		fmt.Errorf("%w: slug %q", catalog.ErrCategoryNotFound, slug))
}

func (t *txn) InsertCategory(ctx context.Context, c *catalog.Category) error {
	if err := t.checkCategory("memstore.InsertCategory", c); err != nil {
		return err
	}
	t.st.seq.category++
	c.ID = t.st.seq.category
	c.CreatedAt = t.now()
	c.UpdatedAt = c.CreatedAt
	t.st.categories[c.ID] = *c
	return nil
}

func (t *txn) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	const op = "memstore.UpdateCategory"
	cur, ok := t.st.categories[c.ID]
	if !ok {
		return notFound(op, catalog.ErrCategoryNotFound, c.ID)
	}
	if err := t.checkCategory(op, c); err != nil {
		return err
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = t.now()
	t.st.categories[c.ID] = *c
	return nil
}

func (t *txn) checkCategory(op string, c *catalog.Category) error {
	if c.ParentID != nil {
		if _, ok := t.st.categories[*c.ParentID]; !ok {
			return notFound(op, catalog.ErrCategoryNotFound, *c.ParentID)
		}
	}
	for _, other := range t.st.categories {
		if other.ID != c.ID && other.Slug == c.Slug {
			return apperr.Wrap(apperr.KindConflict, op, fmt.Errorf("%w: %q", catalog.ErrDuplicateSlug, c.Slug))
		}
	}
	return nil
}

func (t *txn) DeleteCategories(ctx context.Context, ids []int64) (int, error) {
	set := idSet(ids)
	if n, _ := t.CountOrderedProducts(ctx, ids); n > 0 {
		return 0, apperr.Wrap(apperr.KindConflict, "memstore.DeleteCategories",
			fmt.Errorf("%w: %d order lines", catalog.ErrCategoryInUse, n))
	}
	for id, p := range t.st.products {
		if _, hit := set[p.CategoryID]; hit {
			delete(t.st.products, id)
		}
	}
	n := 0
	for id := range set {
		if _, ok := t.st.categories[id]; ok {
			delete(t.st.categories, id)
			n++
		}
	}
	return n, nil
}

func (t *txn) CountOrderedProducts(ctx context.Context, categoryIDs []int64) (int, error) {
	set := idSet(categoryIDs)
	n := 0
	for _, it := range t.st.items {
		p, ok := t.st.products[it.ProductID]
		if !ok {
			continue
		}
		if _, hit := set[p.CategoryID]; hit {
			n++
		}
	}
	return n, nil
}

// ---------- products ----------

func (t *txn) InsertProduct(ctx context.Context, p *catalog.Product) error {
	if err := t.checkProduct("memstore.InsertProduct", p); err != nil {
		return err
	}
	t.st.seq.product++
	p.ID = t.st.seq.product
	p.CreatedAt = t.now()
	p.UpdatedAt = p.CreatedAt
	t.st.products[p.ID] = *p
	return nil
}

func (t *txn) ProductByID(ctx context.Context, id int64) (catalog.Product, error) {
	p, ok := t.st.products[id]
	if !ok {
		return catalog.Product{}, notFound("memstore.ProductByID", catalog.ErrProductNotFound, id)
	}
	return p, nil
}

// LockProduct is ProductByID; the store mutex already serializes writers.
func (t *txn) LockProduct(ctx context.Context, id int64) (catalog.Product, error) {
	return t.ProductByID(ctx, id)
}

func (t *txn) UpdateProduct(ctx context.Context, p *catalog.Product) error {
	const op = "memstore.UpdateProduct"
	cur, ok := t.st.products[p.ID]
	if !ok {
		return notFound(op, catalog.ErrProductNotFound, p.ID)
	}
	if err := t.checkProduct(op, p); err != nil {
		return err
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = t.now()
	t.st.products[p.ID] = *p
	return nil
}

func (t *txn) SetStock(ctx context.Context, id int64, qty int) error {
	const op = "memstore.SetStock"
	p, ok := t.st.products[id]
	if !ok {
		return notFound(op, catalog.ErrProductNotFound, id)
	}
	if qty < 0 {
		return apperr.Wrap(apperr.KindConflict, op, fmt.Errorf("%w: product %d", catalog.ErrInsufficientStock, id))
	}
	p.StockQuantity = qty
	p.UpdatedAt = t.now()
	t.st.products[id] = p
	return nil
}

func (t *txn) ActiveProducts(ctx context.Context, categoryIDs []int64) ([]catalog.Product, error) {
	set := idSet(categoryIDs)
	var out []catalog.Product
	for _, p := range t.st.products {
		if _, hit := set[p.CategoryID]; hit && p.Active {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

func (t *txn) Products(ctx context.Context, activeOnly bool) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(t.st.products))
	for _, p := range t.st.products {
		if !activeOnly || p.Active {
			out = append(out, p)
		}
	}
	sortProducts(out)
	return out, nil
}

// checkProduct mirrors the table constraints of the relational schema.
func (t *txn) checkProduct(op string, p *catalog.Product) error {
	if p.Price.IsNegative() {
		return apperr.New(apperr.KindValidation, op, "price must not be negative")
	}
	if p.StockQuantity < 0 {
		return apperr.Wrap(apperr.KindConflict, op, fmt.Errorf("%w: product %d", catalog.ErrInsufficientStock, p.ID))
	}
	if _, ok := t.st.categories[p.CategoryID]; !ok {
		return notFound(op, catalog.ErrCategoryNotFound, p.CategoryID)
	}
	for _, other := range t.st.products {
		if other.ID != p.ID && other.SKU == p.SKU {
			return apperr.Wrap(apperr.KindConflict, op, fmt.Errorf("%w: %q", catalog.ErrDuplicateSKU, p.SKU))
		}
	}
	p.Price = p.Price.Round(catalog.PriceScale)
	return nil
}

// ---------- customers ----------

func (t *txn) insertCustomer(c *customer.Customer) error {
	t.st.seq.customer++
	c.ID = t.st.seq.customer
	c.CreatedAt = t.now()
	c.UpdatedAt = c.CreatedAt
	t.st.customers[c.ID] = *c
	return nil
}

func (t *txn) CustomerByID(ctx context.Context, id int64) (customer.Customer, error) {
	c, ok := t.st.customers[id]
	if !ok {
		return customer.Customer{}, notFound("memstore.CustomerByID", customer.ErrNotFound, id)
	}
	return c, nil
}

// ---------- orders ----------

func (t *txn) InsertOrder(ctx context.Context, o *orders.Order) error {
	const op = "memstore.InsertOrder"
	if _, ok := t.st.customers[o.CustomerID]; !ok {
		return notFound(op, customer.ErrNotFound, o.CustomerID)
	}
	if o.Status == "" {
		o.Status = orders.StatusPending
	}
	t.st.seq.order++
	o.ID = t.st.seq.order
	o.TotalAmount = decimal.Zero
	o.CreatedAt = t.now()
	o.UpdatedAt = o.CreatedAt
	stored := *o
	stored.Items = nil
	t.st.orders[o.ID] = stored
	return nil
}

func (t *txn) InsertOrderItem(ctx context.Context, it *orders.OrderItem) error {
	const op = "memstore.InsertOrderItem"
	if _, ok := t.st.orders[it.OrderID]; !ok {
		return notFound(op, orders.ErrOrderNotFound, it.OrderID)
	}
	if _, ok := t.st.products[it.ProductID]; !ok {
		return notFound(op, catalog.ErrProductNotFound, it.ProductID)
	}
	if it.Quantity <= 0 {
		return apperr.Newf(apperr.KindValidation, op, "quantity must be positive: product %d", it.ProductID)
	}
	for _, other := range t.st.items {
		if other.OrderID == it.OrderID && other.ProductID == it.ProductID {
			return apperr.Wrap(apperr.KindConflict, op, fmt.Errorf("%w: %d", orders.ErrDuplicateLine, it.ProductID))
		}
	}
	t.st.seq.item++
	it.ID = t.st.seq.item
	t.st.items[it.ID] = *it
	return nil
}

func (t *txn) SetOrderTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	o, ok := t.st.orders[id]
	if !ok {
		return notFound("memstore.SetOrderTotal", orders.ErrOrderNotFound, id)
	}
	o.TotalAmount = total
	o.UpdatedAt = t.now()
	t.st.orders[id] = o
	return nil
}

func (t *txn) SetOrderStatus(ctx context.Context, id int64, status orders.Status) error {
	o, ok := t.st.orders[id]
	if !ok {
		return notFound("memstore.SetOrderStatus", orders.ErrOrderNotFound, id)
	}
	o.Status = status
	o.UpdatedAt = t.now()
	t.st.orders[id] = o
	return nil
}

func (t *txn) OrderByID(ctx context.Context, id int64) (orders.Order, error) {
	o, ok := t.st.orders[id]
	if !ok {
		return orders.Order{}, notFound("memstore.OrderByID", orders.ErrOrderNotFound, id)
	}
	o.Items = t.itemsOf(id)
	return o, nil
}

func (t *txn) LockOrder(ctx context.Context, id int64) (orders.Order, error) {
	return t.OrderByID(ctx, id)
}

func (t *txn) OrdersByCustomer(ctx context.Context, customerID int64) ([]orders.Order, error) {
	var out []orders.Order
	for _, o := range t.st.orders {
		if o.CustomerID == customerID {
			o.Items = t.itemsOf(o.ID)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (t *txn) itemsOf(orderID int64) []orders.OrderItem {
	out := []orders.OrderItem{}
	for _, it := range t.st.items {
		if it.OrderID != orderID {
			continue
		}
		if p, ok := t.st.products[it.ProductID]; ok {
			it.ProductName = p.Name
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func notFound(op string, sentinel error, id int64) error {
	return apperr.Wrap(apperr.KindNotFound, op, fmt.Errorf("%w: %d", sentinel, id))
}

func idSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func sortProducts(ps []catalog.Product) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].ID < ps[j].ID })
}
