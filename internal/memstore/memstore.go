// Package memstore is an in-process backend for the catalog, customer and
// order stores. Transactions are serialized by a single mutex and run
// against a copy of the data that replaces the live copy only on success,
// which gives the same all-or-nothing and per-row serialization guarantees
// as the Postgres backend.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
)

type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

func New() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// Catalog returns the catalog.Store view of s.
func (s *Store) Catalog() catalog.Store { return catalogStore{s} }

// Orders returns the orders.Store view of s.
func (s *Store) Orders() orders.Store { return orderStore{s} }

type catalogStore struct{ s *Store }

func (c catalogStore) InTx(ctx context.Context, fn func(catalog.Tx) error) error {
	return c.s.run(ctx, func(t *txn) error { return fn(t) })
}

type orderStore struct{ s *Store }

func (o orderStore) InTx(ctx context.Context, fn func(orders.Tx) error) error {
	return o.s.run(ctx, func(t *txn) error { return fn(t) })
}

func (s *Store) InsertCustomer(ctx context.Context, c *customer.Customer) error {
	return s.run(ctx, func(t *txn) error { return t.insertCustomer(c) })
}

func (s *Store) CustomerByID(ctx context.Context, id int64) (customer.Customer, error) {
	var c customer.Customer
	err := s.run(ctx, func(t *txn) (err error) {
		c, err = t.CustomerByID(ctx, id)
		return err
	})
	return c, err
}

func (s *Store) run(ctx context.Context, fn func(*txn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	if err := fn(&txn{st: work, now: s.now}); err != nil {
		return err
	}
	s.st = work
	return nil
}

type state struct {
	categories map[int64]catalog.Category
	products   map[int64]catalog.Product
	customers  map[int64]customer.Customer
	orders     map[int64]orders.Order
	items      map[int64]orders.OrderItem
	seq        sequences
}

type sequences struct {
	category, product, customer, order, item int64
}

func newState() *state {
	return &state{
		categories: map[int64]catalog.Category{},
		products:   map[int64]catalog.Product{},
		customers:  map[int64]customer.Customer{},
		orders:     map[int64]orders.Order{},
		items:      map[int64]orders.OrderItem{},
	}
}

// clone copies the maps; stored values are never mutated in place, so
// sharing their pointer fields is safe.
func (st *state) clone() *state {
	return &state{
		categories: cloneMap(st.categories),
		products:   cloneMap(st.products),
		customers:  cloneMap(st.customers),
		orders:     cloneMap(st.orders),
		items:      cloneMap(st.items),
		seq:        st.seq,
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
