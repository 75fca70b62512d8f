package postgres

import (
	"context"

	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx. Begin on a pgx.Tx
// opens a savepoint.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

var (
	_ DBTX = (*pgxpool.Pool)(nil)
	_ DBTX = (pgx.Tx)(nil)
)

// Store is the Postgres backend for the catalog, customer and order stores.
type Store struct{ DB *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Store { return &Store{DB: pool} }

func (s *Store) Catalog() catalog.Store { return catalogStore{s.DB} }

func (s *Store) Orders() orders.Store { return orderStore{s.DB} }

type catalogStore struct{ db DBTX }

func (c catalogStore) InTx(ctx context.Context, fn func(catalog.Tx) error) error {
	return withTx(ctx, c.db, func(tx pgx.Tx) error { return fn(&txn{db: tx}) })
}

type orderStore struct{ db DBTX }

func (o orderStore) InTx(ctx context.Context, fn func(orders.Tx) error) error {
	return withTx(ctx, o.db, func(tx pgx.Tx) error { return fn(&txn{db: tx}) })
}

func (s *Store) InsertCustomer(ctx context.Context, c *customer.Customer) error {
	return (&txn{db: s.DB}).insertCustomer(ctx, c)
}

func (s *Store) CustomerByID(ctx context.Context, id int64) (customer.Customer, error) {
	return (&txn{db: s.DB}).CustomerByID(ctx, id)
}

// withTx begins a transaction (or savepoint) on db, runs fn and commits.
// Any error from fn rolls back.
func withTx(ctx context.Context, db DBTX, fn func(pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return translate("postgres.Begin", err, nil)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return translate("postgres.Commit", tx.Commit(ctx), nil)
}
