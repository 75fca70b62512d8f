package orders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/catalog"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/logger"
	"github.com/ariefcatur/go-catalog-orders/internal/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Processor struct {
	Store     Store
	Notifiers []Notifier
	Log       *zap.Logger
	Metrics   *metrics.Metrics
}

func (p *Processor) logger() *zap.Logger {
	return logger.OrNop(p.Log).Named("orders")
}

// Create validates the basket against a stock snapshot, then creates the
// order, its items and the stock decrements in a single transaction. Stock
// is re-checked under row locks inside the transaction; the snapshot check
// only produces an early, friendlier error.
//
// Notifiers run after commit. Their failures are logged and never returned.
func (p *Processor) Create(ctx context.Context, req CreateRequest) (Order, error) {
	const op = "orders.Create"
	log := p.logger()

	o, cust, err := p.create(ctx, op, req)
	if err != nil {
		p.Metrics.OrderFailed(apperr.KindOf(err).String())
		log.Warn("order rejected", zap.Int64("customer_id", req.CustomerID), zap.Error(err))
		return Order{}, err
	}
	p.Metrics.OrderCreated()
	log.Info("order created",
		zap.Int64("order_id", o.ID),
		zap.Int64("customer_id", o.CustomerID),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.Int("items", len(o.Items)))

	p.afterCommit(ctx, Placed{Order: o, Customer: cust})
	return o, nil
}

func (p *Processor) create(ctx context.Context, op string, req CreateRequest) (Order, customer.Customer, error) {
	if err := validateBasket(op, req.Items); err != nil {
		return Order{}, customer.Customer{}, err
	}

	var cust customer.Customer
	err := p.Store.InTx(ctx, func(tx Tx) (err error) {
		if cust, err = tx.CustomerByID(ctx, req.CustomerID); err != nil {
			return err
		}
		return checkSnapshot(ctx, tx, op, req.Items)
	})
	if err != nil {
		return Order{}, customer.Customer{}, err
	}

	// Lock rows in id order so concurrent baskets sharing products
	// cannot deadlock each other.
	lines := append([]ItemInput(nil), req.Items...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	o := Order{CustomerID: req.CustomerID, Status: StatusPending, Notes: trimmedNotes(req.Notes)}
	err = p.Store.InTx(ctx, func(tx Tx) error {
		if err := tx.InsertOrder(ctx, &o); err != nil {
			return err
		}
		o.Items = make([]OrderItem, 0, len(lines))
		for _, l := range lines {
			prod, err := tx.LockProduct(ctx, l.ProductID)
			if err != nil {
				return err
			}
			if !prod.Active {
				return apperr.Newf(apperr.KindValidation, op, "invalid product: %d", l.ProductID)
			}
			it := NewItem(prod.ID, l.Quantity, prod.Price)
			if err := checkAmount(op, "subtotal for "+prod.Name, it.Subtotal); err != nil {
				return err
			}
			it.OrderID = o.ID
			it.ProductName = prod.Name
			if err := tx.InsertOrderItem(ctx, &it); err != nil {
				return err
			}
			if _, err := catalog.AdjustStock(ctx, tx, prod.ID, -l.Quantity); err != nil {
				return err
			}
			o.Items = append(o.Items, it)
		}
		if err := checkAmount(op, "order total", o.Recalculate()); err != nil {
			return err
		}
		return tx.SetOrderTotal(ctx, o.ID, o.TotalAmount)
	})
	if err != nil {
		return Order{}, customer.Customer{}, apperr.Wrap(apperr.KindTxAbort, op, err)
	}
	return o, cust, nil
}

func validateBasket(op string, items []ItemInput) error {
	if len(items) == 0 {
		return apperr.New(apperr.KindValidation, op, "at least one item required")
	}
	seen := make(map[int64]struct{}, len(items))
	for _, it := range items {
		if it.Quantity <= 0 {
			return apperr.Newf(apperr.KindValidation, op, "quantity must be positive: product %d", it.ProductID)
		}
		if _, dup := seen[it.ProductID]; dup {
			return apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("%w: %d", ErrDuplicateLine, it.ProductID))
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

// checkSnapshot verifies every line against the current product rows
// without locking them.
func checkSnapshot(ctx context.Context, tx Tx, op string, items []ItemInput) error {
	total := decimal.Zero
	for _, it := range items {
		prod, err := tx.ProductByID(ctx, it.ProductID)
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.Newf(apperr.KindValidation, op, "invalid product: %d", it.ProductID)
		}
		if err != nil {
			return err
		}
		if !prod.Active {
			return apperr.Newf(apperr.KindValidation, op, "invalid product: %d", it.ProductID)
		}
		if it.Quantity > prod.StockQuantity {
			return apperr.Wrap(apperr.KindValidation, op,
				fmt.Errorf("%w for %s", catalog.ErrInsufficientStock, prod.Name))
		}
		subtotal := NewItem(prod.ID, it.Quantity, prod.Price).Subtotal
		if err := checkAmount(op, "subtotal for "+prod.Name, subtotal); err != nil {
			return err
		}
		total = total.Add(subtotal)
	}
	return checkAmount(op, "order total", total)
}

// checkAmount rejects amounts the order columns cannot store.
func checkAmount(op, what string, v decimal.Decimal) error {
	if v.GreaterThan(catalog.MaxAmount) {
		return apperr.Newf(apperr.KindValidation, op, "%s exceeds %s", what, catalog.MaxAmount.StringFixed(catalog.PriceScale))
	}
	return nil
}

func (p *Processor) afterCommit(ctx context.Context, placed Placed) {
	for _, n := range p.Notifiers {
		if err := n.OrderPlaced(ctx, placed); err != nil {
			err = apperr.Wrap(apperr.KindCollaborator, "orders.notify."+n.Name(), err)
			p.Metrics.CollaboratorFailed(n.Name())
			p.logger().Error("post-commit notification failed",
				zap.Int64("order_id", placed.Order.ID),
				zap.String("collaborator", n.Name()),
				zap.Error(err))
		}
	}
}

// Get loads an order with its items.
func (p *Processor) Get(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := p.Store.InTx(ctx, func(tx Tx) (err error) {
		o, err = tx.OrderByID(ctx, id)
		return err
	})
	return o, err
}

func (p *Processor) ListByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	var out []Order
	err := p.Store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.CustomerByID(ctx, customerID); err != nil {
			return err
		}
		var err error
		out, err = tx.OrdersByCustomer(ctx, customerID)
		return err
	})
	return out, err
}

// RecalculateTotal recomputes an order's total from its stored items and
// persists it.
func (p *Processor) RecalculateTotal(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := p.Store.InTx(ctx, func(tx Tx) (err error) {
		if o, err = tx.LockOrder(ctx, id); err != nil {
			return err
		}
		o.Recalculate()
		return tx.SetOrderTotal(ctx, o.ID, o.TotalAmount)
	})
	return o, err
}

// TransitionStatus moves an order to the next status. Cancelling returns the
// reserved quantities to stock in the same transaction. The total is never
// touched.
func (p *Processor) TransitionStatus(ctx context.Context, id int64, to Status) (Order, error) {
	const op = "orders.TransitionStatus"
	if !to.Valid() {
		return Order{}, apperr.Newf(apperr.KindValidation, op, "unknown status %q", to)
	}
	var (
		o    Order
		from Status
	)
	err := p.Store.InTx(ctx, func(tx Tx) (err error) {
		if o, err = tx.LockOrder(ctx, id); err != nil {
			return err
		}
		from = o.Status
		if !CanTransition(from, to) {
			return apperr.Wrap(apperr.KindValidation, op, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to))
		}
		if to == StatusCancelled {
			for _, it := range o.Items {
				if _, err := catalog.AdjustStock(ctx, tx, it.ProductID, it.Quantity); err != nil {
					return err
				}
			}
		}
		if err := tx.SetOrderStatus(ctx, o.ID, to); err != nil {
			return err
		}
		o.Status = to
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	p.logger().Info("order status changed",
		zap.Int64("order_id", id), zap.String("from", string(from)), zap.String("to", string(to)))
	return o, nil
}

func trimmedNotes(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
