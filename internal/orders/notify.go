package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-catalog-orders/internal/customer"
)

// Placed is the finalized view of a committed order handed to collaborators.
type Placed struct {
	Order    Order
	Customer customer.Customer
}

// Notifier is a post-commit collaborator. Its failures never affect the
// order that triggered it.
type Notifier interface {
	Name() string
	OrderPlaced(ctx context.Context, p Placed) error
}

// ItemsSummary renders one line per item: "- name x qty @ $unit = $subtotal".
func (p Placed) ItemsSummary() string {
	lines := make([]string, 0, len(p.Order.Items))
	for _, it := range p.Order.Items {
		name := it.ProductName
		if name == "" {
			name = fmt.Sprintf("product %d", it.ProductID)
		}
		lines = append(lines, fmt.Sprintf("- %s x %d @ $%s = $%s",
			name, it.Quantity, it.UnitPrice.StringFixed(2), it.Subtotal.StringFixed(2)))
	}
	return strings.Join(lines, "\n")
}

// Payload converts p into the outbound notification payload.
func (p Placed) Payload(adminEmail string) OrderPlacedPayload {
	notes := ""
	if p.Order.Notes != nil {
		notes = *p.Order.Notes
	}
	return OrderPlacedPayload{
		OrderID:       p.Order.ID,
		Status:        p.Order.Status,
		CustomerName:  p.Customer.Name,
		CustomerPhone: p.Customer.Phone,
		CustomerEmail: p.Customer.Email,
		TotalAmount:   p.Order.TotalAmount.StringFixed(2),
		ItemsSummary:  p.ItemsSummary(),
		Notes:         notes,
		AdminEmail:    adminEmail,
		PlacedAt:      p.Order.CreatedAt,
	}
}
