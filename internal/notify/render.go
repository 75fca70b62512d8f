package notify

import (
	"fmt"
	"strings"

	"github.com/ariefcatur/go-catalog-orders/internal/orders"
)

// SMS is a text message for the customer.
type SMS struct {
	SenderID string
	To       string
	Body     string
}

type Email struct {
	To      []string
	Subject string
	Body    string
}

func RenderSMS(p orders.OrderPlacedPayload, senderID string) SMS {
	return SMS{
		SenderID: senderID,
		To:       p.CustomerPhone,
		Body: fmt.Sprintf("Hi %s, your order #%d for $%s has been placed successfully. Thank you for shopping with us!",
			p.CustomerName, p.OrderID, p.TotalAmount),
	}
}

func RenderAdminEmail(p orders.OrderPlacedPayload) Email {
	notes := p.Notes
	if notes == "" {
		notes = "None"
	}
	var b strings.Builder
	b.WriteString("A new order has been placed:\n\n")
	fmt.Fprintf(&b, "Order ID: #%d\n", p.OrderID)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", p.CustomerName, p.CustomerEmail)
	fmt.Fprintf(&b, "Customer Phone: %s\n", p.CustomerPhone)
	fmt.Fprintf(&b, "Status: %s\n", statusLabel(p.Status))
	fmt.Fprintf(&b, "Total Amount: $%s\n", p.TotalAmount)
	fmt.Fprintf(&b, "Order Date: %s\n\n", p.PlacedAt.UTC().Format("2006-01-02 15:04:05"))
	b.WriteString("Items:\n")
	b.WriteString(p.ItemsSummary)
	fmt.Fprintf(&b, "\n\nNotes: %s\n", notes)

	return Email{
		To:      []string{p.AdminEmail},
		Subject: fmt.Sprintf("New Order Placed - Order #%d", p.OrderID),
		Body:    b.String(),
	}
}

func statusLabel(s orders.Status) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}
