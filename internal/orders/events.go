package orders

import (
	"encoding/json"
	"time"
)

const (
	EventOrderPlaced = "OrderPlaced"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the Event* constants
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"` // e.g. "catalog-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// OrderPlacedPayload is what notification senders receive after an order commits.
type OrderPlacedPayload struct {
	OrderID       int64     `json:"order_id"`
	Status        Status    `json:"status"`
	CustomerName  string    `json:"customer_name"`
	CustomerPhone string    `json:"customer_phone"`
	CustomerEmail string    `json:"customer_email"`
	TotalAmount   string    `json:"total_amount"`
	ItemsSummary  string    `json:"items_summary"`
	Notes         string    `json:"notes,omitempty"`
	AdminEmail    string    `json:"admin_email,omitempty"`
	PlacedAt      time.Time `json:"placed_at"`
}
