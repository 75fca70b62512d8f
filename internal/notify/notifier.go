// Package notify holds the post-commit collaborators of the order processor
// and the consumer that turns published orders into customer and admin
// messages.
package notify

import (
	"context"
	"strconv"
	"time"

	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/logger"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const eventVersion = 1

// Publisher is satisfied by *kafka.Producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// KafkaNotifier publishes an OrderPlaced envelope for every committed order.
type KafkaNotifier struct {
	Producer    Publisher
	ServiceName string
	// AdminEmail is copied into every payload so the consumer needs no
	// configuration of its own to address the admin mail.
	AdminEmail string
	Now        func() time.Time
}

func (n *KafkaNotifier) Name() string { return "kafka" }

func (n *KafkaNotifier) OrderPlaced(ctx context.Context, p orders.Placed) error {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  eventVersion,
		OccurredAt:    now().UTC(),
		Producer:      n.ServiceName,
		CorrelationID: strconv.FormatInt(p.Order.ID, 10),
		Payload:       kafkax.MustMarshal(p.Payload(n.AdminEmail)),
	}
	return n.Producer.Publish(ctx, orders.PartitionKey(p.Order.ID), kafkax.MustMarshal(ev),
		kafka.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafka.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(eventVersion))},
	)
}

// AuditNotifier records every committed order in the structured log.
type AuditNotifier struct {
	Log *zap.Logger
}

func (a *AuditNotifier) Name() string { return "audit" }

func (a *AuditNotifier) OrderPlaced(_ context.Context, p orders.Placed) error {
	logger.OrNop(a.Log).Named("audit").Info("order placed",
		zap.Int64("order_id", p.Order.ID),
		zap.Int64("customer_id", p.Customer.ID),
		zap.String("status", string(p.Order.Status)),
		zap.String("total_amount", p.Order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(p.Order.Items)),
		zap.Time("placed_at", p.Order.CreatedAt),
	)
	return nil
}
