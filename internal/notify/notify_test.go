package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	kafkax "github.com/ariefcatur/go-catalog-orders/internal/kafka"
	"github.com/ariefcatur/go-catalog-orders/internal/orders"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturePublisher struct {
	key, value []byte
	headers    []kafka.Header
	err        error
}

func (c *capturePublisher) Publish(_ context.Context, key, value []byte, headers ...kafka.Header) error {
	c.key, c.value, c.headers = key, value, headers
	return c.err
}

type recordingSender struct {
	sms    []SMS
	emails []Email
	err    error
}

func (r *recordingSender) SendSMS(_ context.Context, m SMS) error {
	r.sms = append(r.sms, m)
	return r.err
}

func (r *recordingSender) SendEmail(_ context.Context, m Email) error {
	r.emails = append(r.emails, m)
	return r.err
}

type memClaimer struct {
	seen     map[string]bool
	released []string
}

func (m *memClaimer) Claim(_ context.Context, id string) (bool, error) {
	if m.seen[id] {
		return false, nil
	}
	m.seen[id] = true
	return true, nil
}

func (m *memClaimer) Release(_ context.Context, id string) error {
	delete(m.seen, id)
	m.released = append(m.released, id)
	return nil
}

var placedAt = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

func samplePlaced() orders.Placed {
	notes := "leave at the door"
	items := []orders.OrderItem{
		orders.NewItem(1, 3, decimal.RequireFromString("9.99")),
		orders.NewItem(2, 2, decimal.RequireFromString("15.50")),
	}
	items[0].ProductName = "Mouse"
	items[1].ProductName = "Keyboard"
	o := orders.Order{ID: 42, CustomerID: 7, Status: orders.StatusPending, Notes: &notes, Items: items, CreatedAt: placedAt}
	o.Recalculate()
	return orders.Placed{
		Order:    o,
		Customer: customer.Customer{ID: 7, Name: "Ada", Email: "ada@example.com", Phone: "+254700000001"},
	}
}

func TestKafkaNotifierPublishesEnvelope(t *testing.T) {
	pub := &capturePublisher{}
	n := &KafkaNotifier{Producer: pub, ServiceName: "catalog-api", AdminEmail: "admin@groovestore.com"}

	require.NoError(t, n.OrderPlaced(context.Background(), samplePlaced()))
	assert.Equal(t, []byte("42"), pub.key)
	assert.Equal(t, orders.EventOrderPlaced, kafkax.Header(pub.headers, "x-event-type"))

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.value, &env))
	assert.Equal(t, orders.EventOrderPlaced, env.EventType)
	assert.Equal(t, "42", env.CorrelationID)
	assert.NotEmpty(t, env.EventID)

	p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, "60.97", p.TotalAmount)
	assert.Equal(t, "Ada", p.CustomerName)
	assert.Equal(t, "admin@groovestore.com", p.AdminEmail)
	assert.Equal(t, "- Mouse x 3 @ $9.99 = $29.97\n- Keyboard x 2 @ $15.50 = $31.00", p.ItemsSummary)
}

func TestKafkaNotifierReturnsPublishError(t *testing.T) {
	n := &KafkaNotifier{Producer: &capturePublisher{err: kafkax.ErrProducerClosed}}
	assert.ErrorIs(t, n.OrderPlaced(context.Background(), samplePlaced()), kafkax.ErrProducerClosed)
}

func TestRenderMessages(t *testing.T) {
	p := samplePlaced().Payload("admin@groovestore.com")

	sms := RenderSMS(p, "GROOVE")
	assert.Equal(t, "+254700000001", sms.To)
	assert.Equal(t, "Hi Ada, your order #42 for $60.97 has been placed successfully. Thank you for shopping with us!", sms.Body)

	mail := RenderAdminEmail(p)
	assert.Equal(t, []string{"admin@groovestore.com"}, mail.To)
	assert.Equal(t, "New Order Placed - Order #42", mail.Subject)
	assert.Contains(t, mail.Body, "Customer: Ada (ada@example.com)\n")
	assert.Contains(t, mail.Body, "Status: Pending\n")
	assert.Contains(t, mail.Body, "Order Date: 2024-03-09 14:30:00\n")
	assert.Contains(t, mail.Body, "Notes: leave at the door\n")

	p.Notes = ""
	assert.Contains(t, RenderAdminEmail(p).Body, "Notes: None\n")
}

func envelopeMessage(t *testing.T, eventID string) kafka.Message {
	t.Helper()
	pub := &capturePublisher{}
	n := &KafkaNotifier{Producer: pub, AdminEmail: "admin@groovestore.com"}
	require.NoError(t, n.OrderPlaced(context.Background(), samplePlaced()))

	var env orders.Envelope
	require.NoError(t, json.Unmarshal(pub.value, &env))
	env.EventID = eventID
	return kafka.Message{Value: kafkax.MustMarshal(env)}
}

func TestDispatcherSendsOncePerEvent(t *testing.T) {
	sender := &recordingSender{}
	d := &Dispatcher{Sender: sender, Dedup: &memClaimer{seen: map[string]bool{}}, SenderID: "GROOVE", Log: zap.NewNop()}
	m := envelopeMessage(t, "evt-1")

	require.NoError(t, d.HandleOrderPlaced(context.Background(), m))
	require.NoError(t, d.HandleOrderPlaced(context.Background(), m))

	assert.Len(t, sender.sms, 1)
	assert.Len(t, sender.emails, 1)
	assert.Equal(t, "GROOVE", sender.sms[0].SenderID)
}

func TestDispatcherReleasesClaimOnFailure(t *testing.T) {
	claims := &memClaimer{seen: map[string]bool{}}
	d := &Dispatcher{Sender: &recordingSender{err: errors.New("gateway down")}, Dedup: claims}

	err := d.HandleOrderPlaced(context.Background(), envelopeMessage(t, "evt-2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway down")
	assert.Equal(t, []string{"evt-2"}, claims.released)
	assert.False(t, claims.seen["evt-2"])
}

func TestDispatcherIgnoresForeignAndBrokenMessages(t *testing.T) {
	sender := &recordingSender{}
	d := &Dispatcher{Sender: sender}

	other := kafkax.MustMarshal(orders.Envelope{EventType: "SomethingElse", Payload: json.RawMessage(`{}`)})
	assert.NoError(t, d.HandleOrderPlaced(context.Background(), kafka.Message{Value: other}))
	assert.NoError(t, d.HandleOrderPlaced(context.Background(), kafka.Message{Value: []byte("not json")}))
	assert.Empty(t, sender.sms)
	assert.Empty(t, sender.emails)
}

func TestAuditNotifier(t *testing.T) {
	a := &AuditNotifier{Log: zap.NewNop()}
	assert.Equal(t, "audit", a.Name())
	assert.NoError(t, a.OrderPlaced(context.Background(), samplePlaced()))
}
