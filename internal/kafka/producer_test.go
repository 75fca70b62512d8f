package kafka

import (
	"context"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed int
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed++
	return nil
}

func TestProducerFlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, zap.NewNop())

	ctx := context.Background()
	for _, k := range []string{"1", "2", "3"} {
		require.NoError(t, p.Publish(ctx, []byte(k), []byte("v"), kafka.Header{Key: "x-event-type", Value: []byte("OrderPlaced")}))
	}
	p.Start(ctx)
	p.Close()
	p.Close()
	p.WaitClosed()

	assert.Len(t, w.msgs, 3)
	assert.Equal(t, 1, w.closed)
	assert.Equal(t, "OrderPlaced", Header(w.msgs[0].Headers, "x-event-type"))
	assert.ErrorIs(t, p.Publish(ctx, []byte("4"), nil), ErrProducerClosed)
}

func TestProducerPublishHonoursContext(t *testing.T) {
	p := newProducer(&fakeWriter{}, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Publish(ctx, nil, []byte("fills buffer")))
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, nil, []byte("blocked")), context.Canceled)
}

func TestUnwrapPayload(t *testing.T) {
	type payload struct {
		OrderID int64 `json:"order_id"`
	}
	got, err := UnwrapPayload[payload]([]byte(`{"order_id":7}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.OrderID)

	_, err = UnwrapPayload[payload]([]byte(`{`))
	assert.Error(t, err)
}
