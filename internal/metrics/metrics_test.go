package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OrderCreated()
	m.OrderCreated()
	m.OrderFailed("validation")
	m.CollaboratorFailed("kafka")
	m.Ingested(3, 1)
	m.PricingLookup("hit")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orderFailures.WithLabelValues("validation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collaboratorFailures.WithLabelValues("kafka")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ingestedProducts.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ingestedProducts.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.pricingLookups.WithLabelValues("hit")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated()
		m.OrderFailed("conflict")
		m.CollaboratorFailed("audit")
		m.Ingested(1, 1)
		m.PricingLookup("miss")
	})
}
