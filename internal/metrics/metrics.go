// Package metrics holds the Prometheus instruments of the catalog and order
// components. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog"

type Metrics struct {
	ordersCreated        prometheus.Counter
	orderFailures        *prometheus.CounterVec
	collaboratorFailures *prometheus.CounterVec
	ingestedProducts     *prometheus.CounterVec
	pricingLookups       *prometheus.CounterVec
}

// New registers the instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ordersCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders committed successfully.",
		}),
		orderFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_failures_total",
			Help:      "Order creation attempts that failed, by error kind.",
		}, []string{"kind"}),
		collaboratorFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_failures_total",
			Help:      "Post-commit side effects that failed and were discarded.",
		}, []string{"collaborator"}),
		ingestedProducts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_products_total",
			Help:      "Bulk ingestion items, by result.",
		}, []string{"result"}),
		pricingLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_lookups_total",
			Help:      "Average price lookups, by cache result.",
		}, []string{"cache"}),
	}
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.ordersCreated.Inc()
}

func (m *Metrics) OrderFailed(kind string) {
	if m == nil {
		return
	}
	m.orderFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) CollaboratorFailed(name string) {
	if m == nil {
		return
	}
	m.collaboratorFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) Ingested(created, failed int) {
	if m == nil {
		return
	}
	m.ingestedProducts.WithLabelValues("created").Add(float64(created))
	m.ingestedProducts.WithLabelValues("failed").Add(float64(failed))
}

// PricingLookup records whether an aggregate came from the cache ("hit"),
// was computed ("miss") or the cache was unavailable ("error").
func (m *Metrics) PricingLookup(result string) {
	if m == nil {
		return
	}
	m.pricingLookups.WithLabelValues(result).Inc()
}
