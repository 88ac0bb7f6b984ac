package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all metrics
	namespace = "clinicore"
	subsystem = "core"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalCollector is the singleton core metrics collector,
	// set by SetGlobalCollector() when metrics are enabled
	globalCollector CoreMetricsRecorder
)

// CoreMetricsRecorder defines the interface application code uses to record
// metric events without depending on prometheus directly
type CoreMetricsRecorder interface {
	RecordSaleTransition(target string)
	RecordStockMove(moveType string, quantity int)
	RecordProposalConversion()
	RecordInsufficientStock(productID string)
}

// InitRegistry initializes the Prometheus registry.
// Should be called once at application startup if metrics are enabled.
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// SetGlobalCollector installs the collector used by the package-level helpers
func SetGlobalCollector(c CoreMetricsRecorder) {
	globalCollector = c
}

// CoreMetricsCollector records the core's business events
type CoreMetricsCollector struct {
	saleTransitionsTotal   *prometheus.CounterVec
	stockMovesTotal        *prometheus.CounterVec
	stockMoveUnits         *prometheus.CounterVec
	proposalConversions    prometheus.Counter
	insufficientStockTotal *prometheus.CounterVec
}

// NewCoreMetricsCollector creates the core metrics collector
func NewCoreMetricsCollector() *CoreMetricsCollector {
	return &CoreMetricsCollector{
		saleTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sale_transitions_total",
				Help:      "Total number of committed sale status transitions by target status",
			},
			[]string{"target"},
		),
		stockMovesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_moves_total",
				Help:      "Total number of stock ledger moves by move type",
			},
			[]string{"move_type"},
		),
		stockMoveUnits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_move_units_total",
				Help:      "Absolute units moved through the stock ledger by move type",
			},
			[]string{"move_type"},
		),
		proposalConversions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "proposal_conversions_total",
				Help:      "Total number of charge proposals converted to sales",
			},
		),
		insufficientStockTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "insufficient_stock_total",
				Help:      "Total number of operations rejected for insufficient stock by product",
			},
			[]string{"product_id"},
		),
	}
}

// Register registers all core metrics with the Prometheus registry
func (c *CoreMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}
	collectors := []prometheus.Collector{
		c.saleTransitionsTotal,
		c.stockMovesTotal,
		c.stockMoveUnits,
		c.proposalConversions,
		c.insufficientStockTotal,
	}
	for _, collector := range collectors {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (c *CoreMetricsCollector) RecordSaleTransition(target string) {
	c.saleTransitionsTotal.WithLabelValues(target).Inc()
}

func (c *CoreMetricsCollector) RecordStockMove(moveType string, quantity int) {
	c.stockMovesTotal.WithLabelValues(moveType).Inc()
	if quantity < 0 {
		quantity = -quantity
	}
	c.stockMoveUnits.WithLabelValues(moveType).Add(float64(quantity))
}

func (c *CoreMetricsCollector) RecordProposalConversion() {
	c.proposalConversions.Inc()
}

func (c *CoreMetricsCollector) RecordInsufficientStock(productID string) {
	c.insufficientStockTotal.WithLabelValues(productID).Inc()
}

// Package-level helpers used by application handlers. No-ops when metrics
// are not enabled.

func RecordSaleTransition(target string) {
	if globalCollector != nil {
		globalCollector.RecordSaleTransition(target)
	}
}

func RecordStockMove(moveType string, quantity int) {
	if globalCollector != nil {
		globalCollector.RecordStockMove(moveType, quantity)
	}
}

func RecordProposalConversion() {
	if globalCollector != nil {
		globalCollector.RecordProposalConversion()
	}
}

func RecordInsufficientStock(productID string) {
	if globalCollector != nil {
		globalCollector.RecordInsufficientStock(productID)
	}
}
