package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Batch execution metrics
	batchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_bot_batches_total",
			Help: "Total number of batch executions",
		},
		[]string{"symbol", "side", "outcome"},
	)

	ordersSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_bot_orders_submitted_total",
			Help: "Total number of orders accepted by the broker",
		},
		[]string{"symbol", "side"},
	)

	ordersSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_bot_orders_skipped_total",
			Help: "Total number of templates skipped before submission",
		},
		[]string{"symbol"},
	)

	ordersFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_bot_orders_failed_total",
			Help: "Total number of orders rejected by the broker",
		},
		[]string{"symbol"},
	)

	// Risk gate metrics
	riskRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_bot_risk_rejections_total",
			Help: "Total number of batches rejected by the daily risk gate",
		},
		[]string{"reason"},
	)

	// Market data metrics
	currentPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "batch_bot_current_price",
			Help: "Last observed price of a trading symbol",
		},
		[]string{"symbol"},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batch_bot_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(batchesTotal)
	prometheus.MustRegister(ordersSubmitted)
	prometheus.MustRegister(ordersSkipped)
	prometheus.MustRegister(ordersFailed)
	prometheus.MustRegister(riskRejections)
	prometheus.MustRegister(currentPrice)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordBatch records the outcome of one batch execution
func RecordBatch(symbol, side, outcome string, submitted, skipped, failed int) {
	batchesTotal.WithLabelValues(symbol, side, outcome).Inc()
	ordersSubmitted.WithLabelValues(symbol, side).Add(float64(submitted))
	ordersSkipped.WithLabelValues(symbol).Add(float64(skipped))
	ordersFailed.WithLabelValues(symbol).Add(float64(failed))
}

// RecordRiskRejection records a batch stopped by the daily risk gate
func RecordRiskRejection(reason string) {
	riskRejections.WithLabelValues(reason).Inc()
}

// UpdatePrice updates the current price metric
func UpdatePrice(symbol string, price float64) {
	currentPrice.WithLabelValues(symbol).Set(price)
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
