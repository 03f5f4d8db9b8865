// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Scan metrics
	ScanRunsTotal      *prometheus.CounterVec
	InstrumentsScanned prometheus.Counter
	RecordsStored      *prometheus.CounterVec
	ScanErrors         prometheus.Counter
	AlertsRaised       prometheus.Counter
	ScanDuration       prometheus.Histogram

	// Sentiment metrics
	SentimentFallbacks prometheus.Counter

	// Simulation metrics
	PositionsOpened prometheus.Counter
	PositionsClosed *prometheus.CounterVec
	SignalsSkipped  *prometheus.CounterVec
	OpenPositions   prometheus.Gauge
	AccountBalance  prometheus.Gauge
	RealizedPnL     prometheus.Gauge

	// Report metrics
	ReportsGenerated prometheus.Counter

	// Health metrics
	LastSuccessfulScan prometheus.Gauge
	UptimeSeconds      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stock_signal_lab"
	}

	return &Metrics{
		// Scan metrics
		ScanRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "runs_total",
			Help:      "Total number of scan cycles by status",
		}, []string{"status"}),
		InstrumentsScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "instruments_scanned_total",
			Help:      "Total number of instruments processed across all cycles",
		}),
		RecordsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "records_stored_total",
			Help:      "Total number of scan records stored by category",
		}, []string{"category"}),
		ScanErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "errors_total",
			Help:      "Total number of per-instrument scan errors",
		}),
		AlertsRaised: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "alerts_raised_total",
			Help:      "Total number of high-score alerts raised",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Scan cycle duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}),

		// Sentiment metrics
		SentimentFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "fallbacks_total",
			Help:      "Total number of scans scored by the fallback sentiment backend",
		}),

		// Simulation metrics
		PositionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "positions_opened_total",
			Help:      "Total number of simulated positions opened",
		}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "positions_closed_total",
			Help:      "Total number of simulated positions closed by exit status",
		}, []string{"exit_status"}),
		SignalsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "signals_skipped_total",
			Help:      "Total number of entry signals skipped by reason",
		}, []string{"reason"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "open_positions",
			Help:      "Current number of open simulated positions",
		}),
		AccountBalance: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "account_balance",
			Help:      "Current simulated account balance",
		}),
		RealizedPnL: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "realized_pnl",
			Help:      "Cumulative realized profit and loss of the simulated account",
		}),

		// Report metrics
		ReportsGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Total number of reports generated",
		}),

		// Health metrics
		LastSuccessfulScan: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_scan_timestamp",
			Help:      "Unix timestamp of last successful scan cycle",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordScan records a completed scan cycle.
func RecordScan(status string, durationSeconds float64) {
	DefaultMetrics.ScanRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.ScanDuration.Observe(durationSeconds)
}

// RecordInstrumentsScanned adds to the instruments scanned counter.
func RecordInstrumentsScanned(n int) {
	DefaultMetrics.InstrumentsScanned.Add(float64(n))
}

// RecordRecordStored increments the stored records counter for a category.
func RecordRecordStored(category string) {
	DefaultMetrics.RecordsStored.WithLabelValues(category).Inc()
}

// RecordScanErrors adds to the per-instrument error counter.
func RecordScanErrors(n int) {
	DefaultMetrics.ScanErrors.Add(float64(n))
}

// RecordAlerts adds to the alerts raised counter.
func RecordAlerts(n int) {
	DefaultMetrics.AlertsRaised.Add(float64(n))
}

// RecordSentimentFallback increments the sentiment fallback counter.
func RecordSentimentFallback() {
	DefaultMetrics.SentimentFallbacks.Inc()
}

// RecordPositionOpened increments the positions opened counter.
func RecordPositionOpened() {
	DefaultMetrics.PositionsOpened.Inc()
}

// RecordPositionClosed increments the positions closed counter for an exit status.
func RecordPositionClosed(exitStatus string) {
	DefaultMetrics.PositionsClosed.WithLabelValues(exitStatus).Inc()
}

// RecordSignalSkipped increments the skipped signals counter for a reason.
func RecordSignalSkipped(reason string) {
	DefaultMetrics.SignalsSkipped.WithLabelValues(reason).Inc()
}

// UpdateAccount updates the simulated account gauges.
func UpdateAccount(balance float64, openPositions int, realizedPnL float64) {
	DefaultMetrics.AccountBalance.Set(balance)
	DefaultMetrics.OpenPositions.Set(float64(openPositions))
	DefaultMetrics.RealizedPnL.Set(realizedPnL)
}

// RecordReportGenerated increments the reports generated counter.
func RecordReportGenerated() {
	DefaultMetrics.ReportsGenerated.Inc()
}

// MarkScanSuccess records the time of the last successful scan cycle.
func MarkScanSuccess(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulScan.Set(float64(unixSeconds))
}

// AddUptime adds elapsed seconds to the uptime counter.
func AddUptime(seconds float64) {
	DefaultMetrics.UptimeSeconds.Add(seconds)
}
