package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Signal metrics
	signalsComputed *prometheus.CounterVec
	signalErrors    *prometheus.CounterVec
	signalChanges   *prometheus.CounterVec
	lastPrice       *prometheus.GaugeVec
	tradesNotified  *prometheus.CounterVec
	botSymbols      prometheus.Gauge
	streamClients   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Signal metrics
	r.signalsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_signals_computed_total",
			Help: "Total number of signal evaluations",
		},
		[]string{"symbol", "signal"},
	)
	r.signalErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_signal_errors_total",
			Help: "Total number of rejected signal evaluations by error kind",
		},
		[]string{"kind"},
	)
	r.signalChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_signal_changes_total",
			Help: "Total number of signal changes that produced a trade record",
		},
		[]string{"symbol", "signal"},
	)
	r.lastPrice = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tradebot_last_price",
			Help: "Last observed price per symbol",
		},
		[]string{"symbol"},
	)
	r.tradesNotified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradebot_trades_notified_total",
			Help: "Total number of trade records delivered to notifiers",
		},
		[]string{"notifier", "status"},
	)
	r.botSymbols = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradebot_bot_symbols",
			Help: "Number of symbols the bot evaluates",
		},
	)
	r.streamClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tradebot_stream_clients",
			Help: "Number of connected websocket clients",
		},
	)

	reg.MustRegister(r.signalsComputed)
	reg.MustRegister(r.signalErrors)
	reg.MustRegister(r.signalChanges)
	reg.MustRegister(r.lastPrice)
	reg.MustRegister(r.tradesNotified)
	reg.MustRegister(r.botSymbols)
	reg.MustRegister(r.streamClients)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordSignal records a completed evaluation.
func (r *Registry) RecordSignal(symbol, signal string) {
	r.signalsComputed.WithLabelValues(symbol, signal).Inc()
}

// RecordError records a rejected evaluation. kind is the error code.
func (r *Registry) RecordError(kind string) {
	r.signalErrors.WithLabelValues(kind).Inc()
}

// RecordChange records a signal change.
func (r *Registry) RecordChange(symbol, signal string) {
	r.signalChanges.WithLabelValues(symbol, signal).Inc()
}

// SetLastPrice sets the last observed price of a symbol.
func (r *Registry) SetLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// DeleteSymbol drops the per-symbol price gauge.
func (r *Registry) DeleteSymbol(symbol string) {
	r.lastPrice.DeleteLabelValues(symbol)
}

// RecordNotification records a trade delivery attempt.
func (r *Registry) RecordNotification(notifier, status string) {
	r.tradesNotified.WithLabelValues(notifier, status).Inc()
}

// SetBotSymbols sets the number of evaluated symbols.
func (r *Registry) SetBotSymbols(n int) {
	r.botSymbols.Set(float64(n))
}

// SetStreamClients sets the number of websocket clients.
func (r *Registry) SetStreamClients(n int) {
	r.streamClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{Registry: r.Registry})
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
