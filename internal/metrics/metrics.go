package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/muurk/stouch/internal/protocol"
	"github.com/muurk/stouch/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config configures the collectors
type Config struct {
	// Namespace is the metrics namespace (default: "stouch").
	Namespace string

	// Registry receives the collectors and backs Handler.
	// Default: a fresh registry with Go and process collectors.
	Registry *prometheus.Registry

	// Buckets are the histogram buckets for HTTP request duration.
	// Default: prometheus.DefBuckets
	Buckets []float64
}

// Option configures the collectors
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// WithBuckets sets the HTTP duration histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// Metrics holds the emulator's collectors. It implements session.Observer.
type Metrics struct {
	registry *prometheus.Registry

	packetsReceived  *prometheus.CounterVec
	packetsDropped   prometheus.Counter
	replies          *prometheus.CounterVec
	commandsHandled  *prometheus.CounterVec
	commandsIgnored  *prometheus.CounterVec
	connects         *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	streamClients    prometheus.Gauge
	automationResult *prometheus.CounterVec
}

var _ session.Observer = (*Metrics)(nil)

// New creates and registers the collectors
func New(opts ...Option) *Metrics {
	cfg := Config{
		Namespace: "stouch",
		Buckets:   prometheus.DefBuckets,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
		cfg.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	factory := promauto.With(cfg.Registry)

	return &Metrics{
		registry: cfg.Registry,

		packetsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packets_received_total",
			Help:      "Controller packets accepted, by packet type",
		}, []string{"type"}),

		packetsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "packets_dropped_total",
			Help:      "Datagrams dropped because the envelope could not be parsed",
		}),

		replies: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "replies_total",
			Help:      "Replies sent to the controller, by kind",
		}, []string{"kind"}),

		commandsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "commands_processed_total",
			Help:      "Embedded commands executed, by command",
		}, []string{"command"}),

		commandsIgnored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "commands_ignored_total",
			Help:      "Embedded commands skipped by the sequencing gate, by command",
		}, []string{"command"}),

		connects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "connect_attempts_total",
			Help:      "Connect calls, by outcome",
		}, []string{"result"}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "REST requests, by route and status code",
		}, []string{"route", "status"}),

		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "REST request duration in seconds",
			Buckets:   cfg.Buckets,
		}, []string{"route"}),

		streamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "stream_clients",
			Help:      "Connected scene stream websocket clients",
		}),

		automationResult: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "automation_runs_total",
			Help:      "Automation sequences run, by outcome",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the backing registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func packetTypeLabel(t byte) string {
	switch t {
	case protocol.PacketTypeCommand:
		return "standard"
	case protocol.PacketTypeExtended:
		return "extended"
	default:
		return strconv.Itoa(int(t))
	}
}

func (m *Metrics) PacketReceived(packetType byte) {
	m.packetsReceived.WithLabelValues(packetTypeLabel(packetType)).Inc()
}

func (m *Metrics) PacketDropped() {
	m.packetsDropped.Inc()
}

func (m *Metrics) ReplySent(kind string) {
	m.replies.WithLabelValues(kind).Inc()
}

func (m *Metrics) CommandProcessed(id protocol.CommandID) {
	m.commandsHandled.WithLabelValues(id.String()).Inc()
}

func (m *Metrics) CommandIgnored(id protocol.CommandID) {
	m.commandsIgnored.WithLabelValues(id.String()).Inc()
}

func (m *Metrics) ConnectFinished(result session.ConnectResult) {
	m.connects.WithLabelValues(result.String()).Inc()
}

// ObserveHTTP records one REST request. route is the router pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// StreamOpened and StreamClosed track websocket clients
func (m *Metrics) StreamOpened() { m.streamClients.Inc() }
func (m *Metrics) StreamClosed() { m.streamClients.Dec() }

// AutomationFinished counts a sequence run; outcome is "ok" or the failure kind
func (m *Metrics) AutomationFinished(outcome string) {
	m.automationResult.WithLabelValues(outcome).Inc()
}
