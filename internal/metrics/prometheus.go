// Package metrics provides Prometheus metrics for proxyconf.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rennerdo30/proxyconf/internal/netproxy"
)

// Metrics holds all Prometheus metrics for proxyconf.
type Metrics struct {
	ConfigurationChanges *prometheus.CounterVec
	DisabledChanges      prometheus.Counter
	ProxyDisabled        prometheus.Gauge
	ProxyType            *prometheus.GaugeVec
	PublishErrors        prometheus.Counter

	registry *prometheus.Registry
}

// Source is what Metrics observes; *netproxy.Manager satisfies it.
type Source interface {
	Configuration() netproxy.Configuration
	IsDisabled() bool
	Subscribe(fn func()) (cancel func())
	SubscribeDisabled(fn func(disabled bool)) (cancel func())
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.ConfigurationChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proxyconf_configuration_changes_total",
			Help: "Number of applied proxy configuration changes",
		},
		[]string{"type"},
	)

	m.DisabledChanges = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proxyconf_disabled_changes_total",
			Help: "Number of times the proxy was switched on or off",
		},
	)

	m.ProxyDisabled = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "proxyconf_proxy_disabled",
			Help: "1 if the proxy is disabled",
		},
	)

	m.ProxyType = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "proxyconf_proxy_type",
			Help: "1 for the configured proxy type, 0 otherwise",
		},
		[]string{"type"},
	)

	m.PublishErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "proxyconf_environment_publish_errors_total",
			Help: "Number of failed attempts to publish proxy environment variables",
		},
	)

	m.registry.MustRegister(
		m.ConfigurationChanges,
		m.DisabledChanges,
		m.ProxyDisabled,
		m.ProxyType,
		m.PublishErrors,
	)

	m.registry.MustRegister(prometheus.NewGoCollector())
	m.registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return m
}

// Observe records the current state of src and keeps the metrics up to
// date as it changes. The returned func stops observing.
func (m *Metrics) Observe(src Source) (cancel func()) {
	m.setType(src.Configuration().Type)
	m.setDisabled(src.IsDisabled())

	cancelConfig := src.Subscribe(func() {
		t := src.Configuration().Type
		m.ConfigurationChanges.WithLabelValues(t.String()).Inc()
		m.setType(t)
	})
	cancelDisabled := src.SubscribeDisabled(func(disabled bool) {
		m.DisabledChanges.Inc()
		m.setDisabled(disabled)
	})

	return func() {
		cancelConfig()
		cancelDisabled()
	}
}

// Instrument wraps p so that its failures are counted.
func (m *Metrics) Instrument(p netproxy.Publisher) netproxy.Publisher {
	return netproxy.PublisherFunc(func(env netproxy.Env) error {
		err := p.Publish(env)
		if err != nil {
			m.PublishErrors.Inc()
		}
		return err
	})
}

func (m *Metrics) setType(active netproxy.Type) {
	for _, t := range []netproxy.Type{netproxy.None, netproxy.HTTP, netproxy.HTTPPW, netproxy.SOCKS5, netproxy.SOCKS5PW, netproxy.SOCKS4} {
		v := 0.0
		if t == active {
			v = 1
		}
		m.ProxyType.WithLabelValues(t.String()).Set(v)
	}
}

func (m *Metrics) setDisabled(disabled bool) {
	if disabled {
		m.ProxyDisabled.Set(1)
	} else {
		m.ProxyDisabled.Set(0)
	}
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
