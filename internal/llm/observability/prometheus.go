package observability

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every exported metric.
const Namespace = "triad"

// durationBuckets covers 1ms to roughly nine minutes; token histograms reuse it.
var durationBuckets = prometheus.ExponentialBuckets(1, 2, 20)

// PrometheusMetrics implements Metrics on a Prometheus registerer. Collectors
// are created on first use: dotted names become underscored and the sorted
// tag keys become the label set.
type PrometheusMetrics struct {
	reg    prometheus.Registerer
	logger *slog.Logger

	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	gauges     map[string]*prometheus.GaugeVec
}

// NewPrometheusMetrics creates a collector set on reg. A nil reg uses the
// default registerer.
func NewPrometheusMetrics(reg prometheus.Registerer, logger *slog.Logger) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PrometheusMetrics{
		reg:        reg,
		logger:     logger.With("component", "metrics"),
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		gauges:     make(map[string]*prometheus.GaugeVec),
	}
}

// IncrementCounter adds value to the named counter.
func (p *PrometheusMetrics) IncrementCounter(name string, tags map[string]string, value float64) {
	p.mu.Lock()
	vec, ok := p.counters[name]
	if !ok {
		vec = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      metricName(name),
			Help:      "Counter " + name + ".",
		}, labelNames(tags))
		vec = register(p, vec)
		p.counters[name] = vec
	}
	p.mu.Unlock()

	c, err := vec.GetMetricWith(prometheus.Labels(tags))
	if err != nil {
		p.logger.Warn("counter labels mismatch", "metric", name, "error", err)
		return
	}
	c.Add(value)
}

// RecordHistogram observes value on the named histogram.
func (p *PrometheusMetrics) RecordHistogram(name string, tags map[string]string, value float64) {
	p.mu.Lock()
	vec, ok := p.histograms[name]
	if !ok {
		vec = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      metricName(name),
			Help:      "Histogram " + name + ".",
			Buckets:   durationBuckets,
		}, labelNames(tags))
		vec = register(p, vec)
		p.histograms[name] = vec
	}
	p.mu.Unlock()

	h, err := vec.GetMetricWith(prometheus.Labels(tags))
	if err != nil {
		p.logger.Warn("histogram labels mismatch", "metric", name, "error", err)
		return
	}
	h.Observe(value)
}

// SetGauge sets the named gauge.
func (p *PrometheusMetrics) SetGauge(name string, tags map[string]string, value float64) {
	p.mu.Lock()
	vec, ok := p.gauges[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      metricName(name),
			Help:      "Gauge " + name + ".",
		}, labelNames(tags))
		vec = register(p, vec)
		p.gauges[name] = vec
	}
	p.mu.Unlock()

	g, err := vec.GetMetricWith(prometheus.Labels(tags))
	if err != nil {
		p.logger.Warn("gauge labels mismatch", "metric", name, "error", err)
		return
	}
	g.Set(value)
}

// register adds c to the registerer, reusing an identical collector that is
// already registered (two clients in one process share the series).
func register[C prometheus.Collector](p *PrometheusMetrics, c C) C {
	if err := p.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		p.logger.Warn("metric registration failed", "error", err)
	}
	return c
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for k := range tags {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
