package compare

import (
	"log/slog"

	"github.com/ahrav/go-triad/internal/llm/observability"
)

type options struct {
	logger  *slog.Logger
	metrics observability.Metrics
}

// Option customizes callers and orchestrators.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m observability.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:  slog.Default(),
		metrics: observability.NewNoOpMetrics(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
