package protocol

import "github.com/rs/zerolog"

// Option configures a StateMachine or a Handler.
type Option func(*options)

type options struct {
	log     zerolog.Logger
	metrics *Metrics
}

func newOptions(opts []Option) options {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used to report round transitions and dropped messages.
// By default nothing is logged.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics instruments the execution with the given Metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}
