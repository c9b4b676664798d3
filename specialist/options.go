package specialist

import (
	"time"

	"go.uber.org/zap"
)

// Defaults for handler options.
const (
	DefaultLimit    = 10
	DefaultMaxLimit = 1000
	defaultTimeout  = 10 * time.Second
)

type options struct {
	timeout      time.Duration
	defaultLimit int
	maxLimit     int
	logger       *zap.Logger
}

// Option configures a handler.
type Option func(*options)

// WithTimeout bounds the store calls of one Handle invocation.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithDefaultLimit sets the limit used when parameters carry none.
func WithDefaultLimit(n int) Option {
	return func(o *options) { o.defaultLimit = n }
}

// WithMaxLimit rejects parameters whose limit exceeds n.
func WithMaxLimit(n int) Option {
	return func(o *options) { o.maxLimit = n }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	o := options{
		timeout:      defaultTimeout,
		defaultLimit: DefaultLimit,
		maxLimit:     DefaultMaxLimit,
		logger:       zap.NewNop(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
