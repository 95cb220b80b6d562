package reconciler

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

// options configures an Engine.
type options struct {
	protected []string
	debug     io.Writer
	logger    *zerolog.Logger
	batchSize int
}

func defaultOptions() *options {
	return &options{
		batchSize: constants.PageBatchSize,
	}
}

// Option is a function that configures an Engine.
type Option func(*options) error

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// newOptions returns engine options with default values.
func newOptions(opts ...Option) (*options, error) {
	return defaultOptions().apply(opts...)
}

// WithProtectedLabels marks pages carrying any of labels as exempt from the
// stale sweep and from a non-forced clean.
func WithProtectedLabels(labels ...string) Option {
	return func(o *options) error {
		for _, l := range labels {
			if l != "" {
				o.protected = append(o.protected, l)
			}
		}
		return nil
	}
}

// WithDebug makes failed publishes and updates dump the converted body to w.
func WithDebug(w io.Writer) Option {
	return func(o *options) error {
		o.debug = w
		return nil
	}
}

// WithLogger sets the base logger. Without it the context logger is used.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return &errors.ValidationError{
				Field:   "logger",
				Message: "cannot be nil",
			}
		}
		o.logger = logger
		return nil
	}
}

// WithBatchSize sets the page listing batch size used by the sweep and clean.
func WithBatchSize(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return &errors.ValidationError{
				Field:   "batch_size",
				Value:   n,
				Message: "must be positive",
			}
		}
		o.batchSize = n
		return nil
	}
}
