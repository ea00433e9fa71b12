package analysis

import (
	"log/slog"
	"runtime"
)

// DefaultMaxAttributes is the largest universe FindCandidateKeys searches
// unless WithMaxAttributes overrides it. 2^20 subsets is about a million
// closure computations.
const DefaultMaxAttributes = 20

// Option configures key enumeration and the Analyzer.
type Option func(*options)

type options struct {
	workers       int
	maxAttributes int
	logger        *slog.Logger
}

func defaultOptions() options {
	return options{
		workers:       runtime.GOMAXPROCS(0),
		maxAttributes: DefaultMaxAttributes,
		logger:        slog.New(slog.DiscardHandler),
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithWorkers sets how many goroutines test subsets of one cardinality level.
// Values below 1 mean sequential search.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.workers = n
	}
}

// WithMaxAttributes sets the attribute ceiling above which key enumeration
// fails with a *CapacityError instead of searching. Values below 1 keep the
// default.
func WithMaxAttributes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxAttributes = n
		}
	}
}

// WithLogger sets the logger for progress and validation warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
