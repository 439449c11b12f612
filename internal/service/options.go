package service

import (
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/utils"
	"github.com/jonboulle/clockwork"
)

// DeltaBatchThreshold is the default number of per-set item queries above
// which the delta sync fetches every item in one call instead.
const DeltaBatchThreshold = 5

// Option configures a [CachedCollection] or a [SetCollection].
type Option func(*options)

type options struct {
	audit     AuditSink
	logger    *logger.Logger
	clock     clockwork.Clock
	ids       *utils.UUIDGenerator
	threshold int
}

func defaultOptions() options {
	return options{
		audit:     NopAuditSink{},
		logger:    logger.Nop(),
		clock:     clockwork.NewRealClock(),
		ids:       utils.NewUUIDGenerator(),
		threshold: DeltaBatchThreshold,
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithAuditSink reports successful mutations to sink.
func WithAuditSink(sink AuditSink) Option {
	return func(o *options) {
		if sink != nil {
			o.audit = sink
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used to stamp created and updated records.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithDeltaThreshold sets the per-set query limit of the delta sync. Values
// below 1 keep the default.
func WithDeltaThreshold(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.threshold = n
		}
	}
}
