package memory

import (
	"time"

	approval "github.com/scriptoria/gatekeeper/service/approval"
	"github.com/scriptoria/gatekeeper/service/messaging"
	qmem "github.com/scriptoria/gatekeeper/service/messaging/memory"
)

type Option func(*service)

// WithTTL overrides the default 30 minute request time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(s *service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSweepInterval overrides the default 5 minute sweep cadence used by
// StartSweeper wiring.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *service) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithQueue replaces the event fan-out queue, e.g. to share one queue across
// services or to raise its buffer.
func WithQueue(q messaging.Queue[approval.Event]) Option {
	return func(s *service) {
		if q != nil {
			s.events = q
		}
	}
}

// WithQueueConfig replaces the event fan-out queue with a memory vendor
// queue built from the vendor-neutral configuration.
func WithQueueConfig(config messaging.QueueConfig) Option {
	return func(s *service) {
		s.events = qmem.NewQueue[approval.Event](qmem.NewConfig(config))
	}
}

// WithJournal attaches a durable append-only journal receiving every
// terminal request.  Journal faults never block a transition.
func WithJournal(j approval.Journal) Option {
	return func(s *service) { s.journal = j }
}

// SweepInterval exposes the configured cadence for the engine's sweeper
// wiring.
func SweepInterval(svc approval.Service) time.Duration {
	if s, ok := svc.(*service); ok {
		return s.sweepInterval
	}
	return DefaultSweepInterval
}
