package gatekeeper

import (
	"github.com/scriptoria/gatekeeper/policy"
	"github.com/scriptoria/gatekeeper/risk"
	approval "github.com/scriptoria/gatekeeper/service/approval"
	"github.com/scriptoria/gatekeeper/service/notification"
	"github.com/scriptoria/gatekeeper/tracing"
)

// Option customises the engine at construction time.
type Option func(s *Service)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithRules replaces the built-in rule set.  Order matters: it is the
// tie-break between equal priorities.
func WithRules(rules ...*policy.Rule) Option {
	return func(s *Service) { s.rules = rules }
}

// WithRegistry supplies a pre-assembled registry, e.g. one shared with an
// administrative surface.
func WithRegistry(registry *policy.Registry) Option {
	return func(s *Service) { s.registry = registry }
}

// WithAssessor replaces the default risk assessor.
func WithAssessor(assessor *risk.Assessor) Option {
	return func(s *Service) { s.assessor = assessor }
}

// WithApprovalService replaces the default in-memory approval store.
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvals = svc }
}

// WithJournal attaches a durable append-only journal for terminal requests;
// only effective with the default in-memory approval store.
func WithJournal(journal approval.Journal) Option {
	return func(s *Service) { s.journal = journal }
}

// WithDispatcher replaces the default notification dispatcher.
func WithDispatcher(dispatcher *notification.Dispatcher) Option {
	return func(s *Service) { s.dispatcher = dispatcher }
}

// WithTracing configures OpenTelemetry tracing for the engine.  If
// outputFile is empty the stdout exporter is used; otherwise traces are
// written to the supplied file path.  Safe to call multiple times - the
// first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}
