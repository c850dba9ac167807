package gatekeeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/scriptoria/gatekeeper/model"
	"github.com/scriptoria/gatekeeper/policy"
	"github.com/scriptoria/gatekeeper/risk"
	approval "github.com/scriptoria/gatekeeper/service/approval"
	amemory "github.com/scriptoria/gatekeeper/service/approval/memory"
	"github.com/scriptoria/gatekeeper/service/notification"
)

// Service is the approval gate engine: one explicitly constructed instance
// per host, configured once and passed by reference to all callers.
type Service struct {
	config     *Config
	rules      []*policy.Rule
	registry   *policy.Registry
	assessor   *risk.Assessor
	evaluator  *policy.Evaluator
	approvals  approval.Service
	dispatcher *notification.Dispatcher
	journal    approval.Journal
}

// Evaluation is the result handed back to the request-handling layer: the
// verdict plus, on the require_approval path, the pending request and its
// approver notification.
type Evaluation struct {
	*policy.Outcome
	Request      *approval.Request          `json:"request,omitempty"`
	Notification *notification.Notification `json:"notification,omitempty"`
}

// New creates an engine.  Without options it carries the default rule set,
// the in-memory approval store and the package default configuration.
func New(options ...Option) (*Service, error) {
	ret := &Service{}
	for _, option := range options {
		option(ret)
	}
	if err := ret.ensureBaseSetup(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) ensureBaseSetup() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	s.config.Init()
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("gatekeeper: invalid config: %w", err)
	}
	if s.registry == nil {
		rules := s.rules
		if len(rules) == 0 {
			rules = policy.DefaultRules()
		}
		registry, err := policy.NewRegistry(rules...)
		if err != nil {
			return err
		}
		s.registry = registry
	}
	if s.assessor == nil {
		s.assessor = risk.New(s.config.Risk)
	}
	if s.approvals == nil {
		options := []amemory.Option{
			amemory.WithTTL(s.config.Approval.TTL),
			amemory.WithSweepInterval(s.config.Approval.SweepInterval),
		}
		if s.journal != nil {
			options = append(options, amemory.WithJournal(s.journal))
		}
		s.approvals = amemory.New(options...)
	}
	if s.dispatcher == nil {
		s.dispatcher = notification.New(s.config.Notification)
	}
	s.evaluator = policy.NewEvaluator(s.registry, s.assessor, &storeGate{approvals: s.approvals})
	return nil
}

// Evaluate renders a verdict for the supplied context.  On require_approval
// the returned evaluation carries the pending request snapshot and the
// notification built for human approvers.
func (s *Service) Evaluate(ctx context.Context, c *model.ApprovalContext) (*Evaluation, error) {
	outcome, err := s.evaluator.Evaluate(ctx, c)
	if err != nil {
		return nil, err
	}
	ret := &Evaluation{Outcome: outcome}
	if outcome.Verdict != policy.VerdictRequireApproval || outcome.ApprovalID == "" {
		return ret, nil
	}
	request, err := s.approvals.Get(ctx, outcome.ApprovalID)
	if err != nil {
		return nil, fmt.Errorf("gatekeeper: lost approval request %s: %w", outcome.ApprovalID, err)
	}
	ret.Request = request
	ret.Notification = s.dispatcher.Build(request)
	return ret, nil
}

// Resolve feeds a human decision back into the gate and keeps the approver
// notification in sync with the resulting state, including the self-healing
// expiry on a late decision.
func (s *Service) Resolve(ctx context.Context, id string, action approval.DecisionAction, actorID, reason string) (*approval.Decision, error) {
	decision, err := s.approvals.Resolve(ctx, id, action, actorID, reason)
	if err != nil && !errors.Is(err, approval.ErrExpired) {
		return nil, err
	}
	if request, getErr := s.approvals.Get(ctx, id); getErr == nil {
		s.dispatcher.Refresh(request)
	}
	if err != nil {
		return nil, err
	}
	return decision, nil
}

// StartSweeper runs the periodic expiry sweep until ctx is cancelled or the
// returned stop function is called.
func (s *Service) StartSweeper(ctx context.Context) (stop func()) {
	return amemory.StartSweeper(ctx, s.approvals, s.config.Approval.SweepInterval)
}

// Registry exposes the administrative rule surface (runtime add/remove).
func (s *Service) Registry() *policy.Registry { return s.registry }

// Approvals exposes the approval request store.
func (s *Service) Approvals() approval.Service { return s.approvals }

// Dispatcher exposes the notification dispatcher.
func (s *Service) Dispatcher() *notification.Dispatcher { return s.dispatcher }

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// storeGate adapts the approval service to the evaluator's Gate port.
type storeGate struct {
	approvals approval.Service
}

func (g *storeGate) Open(ctx context.Context, c *model.ApprovalContext, triggered []*model.TriggeredRule) (string, error) {
	request, err := g.approvals.Create(ctx, c, triggered)
	if err != nil {
		return "", err
	}
	return request.ID, nil
}
