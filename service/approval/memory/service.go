// Package memory provides the in-memory implementation of the approval
// service: an owned table of requests keyed by generated id with an
// append-only history log, a TTL sweep loop and the decision resolver.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/scriptoria/gatekeeper/internal/clock"
	"github.com/scriptoria/gatekeeper/internal/idgen"
	"github.com/scriptoria/gatekeeper/model"
	approval "github.com/scriptoria/gatekeeper/service/approval"
	"github.com/scriptoria/gatekeeper/service/dao"
	"github.com/scriptoria/gatekeeper/service/dao/criteria"
	"github.com/scriptoria/gatekeeper/service/dao/store"
	"github.com/scriptoria/gatekeeper/service/messaging"
	qmem "github.com/scriptoria/gatekeeper/service/messaging/memory"
	"github.com/scriptoria/gatekeeper/tracing"
)

// Defaults for the request lifecycle.
const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

func requestKey(r *approval.Request) string { return r.ID }

type service struct {
	ttl           time.Duration
	sweepInterval time.Duration

	// records holds every request ever created; terminal records are never
	// deleted, only excluded from the pending view by status.
	records dao.Service[string, approval.Request]

	// mu serializes all state transitions (create, resolve, sweep) so that
	// two writers can never double-transition the same id.  Reads go through
	// cloned snapshots and proceed concurrently.
	mu         sync.Mutex
	historyIDs []string // append-only order of terminal records

	events  messaging.Queue[approval.Event]
	journal approval.Journal
}

// New creates an in-memory approval service.
func New(options ...Option) approval.Service {
	ret := &service{
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
		records:       store.NewMemoryStore[string, approval.Request](requestKey),
		events:        qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) Create(ctx context.Context, c *model.ApprovalContext, triggered []*model.TriggeredRule) (*approval.Request, error) {
	if c == nil {
		return nil, fmt.Errorf("approval: nil context")
	}
	now := clock.Now()
	req := &approval.Request{
		ID:             idgen.New(),
		Context:        c.Clone(),
		TriggeredRules: triggered,
		Status:         approval.StatusPending,
		CreatedAt:      now,
		ExpiresAt:      now.Add(s.ttl),
		ApproverTier:   model.TierModerator,
	}

	s.mu.Lock()
	_ = s.records.Save(ctx, req)
	s.mu.Unlock()

	s.publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: req.Clone()})
	return req.Clone(), nil
}

// tryPublisher is the optional non-blocking surface of an event queue.
type tryPublisher interface {
	TryPublish(ctx context.Context, event *approval.Event) bool
}

// publish fans lifecycle events out once the transition lock is released.
// Delivery is best-effort: when the queue is full and nobody drains it the
// event is dropped, so a state transition never blocks on an observer.
func (s *service) publish(ctx context.Context, events ...*approval.Event) {
	for _, event := range events {
		if q, ok := s.events.(tryPublisher); ok {
			q.TryPublish(ctx, event)
			continue
		}
		_ = s.events.Publish(ctx, event)
	}
}

func (s *service) Get(ctx context.Context, id string) (*approval.Request, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", approval.ErrNotFound)
	}
	req, err := s.records.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	return req.Clone(), nil
}

func (s *service) ListPending(ctx context.Context, filters ...approval.PendingFilter) ([]*approval.Request, error) {
	all, err := s.records.List(ctx)
	if err != nil {
		return nil, err
	}
	pendingOnly := []*dao.Parameter{dao.NewParameter("Status", string(approval.StatusPending))}
	ret := make([]*approval.Request, 0, len(all))
outer:
	for _, r := range all {
		if !criteria.FilterByStatus(string(r.Status), pendingOnly) {
			continue
		}
		for _, filter := range filters {
			if !filter(r) {
				continue outer
			}
		}
		ret = append(ret, r.Clone())
	}
	return ret, nil
}

// Resolve applies a human decision to a pending request.
//
// approve and deny are terminal: the request moves to history and the actor
// is recorded.  escalate keeps the request pending and re-routes it one
// approver tier up; defer keeps it pending and extends the deadline by half
// the TTL.  Both non-terminal verbs are extension points kept deliberately
// narrow.  A decision past the deadline performs the same transition the
// sweep would and fails with ErrExpired - a late decision is never silently
// honoured.
func (s *service) Resolve(ctx context.Context, id string, action approval.DecisionAction, actorID, reason string) (*approval.Decision, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.resolve", "INTERNAL")
	decision, err := s.resolve(ctx, id, action, actorID, reason)
	span.WithAttributes(map[string]string{"request.id": id, "decision": string(action)})
	tracing.EndSpan(span, err)
	return decision, err
}

func (s *service) resolve(ctx context.Context, id string, action approval.DecisionAction, actorID, reason string) (*approval.Decision, error) {
	switch action {
	case approval.DecisionApprove, approval.DecisionDeny, approval.DecisionEscalate, approval.DecisionDefer:
	default:
		return nil, fmt.Errorf("%w: %q", approval.ErrInvalidDecision, action)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", approval.ErrNotFound)
	}

	s.mu.Lock()
	decision, events, err := s.transition(ctx, id, action, actorID, reason)
	s.mu.Unlock()

	s.publish(ctx, events...)
	return decision, err
}

// transition applies the decision under s.mu and returns the events to fan
// out once the lock is released.
func (s *service) transition(ctx context.Context, id string, action approval.DecisionAction, actorID, reason string) (*approval.Decision, []*approval.Event, error) {
	current, err := s.records.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if current == nil {
		return nil, nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	if current.Status == approval.StatusExpired {
		return nil, nil, fmt.Errorf("%w: %s", approval.ErrExpired, id)
	}
	if current.Status.Terminal() {
		// Resolving twice is not idempotent: the second call fails.
		return nil, nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}

	now := clock.Now()
	if current.Expired(now) {
		expired := current.Clone()
		expired.Status = approval.StatusExpired
		s.commitTerminal(ctx, expired)
		events := []*approval.Event{{Topic: approval.TopicRequestExpired, Data: expired.Clone()}}
		return nil, events, fmt.Errorf("%w: %s", approval.ErrExpired, id)
	}

	updated := current.Clone()
	decision := &approval.Decision{
		RequestID: id,
		Action:    action,
		ActorID:   actorID,
		Reason:    reason,
		DecidedAt: now,
	}

	switch action {
	case approval.DecisionApprove:
		updated.Status = approval.StatusApproved
		updated.ApprovedBy = actorID
		s.commitTerminal(ctx, updated)
	case approval.DecisionDeny:
		updated.Status = approval.StatusRejected
		updated.ApprovedBy = actorID
		updated.RejectionReason = reason
		s.commitTerminal(ctx, updated)
	case approval.DecisionEscalate:
		updated.EscalatedBy = append(updated.EscalatedBy, actorID)
		updated.ApproverTier = model.NextTier(updated.ApproverTier)
		_ = s.records.Save(ctx, updated)
	case approval.DecisionDefer:
		updated.ExpiresAt = updated.ExpiresAt.Add(s.ttl / 2)
		_ = s.records.Save(ctx, updated)
	}
	decision.Status = updated.Status

	var events []*approval.Event
	if updated.Status.Terminal() {
		events = append(events, &approval.Event{Topic: approval.TopicDecisionCreated, Data: decision})
	}
	events = append(events, &approval.Event{Topic: approval.TopicRequestUpdated, Data: updated.Clone()})
	return decision, events, nil
}

// commitTerminal saves the terminal version and appends it to the history
// log.  Callers hold s.mu.
func (s *service) commitTerminal(ctx context.Context, req *approval.Request) {
	_ = s.records.Save(ctx, req)
	s.historyIDs = append(s.historyIDs, req.ID)
	if s.journal != nil {
		// Best-effort durable append; a journal fault must not block the
		// transition.
		_ = s.journal.Append(ctx, req.Clone())
	}
}

func (s *service) Sweep(ctx context.Context, now time.Time) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "approval.sweep", "INTERNAL")
	expired, err := s.sweep(ctx, now)
	span.WithAttributes(map[string]string{"expired": fmt.Sprintf("%d", expired)})
	tracing.EndSpan(span, err)
	return expired, err
}

func (s *service) sweep(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	all, err := s.records.List(ctx)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	var events []*approval.Event
	expired := 0
	for _, r := range all {
		if r.Status != approval.StatusPending || !r.Expired(now) {
			continue
		}
		terminal := r.Clone()
		terminal.Status = approval.StatusExpired
		s.commitTerminal(ctx, terminal)
		events = append(events, &approval.Event{Topic: approval.TopicRequestExpired, Data: terminal.Clone()})
		expired++
	}
	s.mu.Unlock()

	s.publish(ctx, events...)
	return expired, nil
}

// StartSweeper runs the periodic expiry sweep until ctx is cancelled or the
// returned stop function is called.  The sweep executes with the same
// transition lock as Resolve, decoupled from any request/response cycle.
func StartSweeper(ctx context.Context, svc approval.Service, interval time.Duration) (stop func()) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				_, _ = svc.Sweep(ctx, clock.Now())
			}
		}
	}()
	return func() { close(done) }
}

func (s *service) History(ctx context.Context) ([]*approval.Request, error) {
	s.mu.Lock()
	ids := append([]string(nil), s.historyIDs...)
	s.mu.Unlock()

	ret := make([]*approval.Request, 0, len(ids))
	for _, id := range ids {
		r, err := s.records.Load(ctx, id)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, fmt.Errorf("%w: history references unknown request %s", dao.ErrNotFound, id)
		}
		ret = append(ret, r.Clone())
	}
	return ret, nil
}

func (s *service) Queue() messaging.Queue[approval.Event] { return s.events }

var _ approval.Service = (*service)(nil)
