package approval

import (
	"time"

	"github.com/scriptoria/gatekeeper/model"
)

// Status of an approval request.  pending is the only non-terminal state;
// transitions are monotonic - once terminal a request never re-enters
// pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// Decision verbs accepted by Resolve.  Approve and deny are terminal;
// escalate and defer adjust a still-pending request (see Service.Resolve).
type DecisionAction string

const (
	DecisionApprove  DecisionAction = "approve"
	DecisionDeny     DecisionAction = "deny"
	DecisionEscalate DecisionAction = "escalate"
	DecisionDefer    DecisionAction = "defer"
)

// Request is a single in-flight (or historical) approval gate.
type Request struct {
	ID              string                 `json:"id"`
	Context         *model.ApprovalContext `json:"context"`
	TriggeredRules  []*model.TriggeredRule `json:"triggeredRules,omitempty"` // descending priority
	Status          Status                 `json:"status"`
	CreatedAt       time.Time              `json:"createdAt"`
	ExpiresAt       time.Time              `json:"expiresAt"`
	ApprovedBy      string                 `json:"approvedBy,omitempty"` // actor of the terminal decision
	RejectionReason string                 `json:"rejectionReason,omitempty"`

	// Escalation bookkeeping - extension surface, see Service.Resolve.
	ApproverTier model.Tier `json:"approverTier,omitempty"`
	EscalatedBy  []string   `json:"escalatedBy,omitempty"`
}

// Expired reports whether the request deadline has been reached at now.
// The comparison is inclusive: a request expires at the deadline instant,
// not one tick after it.
func (r *Request) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Clone returns a deep snapshot so readers never observe a record
// mid-mutation.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	ret := *r
	ret.Context = r.Context.Clone()
	if r.TriggeredRules != nil {
		ret.TriggeredRules = make([]*model.TriggeredRule, len(r.TriggeredRules))
		for i, rule := range r.TriggeredRules {
			cp := *rule
			ret.TriggeredRules[i] = &cp
		}
	}
	ret.EscalatedBy = append([]string(nil), r.EscalatedBy...)
	return &ret
}

// Decision records the outcome of a Resolve call.
type Decision struct {
	RequestID string         `json:"requestId"`
	Action    DecisionAction `json:"action"`
	ActorID   string         `json:"actorId"`
	Reason    string         `json:"reason,omitempty"`
	Status    Status         `json:"status"` // resulting request status
	DecidedAt time.Time      `json:"decidedAt"`
}

// Event is the envelope published on the service queue.
type Event struct {
	Topic   string            `json:"topic"`
	Data    interface{}       `json:"data"` // *Request | *Decision
	Headers map[string]string `json:"headers,omitempty"`
}

// Event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicRequestUpdated  = "request.updated"
	TopicRequestExpired  = "request.expired"
	TopicDecisionCreated = "decision.created"
)
