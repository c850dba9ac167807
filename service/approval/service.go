package approval

import (
	"context"
	"time"

	"github.com/scriptoria/gatekeeper/model"
	"github.com/scriptoria/gatekeeper/service/messaging"
)

// Service defines the approval request store and resolver.
type Service interface {
	// Create opens a pending request for the supplied context snapshot with a
	// collision-free id and the configured TTL.
	Create(ctx context.Context, c *model.ApprovalContext, triggered []*model.TriggeredRule) (*Request, error)

	// Get returns a snapshot of the request, pending or historical.
	Get(ctx context.Context, id string) (*Request, error)

	// ListPending returns snapshots of in-flight requests matching every
	// supplied filter.
	ListPending(ctx context.Context, filters ...PendingFilter) ([]*Request, error)

	// Resolve applies a human decision to a pending request.  See the memory
	// implementation for the transition rules.
	Resolve(ctx context.Context, id string, action DecisionAction, actorID, reason string) (*Decision, error)

	// Sweep expires every pending request whose deadline passed, returning
	// the number of expired requests.
	Sweep(ctx context.Context, now time.Time) (int, error)

	// History returns the append-only log of terminal requests in the order
	// they were resolved or expired.
	History(ctx context.Context) ([]*Request, error)

	// Queue exposes the event fan-out for external notification channels.
	Queue() messaging.Queue[Event]
}

// Journal receives terminal requests for durable, append-only persistence.
// Implementations must tolerate duplicate appends.
type Journal interface {
	Append(ctx context.Context, r *Request) error
}

// PendingFilter narrows ListPending results.
type PendingFilter func(r *Request) bool

// WithSessionID keeps requests created for the given session.
func WithSessionID(id string) PendingFilter {
	return func(r *Request) bool { return r.Context != nil && r.Context.SessionID == id }
}

// WithUserID keeps requests created for the given user.
func WithUserID(id string) PendingFilter {
	return func(r *Request) bool { return r.Context != nil && r.Context.UserID == id }
}

// WithMode keeps requests created in the given session mode.
func WithMode(mode model.Mode) PendingFilter {
	return func(r *Request) bool { return r.Context != nil && r.Context.Mode == mode }
}
