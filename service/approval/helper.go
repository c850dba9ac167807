package approval

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DecisionFunc decides what to do with a pending request.
type DecisionFunc func(r *Request) (action DecisionAction, reason string)

// AutoDecider starts a goroutine that polls ListPending and applies fn to
// every request.  It returns stop() - call it (or cancel ctx) to exit.
// Intended for tests and embedding hosts that script decisions.
func AutoDecider(ctx context.Context,
	svc Service,
	fn DecisionFunc,
	interval time.Duration) (stop func()) {

	if interval <= 0 {
		interval = 20 * time.Millisecond
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
				reqs, _ := svc.ListPending(ctx)
				for _, r := range reqs {
					action, reason := fn(r)
					_, _ = svc.Resolve(ctx, r.ID, action, "auto-decider", reason)
				}
			}
		}
	}()
	return func() { close(done) }
}

// AutoApprove automatically approves all pending requests.
func AutoApprove(ctx context.Context, svc Service, interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (DecisionAction, string) { return DecisionApprove, "" }, interval)
}

// AutoReject automatically denies all pending requests with the given reason.
func AutoReject(ctx context.Context, svc Service, reason string, interval time.Duration) func() {
	return AutoDecider(ctx, svc,
		func(*Request) (DecisionAction, string) { return DecisionDeny, reason }, interval)
}

// WaitForDecision blocks until the request reaches a terminal state or the
// timeout elapses, returning the terminal snapshot.
func WaitForDecision(ctx context.Context, svc Service, id string, timeout time.Duration) (*Request, error) {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		req, err := svc.Get(ctx, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if req != nil && req.Status.Terminal() {
			return req, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("approval: timed out waiting for decision on %s", id)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
