package approval_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scriptoria/gatekeeper/model"
	approval "github.com/scriptoria/gatekeeper/service/approval"
	"github.com/scriptoria/gatekeeper/service/approval/memory"
)

func newContext(session string) *model.ApprovalContext {
	return &model.ApprovalContext{SessionID: session, UserID: "u1", Mode: model.ModeFormal}
}

func TestAutoApprove(t *testing.T) {
	svc := memory.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, newContext("s1"), nil)
	assert.NoError(t, err)

	stop := approval.AutoApprove(ctx, svc, 5*time.Millisecond)
	defer stop()

	resolved, err := approval.WaitForDecision(ctx, svc, created.ID, 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, resolved.Status)
	assert.Equal(t, "auto-decider", resolved.ApprovedBy)
}

func TestAutoReject(t *testing.T) {
	svc := memory.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, newContext("s1"), nil)
	assert.NoError(t, err)

	stop := approval.AutoReject(ctx, svc, "blanket deny", 5*time.Millisecond)
	defer stop()

	resolved, err := approval.WaitForDecision(ctx, svc, created.ID, 2*time.Second)
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusRejected, resolved.Status)
	assert.Equal(t, "blanket deny", resolved.RejectionReason)
}

func TestWaitForDecisionTimeout(t *testing.T) {
	svc := memory.New()
	ctx := context.Background()

	created, err := svc.Create(ctx, newContext("s1"), nil)
	assert.NoError(t, err)

	// Nothing resolves the request, so the wait runs out.
	_, err = approval.WaitForDecision(ctx, svc, created.ID, 50*time.Millisecond)
	assert.Error(t, err)
}

func TestWaitForDecisionCancelled(t *testing.T) {
	svc := memory.New()
	ctx, cancel := context.WithCancel(context.Background())

	created, err := svc.Create(ctx, newContext("s1"), nil)
	assert.NoError(t, err)

	cancel()
	_, err = approval.WaitForDecision(ctx, svc, created.ID, time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}
