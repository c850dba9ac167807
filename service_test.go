package gatekeeper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/scriptoria/gatekeeper/internal/clock"
	"github.com/scriptoria/gatekeeper/model"
	"github.com/scriptoria/gatekeeper/policy"
	approval "github.com/scriptoria/gatekeeper/service/approval"
	"github.com/scriptoria/gatekeeper/service/notification"
)

func stubClock(t *testing.T, at time.Time) func(time.Time) {
	t.Helper()
	previous := clock.NowFunc
	current := at
	clock.NowFunc = func() time.Time { return current }
	t.Cleanup(func() { clock.NowFunc = previous })
	return func(at time.Time) { current = at }
}

func TestEvaluateFormalResearchGates(t *testing.T) {
	engine, err := New()
	assert.NoError(t, err)

	evaluation, err := engine.Evaluate(context.Background(), &model.ApprovalContext{
		SessionID:      "s1",
		UserID:         "u1",
		Mode:           model.ModeFormal,
		MessageContent: "tolong carikan jurnal pendukung untuk bab dua",
		ToolCalls:      []model.ToolCall{{Name: "web_search", Args: map[string]interface{}{"query": "jurnal skripsi"}}},
	})
	assert.NoError(t, err)
	assert.Equal(t, policy.VerdictRequireApproval, evaluation.Verdict)
	assert.Equal(t, policy.RuleFormalExternalResearch, evaluation.TriggeredRules[0].ID)

	assert.NotNil(t, evaluation.Request)
	assert.Equal(t, evaluation.ApprovalID, evaluation.Request.ID)
	assert.Equal(t, approval.StatusPending, evaluation.Request.Status)

	assert.NotNil(t, evaluation.Notification)
	assert.Equal(t, notification.TypeApprovalRequest, evaluation.Notification.Type)
	assert.Equal(t, evaluation.Request.ID, evaluation.Notification.RequestID)

	pending, err := engine.Approvals().ListPending(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, len(pending))
}

func TestEvaluateCasualResearchProceeds(t *testing.T) {
	engine, err := New()
	assert.NoError(t, err)

	// The same tool call outside a formal session passes without a gate.
	evaluation, err := engine.Evaluate(context.Background(), &model.ApprovalContext{
		SessionID:      "s2",
		UserID:         "u1",
		Mode:           model.ModeCasual,
		MessageContent: "cari resep nasi goreng",
		ToolCalls:      []model.ToolCall{{Name: "web_search", Args: map[string]interface{}{"query": "resep nasi goreng"}}},
	})
	assert.NoError(t, err)
	assert.Equal(t, policy.VerdictProceed, evaluation.Verdict)
	assert.Nil(t, evaluation.Request)
	assert.Nil(t, evaluation.Notification)

	pending, err := engine.Approvals().ListPending(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, pending)
}

func TestEvaluateCasualSensitiveContentGates(t *testing.T) {
	engine, err := New()
	assert.NoError(t, err)

	evaluation, err := engine.Evaluate(context.Background(), &model.ApprovalContext{
		SessionID:      "s3",
		UserID:         "u2",
		Mode:           model.ModeCasual,
		MessageContent: "gimana nyimpen password aman",
	})
	assert.NoError(t, err)
	assert.Equal(t, policy.VerdictRequireApproval, evaluation.Verdict)
	assert.Equal(t, policy.RuleCasualSensitiveContent, evaluation.TriggeredRules[0].ID)

	// The assessor ran as part of the evaluation and fed the notification.
	assert.NotNil(t, evaluation.Request.Context.Risk)
	assert.Equal(t, model.RiskHigh, evaluation.Request.Context.Risk.ContentRisk)
	assert.Equal(t, notification.PriorityHigh, evaluation.Notification.Priority)
}

func TestResolveUnknownRequest(t *testing.T) {
	engine, err := New()
	assert.NoError(t, err)

	_, err = engine.Resolve(context.Background(), "does-not-exist", approval.DecisionApprove, "mod-1", "")
	assert.ErrorIs(t, err, approval.ErrNotFound)
}

func TestApprovalRoundTrip(t *testing.T) {
	engine, err := New()
	assert.NoError(t, err)
	ctx := context.Background()

	evaluation, err := engine.Evaluate(ctx, &model.ApprovalContext{
		SessionID: "s1",
		UserID:    "u1",
		Mode:      model.ModeFormal,
		ToolCalls: []model.ToolCall{{Name: "web_search"}},
	})
	assert.NoError(t, err)
	assert.Equal(t, policy.VerdictRequireApproval, evaluation.Verdict)

	decision, err := engine.Resolve(ctx, evaluation.Request.ID, approval.DecisionApprove, "mod-1", "looks fine")
	assert.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, decision.Status)

	// The request left the pending view, entered history, and the approver
	// notification followed the transition.
	pending, err := engine.Approvals().ListPending(ctx)
	assert.NoError(t, err)
	assert.Empty(t, pending)

	history, err := engine.Approvals().History(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(history))

	n := engine.Dispatcher().Lookup(evaluation.Request.ID)
	assert.NotNil(t, n)
	assert.Equal(t, notification.TypeApprovalGranted, n.Type)
}

func TestResolveAfterExpiry(t *testing.T) {
	start := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	advance := stubClock(t, start)

	engine, err := New(WithConfig(&Config{
		Approval: ApprovalConfig{TTL: 10 * time.Minute, SweepInterval: time.Minute},
	}))
	assert.NoError(t, err)
	ctx := context.Background()

	evaluation, err := engine.Evaluate(ctx, &model.ApprovalContext{
		SessionID: "s1",
		UserID:    "u1",
		Mode:      model.ModeFormal,
		ToolCalls: []model.ToolCall{{Name: "web_search"}},
	})
	assert.NoError(t, err)
	id := evaluation.Request.ID

	advance(start.Add(11 * time.Minute))
	swept, err := engine.Approvals().Sweep(ctx, clock.Now())
	assert.NoError(t, err)
	assert.Equal(t, 1, swept)

	// A decision on the swept request reports expiry, and the notification
	// reflects the expired state.
	_, err = engine.Resolve(ctx, id, approval.DecisionApprove, "mod-1", "")
	assert.ErrorIs(t, err, approval.ErrExpired)
	assert.Equal(t, notification.TypeApprovalExpired, engine.Dispatcher().Lookup(id).Type)
}

func TestEvaluateCustomRejectRule(t *testing.T) {
	reject := &policy.Rule{
		ID:     "block-everything",
		Name:   "Block everything",
		Action: policy.ActionReject,
		Modes:  []model.Mode{model.ModeAll},
		Condition: func(*model.ApprovalContext) bool {
			return true
		},
		Priority: 100,
	}
	engine, err := New(WithRules(reject))
	assert.NoError(t, err)

	evaluation, err := engine.Evaluate(context.Background(), &model.ApprovalContext{
		SessionID: "s1",
		Mode:      model.ModeCasual,
	})
	assert.NoError(t, err)
	assert.Equal(t, policy.VerdictReject, evaluation.Verdict)
	assert.Nil(t, evaluation.Request)

	// A reject never opens a pending request.
	pending, err := engine.Approvals().ListPending(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRuntimeRuleAdministration(t *testing.T) {
	engine, err := New()
	assert.NoError(t, err)
	ctx := context.Background()

	c := &model.ApprovalContext{SessionID: "s1", Mode: model.ModeCasual, MessageContent: "halo"}
	evaluation, err := engine.Evaluate(ctx, c.Clone())
	assert.NoError(t, err)
	assert.Equal(t, policy.VerdictProceed, evaluation.Verdict)

	err = engine.Registry().Add(&policy.Rule{
		ID:        "greeting-review",
		Action:    policy.ActionRequireApproval,
		Modes:     []model.Mode{model.ModeCasual},
		Condition: func(c *model.ApprovalContext) bool { return c.MessageContent == "halo" },
		Priority:  10,
	})
	assert.NoError(t, err)

	evaluation, err = engine.Evaluate(ctx, c.Clone())
	assert.NoError(t, err)
	assert.Equal(t, policy.VerdictRequireApproval, evaluation.Verdict)

	engine.Registry().Remove("greeting-review")
	evaluation, err = engine.Evaluate(ctx, c.Clone())
	assert.NoError(t, err)
	assert.Equal(t, policy.VerdictProceed, evaluation.Verdict)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	zero := &Config{}
	zero.Init()
	assert.NoError(t, zero.Validate())

	negativeTTL := DefaultConfig()
	negativeTTL.Approval.TTL = -time.Minute
	assert.Error(t, negativeTTL.Validate())

	negativeSweep := DefaultConfig()
	negativeSweep.Approval.SweepInterval = -time.Second
	assert.Error(t, negativeSweep.Validate())

	negativeWait := DefaultConfig()
	negativeWait.Notification.MaxEstimatedWait = -time.Second
	assert.Error(t, negativeWait.Validate())
}

func TestNewWithZeroConfig(t *testing.T) {
	engine, err := New(WithConfig(&Config{}))
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Minute, engine.Config().Approval.TTL)
	assert.Equal(t, 5*time.Minute, engine.Config().Approval.SweepInterval)
}
