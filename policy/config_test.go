package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scriptoria/gatekeeper/model"
)

const ruleConfigYAML = `
rules:
  - id: block-exam-content
    name: Exam content
    action: reject
    modes: [formal, casual]
    priority: 90
    match:
      messageContains: ["exam answer", "kunci jawaban"]
  - id: review-long-formal
    action: require_approval
    modes: [formal]
    priority: 30
    match:
      minWorkflowPhase: 3
      minMessageLength: 100
  - id: gate-risky
    action: require_approval
    priority: 60
    match:
      contentRiskAtLeast: high
`

func TestDecodeYAML(t *testing.T) {
	config, err := DecodeYAML([]byte(ruleConfigYAML))
	assert.NoError(t, err)
	assert.Equal(t, 3, len(config.Rules))

	rules, err := config.Compile()
	assert.NoError(t, err)
	assert.Equal(t, 3, len(rules))
}

func TestConfigConditions(t *testing.T) {
	config, err := DecodeYAML([]byte(ruleConfigYAML))
	assert.NoError(t, err)
	rules, err := config.Compile()
	assert.NoError(t, err)

	byID := map[string]*Rule{}
	for _, rule := range rules {
		byID[rule.ID] = rule
	}

	assert.True(t, byID["block-exam-content"].Matches(&model.ApprovalContext{
		MessageContent: "tolong carikan KUNCI JAWABAN ujian besok",
	}))
	assert.False(t, byID["block-exam-content"].Matches(&model.ApprovalContext{
		MessageContent: "tolong rangkum bab dua",
	}))

	long := &model.ApprovalContext{
		Mode:           model.ModeFormal,
		WorkflowPhase:  4,
		MessageContent: string(make([]byte, 150)),
	}
	assert.True(t, byID["review-long-formal"].Matches(long))
	short := &model.ApprovalContext{Mode: model.ModeFormal, WorkflowPhase: 4, MessageContent: "ok"}
	assert.False(t, byID["review-long-formal"].Matches(short))

	assert.True(t, byID["gate-risky"].Matches(&model.ApprovalContext{
		Risk: &model.RiskAssessment{ContentRisk: model.RiskCritical},
	}))
	assert.False(t, byID["gate-risky"].Matches(&model.ApprovalContext{
		Risk: &model.RiskAssessment{ContentRisk: model.RiskMedium},
	}))

	// Modes default to all when unspecified.
	assert.True(t, byID["gate-risky"].AppliesTo(model.ModeCasual))
	assert.False(t, byID["review-long-formal"].AppliesTo(model.ModeCasual))
}

func TestConfigValidation(t *testing.T) {
	_, err := (&RuleConfig{ID: "", Action: ActionReject}).Rule()
	assert.Error(t, err)

	_, err = (&RuleConfig{ID: "r1", Action: "explode"}).Rule()
	assert.Error(t, err)
}

func TestToConfigRoundTrip(t *testing.T) {
	rules := DefaultRules()
	config := ToConfig(rules)
	assert.Equal(t, len(rules), len(config.Rules))
	for i, rule := range rules {
		assert.Equal(t, rule.ID, config.Rules[i].ID)
		assert.Equal(t, rule.Action, config.Rules[i].Action)
		assert.Equal(t, rule.Priority, config.Rules[i].Priority)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "rules.yaml")
	assert.NoError(t, os.WriteFile(location, []byte(ruleConfigYAML), 0o644))

	config, err := Load(context.Background(), location)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(config.Rules))

	_, err = Load(context.Background(), filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
