package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scriptoria/gatekeeper/model"
)

func TestDefaultRulesRegister(t *testing.T) {
	registry, err := NewRegistry(DefaultRules()...)
	assert.NoError(t, err)
	assert.Equal(t, 6, registry.Len())
}

func TestDefaultRuleConditions(t *testing.T) {
	rules := map[string]*Rule{}
	for _, rule := range DefaultRules() {
		rules[rule.ID] = rule
	}

	type testCase struct {
		name    string
		rule    string
		context *model.ApprovalContext
		matches bool
	}

	tests := []testCase{
		{
			name: "external research on web search",
			rule: RuleFormalExternalResearch,
			context: &model.ApprovalContext{
				Mode:      model.ModeFormal,
				ToolCalls: []model.ToolCall{{Name: "web_search"}},
			},
			matches: true,
		},
		{
			name:    "external research without tools",
			rule:    RuleFormalExternalResearch,
			context: &model.ApprovalContext{Mode: model.ModeFormal, MessageContent: "tolong rapikan paragraf ini"},
			matches: false,
		},
		{
			name: "file system tool",
			rule: RuleUniversalFileSystem,
			context: &model.ApprovalContext{
				Mode:      model.ModeCasual,
				ToolCalls: []model.ToolCall{{Name: "file_write", Args: map[string]interface{}{"path": "draft.md"}}},
			},
			matches: true,
		},
		{
			name: "shell tool by prefix",
			rule: RuleUniversalFileSystem,
			context: &model.ApprovalContext{
				Mode:      model.ModeFormal,
				ToolCalls: []model.ToolCall{{Name: "shell_command"}},
			},
			matches: true,
		},
		{
			name: "phase skip two ahead",
			rule: RuleFormalPhaseSkip,
			context: &model.ApprovalContext{
				Mode:          model.ModeFormal,
				WorkflowPhase: 2,
				Meta:          map[string]interface{}{"requestedPhase": 4},
			},
			matches: true,
		},
		{
			name: "next phase is not a skip",
			rule: RuleFormalPhaseSkip,
			context: &model.ApprovalContext{
				Mode:          model.ModeFormal,
				WorkflowPhase: 2,
				Meta:          map[string]interface{}{"requestedPhase": 3},
			},
			matches: false,
		},
		{
			name: "late citation edit",
			rule: RuleFormalCitationEdit,
			context: &model.ApprovalContext{
				Mode:          model.ModeFormal,
				WorkflowPhase: 5,
				ToolCalls:     []model.ToolCall{{Name: "citation_edit"}},
			},
			matches: true,
		},
		{
			name: "early citation edit passes",
			rule: RuleFormalCitationEdit,
			context: &model.ApprovalContext{
				Mode:          model.ModeFormal,
				WorkflowPhase: 2,
				ToolCalls:     []model.ToolCall{{Name: "citation_edit"}},
			},
			matches: false,
		},
		{
			name: "sensitive content needs risk",
			rule: RuleCasualSensitiveContent,
			context: &model.ApprovalContext{
				Mode: model.ModeCasual,
				Risk: &model.RiskAssessment{ContentRisk: model.RiskHigh, Privacy: 0.8},
			},
			matches: true,
		},
		{
			name:    "low risk sensitive check passes",
			rule:    RuleCasualSensitiveContent,
			context: &model.ApprovalContext{Mode: model.ModeCasual, Risk: &model.RiskAssessment{ContentRisk: model.RiskLow}},
			matches: false,
		},
		{
			name: "oversized prompt",
			rule: RuleUniversalLargeContent,
			context: &model.ApprovalContext{
				Mode:           model.ModeCasual,
				MessageContent: strings.Repeat("a", largeContentChars+1),
			},
			matches: true,
		},
		{
			name: "oversized word-count request",
			rule: RuleUniversalLargeContent,
			context: &model.ApprovalContext{
				Mode: model.ModeFormal,
				Meta: map[string]interface{}{"requestedWords": 9000},
			},
			matches: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rule, ok := rules[tc.rule]
			assert.True(t, ok, "unknown rule %s", tc.rule)
			assert.Equal(t, tc.matches, rule.Matches(tc.context))
		})
	}
}

func TestDefaultRuleModes(t *testing.T) {
	registry, err := NewRegistry(DefaultRules()...)
	assert.NoError(t, err)

	casual := registry.ApplicableRules(model.ModeCasual)
	ids := make([]string, 0, len(casual))
	for _, rule := range casual {
		ids = append(ids, rule.ID)
	}
	// No casual web-search rule exists; only the sensitive-content check plus
	// the universal rules apply.
	assert.EqualValues(t, []string{RuleUniversalFileSystem, RuleCasualSensitiveContent, RuleUniversalLargeContent}, ids)
}
