package policy

import (
	"context"
	"fmt"
	"strings"

	"github.com/scriptoria/gatekeeper/model"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Config is the declarative, serialisable form of a rule set.  It carries
// the subset of a rule that survives persistence - conditions are rebuilt
// from the flat Match block when the config is turned back into runtime
// rules.
type Config struct {
	Rules []RuleConfig `json:"rules" yaml:"rules"`
}

// RuleConfig is a single serialisable rule.
type RuleConfig struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Action      string   `json:"action" yaml:"action"`
	Modes       []string `json:"modes,omitempty" yaml:"modes,omitempty"`
	Priority    int      `json:"priority" yaml:"priority"`
	Match       Match    `json:"match,omitempty" yaml:"match,omitempty"`
}

// Match is the flat declarative condition of a configured rule.  Every
// specified criterion must hold; unspecified criteria are ignored.  An empty
// match block matches every context.
type Match struct {
	Tools              []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	ToolPrefixes       []string `json:"toolPrefixes,omitempty" yaml:"toolPrefixes,omitempty"`
	MessageContains    []string `json:"messageContains,omitempty" yaml:"messageContains,omitempty"`
	MinWorkflowPhase   int      `json:"minWorkflowPhase,omitempty" yaml:"minWorkflowPhase,omitempty"`
	MinMessageLength   int      `json:"minMessageLength,omitempty" yaml:"minMessageLength,omitempty"`
	ContentRiskAtLeast string   `json:"contentRiskAtLeast,omitempty" yaml:"contentRiskAtLeast,omitempty"`
	FirstMessage       *bool    `json:"firstMessage,omitempty" yaml:"firstMessage,omitempty"`
}

// Compile converts the config into runtime rules in declaration order.
func (c *Config) Compile() ([]*Rule, error) {
	ret := make([]*Rule, 0, len(c.Rules))
	for i := range c.Rules {
		rule, err := c.Rules[i].Rule()
		if err != nil {
			return nil, err
		}
		ret = append(ret, rule)
	}
	return ret, nil
}

// Rule converts a single config entry into a runtime rule.
func (r *RuleConfig) Rule() (*Rule, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("policy: rule config missing id")
	}
	switch r.Action {
	case ActionProceed, ActionAutoApprove, ActionRequireApproval, ActionReject:
	default:
		return nil, fmt.Errorf("policy: rule %s has unknown action %q", r.ID, r.Action)
	}
	modes := make([]model.Mode, 0, len(r.Modes))
	for _, m := range r.Modes {
		modes = append(modes, model.Mode(m))
	}
	if len(modes) == 0 {
		modes = []model.Mode{model.ModeAll}
	}
	return &Rule{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Condition:   r.Match.condition(),
		Action:      r.Action,
		Modes:       modes,
		Priority:    r.Priority,
	}, nil
}

// condition compiles the flat match block into a Condition.
func (m *Match) condition() Condition {
	var clauses []Condition
	if len(m.Tools) > 0 {
		clauses = append(clauses, anyTool(m.Tools...))
	}
	if len(m.ToolPrefixes) > 0 {
		clauses = append(clauses, anyToolPrefix(m.ToolPrefixes...))
	}
	if len(m.MessageContains) > 0 {
		terms := m.MessageContains
		clauses = append(clauses, func(c *model.ApprovalContext) bool {
			content := strings.ToLower(c.MessageContent)
			for _, term := range terms {
				if strings.Contains(content, strings.ToLower(term)) {
					return true
				}
			}
			return false
		})
	}
	if m.MinWorkflowPhase > 0 {
		min := m.MinWorkflowPhase
		clauses = append(clauses, func(c *model.ApprovalContext) bool {
			return c.WorkflowPhase >= min
		})
	}
	if m.MinMessageLength > 0 {
		min := m.MinMessageLength
		clauses = append(clauses, func(c *model.ApprovalContext) bool {
			return len(c.MessageContent) >= min
		})
	}
	if m.ContentRiskAtLeast != "" {
		clauses = append(clauses, contentRiskAtLeast(model.RiskLevel(m.ContentRiskAtLeast)))
	}
	if m.FirstMessage != nil {
		want := *m.FirstMessage
		clauses = append(clauses, func(c *model.ApprovalContext) bool {
			return c.FirstMessage == want
		})
	}
	return func(c *model.ApprovalContext) bool {
		for _, clause := range clauses {
			if !clause(c) {
				return false
			}
		}
		return true
	}
}

// ToConfig converts runtime rules back to their persistable subset.  Only
// rules created from a RuleConfig round-trip their match block; hand-written
// conditions are not serialisable and yield an empty match.
func ToConfig(rules []*Rule) *Config {
	ret := &Config{}
	for _, rule := range rules {
		modes := make([]string, 0, len(rule.Modes))
		for _, m := range rule.Modes {
			modes = append(modes, string(m))
		}
		ret.Rules = append(ret.Rules, RuleConfig{
			ID:          rule.ID,
			Name:        rule.Name,
			Description: rule.Description,
			Action:      rule.Action,
			Modes:       modes,
			Priority:    rule.Priority,
		})
	}
	return ret
}

// DecodeYAML decodes a declarative rule set from YAML.
func DecodeYAML(encoded []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(encoded, config); err != nil {
		return nil, fmt.Errorf("policy: failed to decode rule config: %w", err)
	}
	return config, nil
}

// Load reads a declarative rule set from the supplied URL (file, mem, s3, ...
// - any scheme the afs service understands).
func Load(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("policy: failed to load rule config from %s: %w", URL, err)
	}
	return DecodeYAML(data)
}
