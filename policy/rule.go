package policy

import (
	"github.com/scriptoria/gatekeeper/model"
)

// Rule actions recognised by the evaluator.
const (
	ActionProceed         = "proceed"
	ActionAutoApprove     = "auto_approve" // evaluates to a proceed verdict
	ActionRequireApproval = "require_approval"
	ActionReject          = "reject"
)

// Verdicts produced by evaluation.
const (
	VerdictProceed         = "proceed"
	VerdictRequireApproval = "require_approval"
	VerdictReject          = "reject"
)

// Condition decides whether a rule applies to a context.  Conditions must be
// pure - no I/O, no clock, no mutation of the context.
type Condition func(c *model.ApprovalContext) bool

// Rule is a single declarative policy entry.
//
//   - Modes restricts the rule to formal and/or casual sessions; ModeAll makes
//     it universal.
//   - Priority expresses precedence between overlapping rules: the single
//     highest-priority match governs the verdict, there is no AND/OR
//     combination of triggered rules.
type Rule struct {
	ID          string
	Name        string
	Description string
	Condition   Condition
	Action      string
	Modes       []model.Mode
	Priority    int
}

// AppliesTo reports whether the rule participates in evaluation for mode.
func (r *Rule) AppliesTo(mode model.Mode) bool {
	for _, m := range r.Modes {
		if m == model.ModeAll || m == mode {
			return true
		}
	}
	return false
}

// Matches runs the rule condition, treating a nil condition as "never".
func (r *Rule) Matches(c *model.ApprovalContext) bool {
	if r.Condition == nil {
		return false
	}
	return r.Condition(c)
}

// Triggered returns the audit record for this rule.
func (r *Rule) Triggered() *model.TriggeredRule {
	return &model.TriggeredRule{
		ID:       r.ID,
		Name:     r.Name,
		Action:   r.Action,
		Priority: r.Priority,
	}
}
