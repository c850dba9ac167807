package policy

import (
	"context"
	"fmt"
	"sort"

	"github.com/scriptoria/gatekeeper/model"
	"github.com/scriptoria/gatekeeper/tracing"
)

// Assessor computes a risk profile for a context.  It is satisfied by
// risk.Assessor; the indirection keeps this package free of scoring detail.
type Assessor interface {
	Assess(c *model.ApprovalContext) model.RiskAssessment
}

// Gate creates pending approval records for require_approval verdicts.  It is
// satisfied by the approval service; only the generated id is needed here.
type Gate interface {
	Open(ctx context.Context, c *model.ApprovalContext, triggered []*model.TriggeredRule) (string, error)
}

// Outcome is the result of a single evaluation.  TriggeredRules lists every
// matched rule in descending priority order for observability, even though
// only the first entry drives the verdict.
type Outcome struct {
	Verdict        string                 `json:"verdict"`
	TriggeredRules []*model.TriggeredRule `json:"triggeredRules,omitempty"`
	ApprovalID     string                 `json:"approvalId,omitempty"`
}

// Evaluator resolves a context against the registry.  Evaluation is
// synchronous and non-blocking: it performs no I/O beyond the in-memory
// insert on the require_approval path.
type Evaluator struct {
	registry *Registry
	assessor Assessor
	gate     Gate
}

// NewEvaluator creates an evaluator.  gate may be nil when the caller only
// wants verdicts and manages approval records itself.
func NewEvaluator(registry *Registry, assessor Assessor, gate Gate) *Evaluator {
	return &Evaluator{registry: registry, assessor: assessor, gate: gate}
}

// Evaluate renders a verdict for the supplied context.
//
// When no rule matches the verdict is VerdictProceed - an explicit fail-open
// default favouring availability, not an omission.  A matched reject rule
// short-circuits: lower-priority matches, even proceeding ones, are
// irrelevant to the verdict and only reported for audit.
func (e *Evaluator) Evaluate(ctx context.Context, c *model.ApprovalContext) (*Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "policy.evaluate", "INTERNAL")
	outcome, err := e.evaluate(ctx, c)
	if outcome != nil {
		span.WithAttributes(map[string]string{"verdict": outcome.Verdict})
	}
	tracing.EndSpan(span, err)
	return outcome, err
}

func (e *Evaluator) evaluate(ctx context.Context, c *model.ApprovalContext) (*Outcome, error) {
	if c == nil {
		return nil, fmt.Errorf("policy: nil context")
	}
	if c.Risk == nil && e.assessor != nil {
		assessment := e.assessor.Assess(c)
		c.Risk = &assessment
	}

	matched := e.matchedRules(c)
	outcome := &Outcome{Verdict: VerdictProceed}
	for _, m := range matched {
		outcome.TriggeredRules = append(outcome.TriggeredRules, m.rule.Triggered())
	}
	if len(matched) == 0 {
		return outcome, nil
	}

	winner := matched[0].rule
	switch winner.Action {
	case ActionReject:
		outcome.Verdict = VerdictReject
	case ActionProceed, ActionAutoApprove:
		outcome.Verdict = VerdictProceed
	case ActionRequireApproval:
		outcome.Verdict = VerdictRequireApproval
		if e.gate != nil {
			id, err := e.gate.Open(ctx, c, outcome.TriggeredRules)
			if err != nil {
				return nil, fmt.Errorf("policy: failed to open approval gate for rule %s: %w", winner.ID, err)
			}
			outcome.ApprovalID = id
		}
	default:
		// A registry invariant violation, not an expected domain condition -
		// surface it rather than silently failing open.
		return nil, fmt.Errorf("policy: rule %s has unknown action %q", winner.ID, winner.Action)
	}
	return outcome, nil
}

// matchedRules filters applicable rules by condition and orders them by
// priority descending, ties broken by registration order (first registered
// wins).
func (e *Evaluator) matchedRules(c *model.ApprovalContext) []entry {
	applicable := e.registry.applicable(c.Mode)
	matched := applicable[:0]
	for _, en := range applicable {
		if en.rule.Matches(c) {
			matched = append(matched, en)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].rule.Priority != matched[j].rule.Priority {
			return matched[i].rule.Priority > matched[j].rule.Priority
		}
		return matched[i].seq < matched[j].seq
	})
	return matched
}
