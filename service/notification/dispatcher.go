// Package notification builds the human-facing payloads surfaced to
// approvers when a request enters the gate, and keeps them in sync as
// requests resolve.
package notification

import (
	"fmt"
	"sync"
	"time"

	"github.com/scriptoria/gatekeeper/internal/clock"
	"github.com/scriptoria/gatekeeper/internal/idgen"
	"github.com/scriptoria/gatekeeper/model"
	approval "github.com/scriptoria/gatekeeper/service/approval"
)

// DefaultMaxEstimatedWait caps the advertised wait regardless of risk and
// tier multipliers.
const DefaultMaxEstimatedWait = time.Hour

// Config tunes the dispatcher.  The zero value falls back to defaults.
type Config struct {
	MaxEstimatedWait time.Duration `json:"maxEstimatedWait,omitempty" yaml:"maxEstimatedWait,omitempty"`
}

// Dispatcher builds notifications and tracks them by request id so that a
// resolution can update the original payload in place.
type Dispatcher struct {
	config Config
	mu     sync.RWMutex
	built  map[string]*Notification
}

// New creates a dispatcher.
func New(config Config) *Dispatcher {
	if config.MaxEstimatedWait <= 0 {
		config.MaxEstimatedWait = DefaultMaxEstimatedWait
	}
	return &Dispatcher{config: config, built: make(map[string]*Notification)}
}

// Build creates (and registers) the notification for a newly opened request.
func (d *Dispatcher) Build(req *approval.Request) *Notification {
	risk := riskOf(req)
	tiers := approverTiers(req, risk)

	ret := &Notification{
		ID:            idgen.New(),
		RequestID:     req.ID,
		Type:          TypeApprovalRequest,
		Title:         title(req),
		Message:       message(req),
		Priority:      priorityOf(risk.ContentRisk),
		Approvers:     tiers,
		CreatedAt:     clock.Now(),
		ExpiresAt:     req.ExpiresAt,
		Actions:       availableActions(req, risk),
		EstimatedWait: d.estimatedWait(req, risk, len(tiers)),
	}

	d.mu.Lock()
	d.built[req.ID] = ret
	d.mu.Unlock()
	return ret
}

// Refresh updates the registered notification after a request transition:
// the type follows the terminal status, and an escalated request widens its
// approver list to the raised tier.  It returns nil when no notification was
// built for the request.
func (d *Dispatcher) Refresh(req *approval.Request) *Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	ret, ok := d.built[req.ID]
	if !ok {
		return nil
	}
	switch req.Status {
	case approval.StatusApproved:
		ret.Type = TypeApprovalGranted
	case approval.StatusRejected:
		ret.Type = TypeApprovalDenied
	case approval.StatusExpired:
		ret.Type = TypeApprovalExpired
	case approval.StatusPending:
		ret.ExpiresAt = req.ExpiresAt
		if req.ApproverTier != "" && !containsTier(ret.Approvers, req.ApproverTier) {
			ret.Approvers = append(ret.Approvers, req.ApproverTier)
		}
	}
	return ret
}

// Lookup returns the notification registered for a request id.
func (d *Dispatcher) Lookup(requestID string) *Notification {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.built[requestID]
}

// priorityOf maps content risk onto notification priority.
func priorityOf(level model.RiskLevel) Priority {
	switch level {
	case model.RiskCritical:
		return PriorityUrgent
	case model.RiskHigh:
		return PriorityHigh
	case model.RiskMedium:
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// highIntegrityRisk is the academic-integrity score above which a supervisor
// joins the approver list.
const highIntegrityRisk = 0.7

// approverTiers selects approver groups additively from the risk profile;
// when nothing qualifies the default moderator tier handles the request.
func approverTiers(req *approval.Request, risk model.RiskAssessment) []model.Tier {
	var ret []model.Tier
	if risk.ContentRisk == model.RiskCritical {
		ret = append(ret, model.TierSecurity)
	}
	if risk.AcademicIntegrity >= highIntegrityRisk {
		ret = append(ret, model.TierAcademicSupervisor)
	}
	if req.Context != nil && req.Context.Mode == model.ModeFormal && req.Context.WorkflowPhase > 0 {
		ret = append(ret, model.TierAcademicAdvisor)
	}
	if len(ret) == 0 {
		ret = append(ret, model.TierModerator)
	}
	return ret
}

// availableActions always offers approve and deny; escalate only where the
// session mode permits supervisor bypass (formal), defer unless risk is
// critical.
func availableActions(req *approval.Request, risk model.RiskAssessment) []Action {
	ret := []Action{
		{ID: "approve", Label: "Approve", Action: string(approval.DecisionApprove)},
		{ID: "deny", Label: "Deny", Action: string(approval.DecisionDeny), RequiresReason: true},
	}
	if req.Context != nil && req.Context.Mode == model.ModeFormal {
		ret = append(ret, Action{ID: "escalate", Label: "Escalate", Action: string(approval.DecisionEscalate)})
	}
	if risk.ContentRisk != model.RiskCritical {
		ret = append(ret, Action{ID: "defer", Label: "Defer", Action: string(approval.DecisionDefer), RequiresReason: true})
	}
	return ret
}

// estimatedWait derives the advertised wait from a base TTL portion scaled
// by risk level, session mode and the number of distinct approver tiers,
// capped at the configured maximum.
func (d *Dispatcher) estimatedWait(req *approval.Request, risk model.RiskAssessment, tierCount int) time.Duration {
	base := req.ExpiresAt.Sub(req.CreatedAt) / 6

	factor := 1.0
	switch risk.ContentRisk {
	case model.RiskCritical:
		factor = 4
	case model.RiskHigh:
		factor = 2
	case model.RiskMedium:
		factor = 1.5
	}
	if req.Context != nil && req.Context.Mode == model.ModeFormal {
		factor *= 1.3
	}
	factor *= float64(tierCount)

	ret := time.Duration(float64(base) * factor)
	if ret > d.config.MaxEstimatedWait {
		ret = d.config.MaxEstimatedWait
	}
	return ret
}

func title(req *approval.Request) string {
	if len(req.TriggeredRules) > 0 && req.TriggeredRules[0].Name != "" {
		return fmt.Sprintf("Approval required: %s", req.TriggeredRules[0].Name)
	}
	return "Approval required"
}

func message(req *approval.Request) string {
	session := ""
	if req.Context != nil {
		session = req.Context.SessionID
	}
	if len(req.TriggeredRules) > 0 {
		return fmt.Sprintf("Session %s triggered rule %s; the action is on hold until an approver decides.",
			session, req.TriggeredRules[0].ID)
	}
	return fmt.Sprintf("Session %s requires a decision before the action can continue.", session)
}

func riskOf(req *approval.Request) model.RiskAssessment {
	if req.Context != nil && req.Context.Risk != nil {
		return *req.Context.Risk
	}
	return model.RiskAssessment{ContentRisk: model.RiskLow}
}

func containsTier(tiers []model.Tier, tier model.Tier) bool {
	for _, t := range tiers {
		if t == tier {
			return true
		}
	}
	return false
}
