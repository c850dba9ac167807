package risk

import (
	"strings"

	"github.com/scriptoria/gatekeeper/model"
)

// Config carries the term sets and thresholds of the assessor.  The zero
// value is not useful - use DefaultConfig and adjust.
type Config struct {
	// SensitiveTerms is privacy/credential-like vocabulary; a match raises
	// content risk to high and sets the privacy sub-score.
	SensitiveTerms []string `json:"sensitiveTerms,omitempty" yaml:"sensitiveTerms,omitempty"`
	// HighRiskTerms is integrity-violation vocabulary; a match raises content
	// risk to critical and spikes the academic-integrity sub-score.
	HighRiskTerms []string `json:"highRiskTerms,omitempty" yaml:"highRiskTerms,omitempty"`
	// RiskyTools names tool invocations considered operationally risky.
	RiskyTools []string `json:"riskyTools,omitempty" yaml:"riskyTools,omitempty"`
	// LongMessageChars is the message length above which content risk is at
	// least medium.
	LongMessageChars int `json:"longMessageChars,omitempty" yaml:"longMessageChars,omitempty"`
}

// DefaultConfig returns the built-in vocabulary and thresholds.
func DefaultConfig() Config {
	return Config{
		SensitiveTerms: []string{
			"password", "passphrase", "credential", "api key", "apikey",
			"secret key", "private key", "access token", "ssn",
			"social security", "credit card", "cvv", "bank account",
		},
		HighRiskTerms: []string{
			"bypass", "cheat", "plagiar", "ghostwrit", "ghost writ",
			"fabricate data", "fake citation", "fake reference", "joki",
			"contract cheating", "essay mill",
		},
		RiskyTools: []string{
			"file_read", "file_write", "file_delete", "fs_list",
			"system_exec", "shell", "exec",
		},
		LongMessageChars: 4000,
	}
}

// Sub-score constants.  Kept as named values so the mode adjustments below
// read as the policy they encode.
const (
	integrityOnHighRiskTerm = 0.9
	privacyOnSensitiveTerm  = 0.8
	operationalOnRiskyTool  = 0.7
	operationalPerExtraTool = 0.1
	integrityFormalFloor    = 0.3
	integrityLengthScale    = 0.2
)

// Assessor scores contexts.  It holds only immutable configuration, so a
// single instance is safe for concurrent use.
type Assessor struct {
	config Config
}

// New creates an assessor with the supplied configuration; zero-value fields
// fall back to DefaultConfig.
func New(config Config) *Assessor {
	defaults := DefaultConfig()
	if len(config.SensitiveTerms) == 0 {
		config.SensitiveTerms = defaults.SensitiveTerms
	}
	if len(config.HighRiskTerms) == 0 {
		config.HighRiskTerms = defaults.HighRiskTerms
	}
	if len(config.RiskyTools) == 0 {
		config.RiskyTools = defaults.RiskyTools
	}
	if config.LongMessageChars <= 0 {
		config.LongMessageChars = defaults.LongMessageChars
	}
	return &Assessor{config: config}
}

// Assess maps a context to its risk profile.
//
// Content risk follows an ordered precedence: any high-risk-term match yields
// critical; otherwise any sensitive-term match yields high; otherwise a long
// message or risky tool usage yields medium; otherwise low.  The three
// continuous sub-scores are set independently and then adjusted by session
// mode: casual mode halves academic-integrity risk, formal mode with an
// active workflow raises its floor.
func (a *Assessor) Assess(c *model.ApprovalContext) model.RiskAssessment {
	content := strings.ToLower(c.MessageContent)
	highRisk := containsAny(content, a.config.HighRiskTerms)
	sensitive := containsAny(content, a.config.SensitiveTerms)
	riskyTools := a.riskyToolCount(c)
	long := len(c.MessageContent) > a.config.LongMessageChars

	ret := model.RiskAssessment{ContentRisk: model.RiskLow}
	switch {
	case highRisk:
		ret.ContentRisk = model.RiskCritical
	case sensitive:
		ret.ContentRisk = model.RiskHigh
	case long || riskyTools > 0:
		ret.ContentRisk = model.RiskMedium
	}

	if highRisk {
		ret.AcademicIntegrity = integrityOnHighRiskTerm
	} else if long {
		ret.AcademicIntegrity = integrityLengthScale
	}
	if sensitive {
		ret.Privacy = privacyOnSensitiveTerm
	}
	if riskyTools > 0 {
		ret.Operational = operationalOnRiskyTool + float64(riskyTools-1)*operationalPerExtraTool
		if ret.Operational > 1 {
			ret.Operational = 1
		}
	}

	switch c.Mode {
	case model.ModeCasual:
		ret.AcademicIntegrity /= 2
	case model.ModeFormal:
		if c.WorkflowPhase > 0 && ret.AcademicIntegrity < integrityFormalFloor {
			ret.AcademicIntegrity = integrityFormalFloor
		}
	}
	return ret
}

func (a *Assessor) riskyToolCount(c *model.ApprovalContext) int {
	count := 0
	for _, call := range c.ToolCalls {
		name := strings.ToLower(call.Name)
		for _, risky := range a.config.RiskyTools {
			if name == risky {
				count++
				break
			}
		}
	}
	return count
}

func containsAny(content string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(content, term) {
			return true
		}
	}
	return false
}
