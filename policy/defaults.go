package policy

import (
	"strings"

	"github.com/scriptoria/gatekeeper/model"
	"github.com/viant/toolbox"
)

// Default rule ids.  Exposed so that hosts can Remove or replace individual
// built-ins without re-assembling the whole set.
const (
	RuleFormalExternalResearch = "formal-external-research"
	RuleFormalCitationEdit     = "formal-citation-edit"
	RuleFormalPhaseSkip        = "formal-phase-skip"
	RuleCasualSensitiveContent = "casual-sensitive-content"
	RuleUniversalFileSystem    = "universal-file-system"
	RuleUniversalLargeContent  = "universal-large-content"
)

// Tunables of the default rule set.
const (
	// lateWorkflowPhase marks the revision/finalisation stages where citation
	// edits need a human eye.
	lateWorkflowPhase = 4

	// largeContentChars triggers the oversized-generation rule on raw message
	// size; largeContentWords triggers it on an explicit word-count request.
	largeContentChars = 8000
	largeContentWords = 5000
)

var externalResearchTools = []string{"web_search", "academic_search", "browse", "fetch_url"}

var citationTools = []string{"cite", "citation_edit", "bibliography", "reference_manager"}

var fileSystemToolPrefixes = []string{"file_", "fs_", "system_", "shell", "exec"}

// DefaultRules returns the built-in rule set.  Formal/academic sessions carry
// the stricter rules, casual sessions a basic sensitive-content check, and a
// small universal set applies regardless of mode.  Registration order
// matters: it is the documented tie-break between equal priorities.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			ID:          RuleUniversalFileSystem,
			Name:        "File system operations",
			Description: "Tool calls that reach the file system or a shell always need a human decision.",
			Condition:   anyToolPrefix(fileSystemToolPrefixes...),
			Action:      ActionRequireApproval,
			Modes:       []model.Mode{model.ModeAll},
			Priority:    80,
		},
		{
			ID:          RuleFormalExternalResearch,
			Name:        "External research",
			Description: "Web or academic searches in a formal session require approval.",
			Condition:   anyTool(externalResearchTools...),
			Action:      ActionRequireApproval,
			Modes:       []model.Mode{model.ModeFormal},
			Priority:    50,
		},
		{
			ID:          RuleFormalPhaseSkip,
			Name:        "Workflow phase skip",
			Description: "Jumping ahead of the academic workflow requires approval.",
			Condition:   phaseSkip(),
			Action:      ActionRequireApproval,
			Modes:       []model.Mode{model.ModeFormal},
			Priority:    45,
		},
		{
			ID:          RuleFormalCitationEdit,
			Name:        "Late citation edit",
			Description: "Citation edits in late workflow phases require approval.",
			Condition:   lateCitationEdit(),
			Action:      ActionRequireApproval,
			Modes:       []model.Mode{model.ModeFormal},
			Priority:    40,
		},
		{
			ID:          RuleCasualSensitiveContent,
			Name:        "Sensitive content",
			Description: "Basic sensitive-content check for casual sessions.",
			Condition:   contentRiskAtLeast(model.RiskHigh),
			Action:      ActionRequireApproval,
			Modes:       []model.Mode{model.ModeCasual},
			Priority:    30,
		},
		{
			ID:          RuleUniversalLargeContent,
			Name:        "Oversized content request",
			Description: "Unusually large generated-content requests require approval.",
			Condition:   largeContentRequest(),
			Action:      ActionRequireApproval,
			Modes:       []model.Mode{model.ModeAll},
			Priority:    20,
		},
	}
}

// ---------------------------------------------------------------------------
// Condition builders - shared by the default set and the declarative config.
// ---------------------------------------------------------------------------

// anyTool matches when the context requests any of the named tools.
func anyTool(names ...string) Condition {
	return func(c *model.ApprovalContext) bool {
		for _, name := range names {
			if c.HasTool(name) {
				return true
			}
		}
		return false
	}
}

// anyToolPrefix matches tool names by case-insensitive prefix.
func anyToolPrefix(prefixes ...string) Condition {
	return func(c *model.ApprovalContext) bool {
		for _, call := range c.ToolCalls {
			name := strings.ToLower(call.Name)
			for _, prefix := range prefixes {
				if strings.HasPrefix(name, prefix) {
					return true
				}
			}
		}
		return false
	}
}

// contentRiskAtLeast matches when the computed content risk reaches min.
func contentRiskAtLeast(min model.RiskLevel) Condition {
	return func(c *model.ApprovalContext) bool {
		return c.Risk != nil && c.Risk.ContentRisk.AtLeast(min)
	}
}

// phaseSkip matches when the action asks for a workflow phase more than one
// step ahead of the current one.  The requested phase travels in the opaque
// Meta payload; the engine does not interpret the workflow itself.
func phaseSkip() Condition {
	return func(c *model.ApprovalContext) bool {
		if c.WorkflowPhase <= 0 || c.Meta == nil {
			return false
		}
		raw, ok := c.Meta["requestedPhase"]
		if !ok {
			return false
		}
		requested := toolbox.AsInt(raw)
		return requested > c.WorkflowPhase+1
	}
}

// lateCitationEdit matches citation tooling at or past the late workflow
// phases.
func lateCitationEdit() Condition {
	citations := anyTool(citationTools...)
	return func(c *model.ApprovalContext) bool {
		return c.WorkflowPhase >= lateWorkflowPhase && citations(c)
	}
}

// largeContentRequest matches oversized prompts or explicit oversized
// word-count requests (Meta["requestedWords"]).
func largeContentRequest() Condition {
	return func(c *model.ApprovalContext) bool {
		if len(c.MessageContent) > largeContentChars {
			return true
		}
		if c.Meta == nil {
			return false
		}
		if raw, ok := c.Meta["requestedWords"]; ok {
			return toolbox.AsInt(raw) > largeContentWords
		}
		return false
	}
}
