package model

// Mode is the session-level style setting. It decides which policy rules are
// consulted for a given action.
type Mode string

const (
	ModeFormal Mode = "formal"
	ModeCasual Mode = "casual"
	ModeNone   Mode = "none"

	// ModeAll is only valid on rules and matches every session mode.
	ModeAll Mode = "all"
)

// ToolCall describes a single tool invocation requested alongside a message.
type ToolCall struct {
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// ApprovalContext is an immutable snapshot of a user-initiated action.  It is
// assembled by the surrounding request-handling layer; the engine only reads
// it.  Meta carries persona/workflow payload the engine routes into rule
// conditions without interpreting its shape.
type ApprovalContext struct {
	SessionID      string                 `json:"sessionId"`
	UserID         string                 `json:"userId,omitempty"`
	Mode           Mode                   `json:"mode"`
	PersonaRef     string                 `json:"personaRef,omitempty"`
	MessageContent string                 `json:"messageContent"`
	ToolCalls      []ToolCall             `json:"toolCalls,omitempty"`
	WorkflowPhase  int                    `json:"workflowPhase,omitempty"` // 0 = no active workflow
	FirstMessage   bool                   `json:"firstMessage,omitempty"`
	Risk           *RiskAssessment        `json:"riskAssessment,omitempty"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
}

// HasTool reports whether the context requests the named tool.
func (c *ApprovalContext) HasTool(name string) bool {
	for _, call := range c.ToolCalls {
		if call.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so that stored snapshots never alias caller state.
func (c *ApprovalContext) Clone() *ApprovalContext {
	if c == nil {
		return nil
	}
	ret := *c
	if c.ToolCalls != nil {
		ret.ToolCalls = make([]ToolCall, len(c.ToolCalls))
		for i, call := range c.ToolCalls {
			ret.ToolCalls[i] = ToolCall{Name: call.Name, Args: cloneMap(call.Args)}
		}
	}
	ret.Meta = cloneMap(c.Meta)
	if c.Risk != nil {
		risk := *c.Risk
		ret.Risk = &risk
	}
	return &ret
}

func cloneMap(in map[string]interface{}) map[string]interface{} {
	if in == nil {
		return nil
	}
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// TriggeredRule is the audit record of a rule that matched during evaluation,
// ordered by descending priority.  Only the first entry drives the verdict.
type TriggeredRule struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Action   string `json:"action"`
	Priority int    `json:"priority"`
}
