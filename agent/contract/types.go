package contract

// AgentType identifies one of the fixed agent configurations.
type AgentType string

const (
	AgentTypeUtility AgentType = "utility"
	AgentTypeFinance AgentType = "finance"
	AgentTypeSpanish AgentType = "spanish"
)

// ToolResult is the dispatcher's answer for a single tool call. Tool-level
// failures are carried in Output as plain text so the model can react to
// them in-band; they never surface as Go errors.
type ToolResult struct {
	CallID string `json:"call_id"`
	Tool   string `json:"tool"`
	Output string `json:"output"`
}

// RunResult is what one full orchestration run produces.
type RunResult struct {
	Reply       string `json:"reply"`
	HandoffInfo string `json:"handoff_info,omitempty"`
}
