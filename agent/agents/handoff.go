package agents

import (
	"github.com/cloudwego/eino/schema"

	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
)

// Hand-offs are surfaced to the model as ordinary tools; requesting one
// transfers the rest of the conversation to the target agent.
const (
	TransferToFinance = "transfer_to_financial_specialist"
	TransferToSpanish = "transfer_to_spanish_assistant"
)

// TranscriptFilter rewrites the transcript handed to the target agent.
// A nil filter passes the transcript through unchanged.
type TranscriptFilter func(transcript []*schema.Message) []*schema.Message

// HandoffRule routes a transfer tool call to a target agent configuration.
type HandoffRule struct {
	ToolName string
	Target   contractx.AgentType
	Filter   TranscriptFilter
}

// RemoveToolMessages strips tool-call and tool-result messages, leaving only
// the system/user/assistant conversation. Used when the target agent's
// instructions are unrelated to tool mechanics.
func RemoveToolMessages(transcript []*schema.Message) []*schema.Message {
	filtered := make([]*schema.Message, 0, len(transcript))
	for _, msg := range transcript {
		if msg == nil {
			continue
		}
		if msg.Role == schema.Tool {
			continue
		}
		if msg.Role == schema.Assistant && len(msg.ToolCalls) > 0 {
			continue
		}
		filtered = append(filtered, msg)
	}
	return filtered
}

func transferToolInfos(rules []HandoffRule) []*schema.ToolInfo {
	if len(rules) == 0 {
		return nil
	}
	infos := make([]*schema.ToolInfo, 0, len(rules))
	for _, rule := range rules {
		infos = append(infos, &schema.ToolInfo{
			Name:        rule.ToolName,
			Desc:        transferToolDesc(rule.Target),
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{}),
		})
	}
	return infos
}

func transferToolDesc(target contractx.AgentType) string {
	switch target {
	case contractx.AgentTypeFinance:
		return "Hand the conversation to a financial specialist for complex financial queries."
	case contractx.AgentTypeSpanish:
		return "Hand the conversation to a Spanish-speaking assistant for Spanish language queries."
	default:
		return "Hand the conversation to another assistant."
	}
}
