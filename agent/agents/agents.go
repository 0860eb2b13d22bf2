package agents

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
	llmx "github.com/b3cub3d/mcp-playground/agent/llm"
	promptx "github.com/b3cub3d/mcp-playground/agent/prompt"
	toolx "github.com/b3cub3d/mcp-playground/agent/tool"
)

// AgentConfig is an immutable bundle of instructions, model, allowed tools
// and hand-off rules. All fields are fixed at construction; the runner
// swaps whole configs, never mutates one.
type AgentConfig struct {
	name         string
	agentType    contractx.AgentType
	instructions string
	toolChoice   string
	executor     toolx.Executor
	handoffs     []HandoffRule
	model        einomodel.ToolCallingChatModel
}

func (a *AgentConfig) Name() string                   { return a.name }
func (a *AgentConfig) Type() contractx.AgentType      { return a.agentType }
func (a *AgentConfig) Instructions() string           { return a.instructions }
func (a *AgentConfig) ToolChoice() string             { return a.toolChoice }
func (a *AgentConfig) Executor() toolx.Executor       { return a.executor }
func (a *AgentConfig) Model() einomodel.BaseChatModel { return a.model }

// HandoffFor matches a requested tool name against this agent's hand-off
// rules.
func (a *AgentConfig) HandoffFor(toolName string) (HandoffRule, bool) {
	for _, rule := range a.handoffs {
		if rule.ToolName == toolName {
			return rule, true
		}
	}
	return HandoffRule{}, false
}

func newAgentConfig(
	name string,
	agentType contractx.AgentType,
	instructions string,
	chatModel einomodel.ToolCallingChatModel,
	registry *toolx.Registry,
	toolNames []string,
	handoffs []HandoffRule,
) (*AgentConfig, error) {
	infos := registry.Infos(toolNames...)
	infos = append(infos, transferToolInfos(handoffs)...)

	bound, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, agentType, err)
	}

	return &AgentConfig{
		name:         name,
		agentType:    agentType,
		instructions: instructions,
		toolChoice:   "auto",
		executor:     registry.Executor(),
		handoffs:     handoffs,
		model:        bound,
	}, nil
}

// Registry holds the fixed set of agent configurations. The utility agent
// is the root: every run starts there.
type Registry struct {
	utility *AgentConfig
	finance *AgentConfig
	spanish *AgentConfig
}

func (r *Registry) Root() *AgentConfig { return r.utility }

func (r *Registry) ByType(agentType contractx.AgentType) (*AgentConfig, bool) {
	switch agentType {
	case contractx.AgentTypeUtility:
		return r.utility, true
	case contractx.AgentTypeFinance:
		return r.finance, true
	case contractx.AgentTypeSpanish:
		return r.spanish, true
	default:
		return nil, false
	}
}

// NewRegistry builds the three agent configurations against live chat
// models resolved from cfg.
func NewRegistry(ctx context.Context, cfg llmx.Config, tools *toolx.Registry) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	build := func(agentType contractx.AgentType) (einomodel.ToolCallingChatModel, error) {
		modelCfg := cfg.OpenAIFor(agentType)
		m, err := modelCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, agentType, err)
		}
		return m, nil
	}

	utilityModel, err := build(contractx.AgentTypeUtility)
	if err != nil {
		return nil, err
	}
	financeModel, err := build(contractx.AgentTypeFinance)
	if err != nil {
		return nil, err
	}
	spanishModel, err := build(contractx.AgentTypeSpanish)
	if err != nil {
		return nil, err
	}

	return NewRegistryWithModels(utilityModel, financeModel, spanishModel, tools)
}

// NewRegistryWithModels wires the agent configurations around caller-provided
// chat models. Split out from NewRegistry so tests can substitute fakes.
func NewRegistryWithModels(
	utilityModel einomodel.ToolCallingChatModel,
	financeModel einomodel.ToolCallingChatModel,
	spanishModel einomodel.ToolCallingChatModel,
	tools *toolx.Registry,
) (*Registry, error) {
	prompts := promptx.LoadPromptSet()

	allTools := []string{
		toolx.ToolAddNumbers,
		toolx.ToolGetWeather,
		toolx.ToolGetStockPrice,
		toolx.ToolSearchWeb,
		toolx.ToolCalculateMortgage,
		toolx.ToolGetCurrentTime,
		toolx.ToolConvertTime,
	}
	financeTools := []string{
		toolx.ToolGetStockPrice,
		toolx.ToolCalculateMortgage,
	}

	utility, err := newAgentConfig(
		"UtilityAssistant",
		contractx.AgentTypeUtility,
		prompts.Utility,
		utilityModel,
		tools,
		allTools,
		[]HandoffRule{
			{ToolName: TransferToFinance, Target: contractx.AgentTypeFinance},
			{ToolName: TransferToSpanish, Target: contractx.AgentTypeSpanish, Filter: RemoveToolMessages},
		},
	)
	if err != nil {
		return nil, err
	}

	finance, err := newAgentConfig(
		"FinancialSpecialist",
		contractx.AgentTypeFinance,
		prompts.Finance,
		financeModel,
		tools,
		financeTools,
		nil,
	)
	if err != nil {
		return nil, err
	}

	spanish, err := newAgentConfig(
		"SpanishAssistant",
		contractx.AgentTypeSpanish,
		prompts.Spanish,
		spanishModel,
		tools,
		allTools,
		nil,
	)
	if err != nil {
		return nil, err
	}

	return &Registry{
		utility: utility,
		finance: finance,
		spanish: spanish,
	}, nil
}
