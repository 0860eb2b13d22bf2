package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	agentsx "github.com/b3cub3d/mcp-playground/agent/agents"
	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
)

// DefaultMaxTurns bounds the model/tool cycle per incoming user message.
// Exceeding it is a distinct fatal error, not a model failure.
const DefaultMaxTurns = 25

type Option func(*Runner)

func WithMaxTurns(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxTurns = n
		}
	}
}

// Runner drives the orchestration loop: it calls the active agent's model,
// dispatches requested tool calls in order, folds results back into the
// transcript, and repeats until the model answers with plain text. A
// hand-off request swaps the active agent mid-run, at most once.
type Runner struct {
	registry *agentsx.Registry
	maxTurns int
}

func New(registry *agentsx.Registry, opts ...Option) (*Runner, error) {
	if registry == nil {
		return nil, fmt.Errorf("agent registry is required")
	}
	r := &Runner{
		registry: registry,
		maxTurns: DefaultMaxTurns,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Seed prepares a transcript for a run: the system message at index 0 is
// (re)set to the given instructions and the user's message is appended.
// Existing history is preserved.
func Seed(transcript []*schema.Message, instructions, userMessage string) []*schema.Message {
	seeded := withInstructions(transcript, instructions)
	return append(seeded, schema.UserMessage(userMessage))
}

// Run executes the loop over an already seeded transcript and returns the
// final transcript plus the assistant's reply. On any fatal error the
// returned transcript is nil and the caller must not persist anything.
func (r *Runner) Run(ctx context.Context, transcript []*schema.Message) ([]*schema.Message, contractx.RunResult, error) {
	active := r.registry.Root()
	handoffDone := false
	handoffInfo := ""

	for turn := 1; ; turn++ {
		if turn > r.maxTurns {
			return nil, contractx.RunResult{}, fmt.Errorf("%w: aborted after %d turns", contractx.ErrIterationLimit, r.maxTurns)
		}

		msg, err := active.Model().Generate(ctx, transcript)
		if err != nil {
			return nil, contractx.RunResult{}, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			return nil, contractx.RunResult{}, fmt.Errorf("%w: model returned no message", contractx.ErrModelInvoke)
		}

		if len(msg.ToolCalls) == 0 {
			reply := strings.TrimSpace(msg.Content)
			if reply == "" {
				return nil, contractx.RunResult{}, fmt.Errorf("%w: final assistant message is empty", contractx.ErrSchemaViolation)
			}
			transcript = append(transcript, schema.AssistantMessage(reply, nil))
			return transcript, contractx.RunResult{Reply: reply, HandoffInfo: handoffInfo}, nil
		}

		log.Debug().
			Str("agent", active.Name()).
			Int("turn", turn).
			Int("tool_calls", len(msg.ToolCalls)).
			Msg("model requested tool calls")

		transcript = append(transcript, msg)

		decoded, err := decodeArguments(msg.ToolCalls)
		if err != nil {
			return nil, contractx.RunResult{}, err
		}

		handoffIdx := -1
		var rule agentsx.HandoffRule
		if !handoffDone {
			for i, call := range msg.ToolCalls {
				if hr, ok := active.HandoffFor(call.Function.Name); ok {
					handoffIdx = i
					rule = hr
					break
				}
			}
		}

		outputs := dispatchAll(ctx, active, msg.ToolCalls, decoded, handoffIdx)

		var target *agentsx.AgentConfig
		if handoffIdx >= 0 {
			t, ok := r.registry.ByType(rule.Target)
			if !ok {
				return nil, contractx.RunResult{}, fmt.Errorf("%w: unknown hand-off target %q", contractx.ErrValidation, rule.Target)
			}
			target = t
			outputs[handoffIdx] = fmt.Sprintf("Transferred to %s.", target.Name())
		}

		// ToolResult messages go in request order regardless of how the
		// dispatch itself was scheduled.
		for i, call := range msg.ToolCalls {
			transcript = append(transcript, schema.ToolMessage(outputs[i], call.ID))
		}

		if target != nil {
			if rule.Filter != nil {
				transcript = rule.Filter(transcript)
			}
			transcript = withInstructions(transcript, target.Instructions())
			active = target
			handoffDone = true
			handoffInfo = "Handed off to: " + target.Name()

			log.Debug().Str("agent", active.Name()).Msg("hand-off applied")
		}
	}
}

// decodeArguments parses every call's JSON arguments up front. Malformed
// arguments are fatal for the run: the intended values cannot be guessed.
func decodeArguments(calls []schema.ToolCall) ([]map[string]any, error) {
	decoded := make([]map[string]any, len(calls))
	for i, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid arguments for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}
		decoded[i] = args
	}
	return decoded, nil
}

// dispatchAll fans the turn's tool calls out concurrently; the outputs slice
// is indexed by request order so appends stay deterministic. The call at
// skipIdx (a hand-off, if any) is left for the caller to fill in.
func dispatchAll(
	ctx context.Context,
	active *agentsx.AgentConfig,
	calls []schema.ToolCall,
	decoded []map[string]any,
	skipIdx int,
) []string {
	outputs := make([]string, len(calls))
	executor := active.Executor()

	var wg sync.WaitGroup
	for i, call := range calls {
		if i == skipIdx {
			continue
		}
		wg.Add(1)
		go func(idx int, name string, args map[string]any) {
			defer wg.Done()
			outputs[idx] = executor(ctx, name, args)
		}(i, call.Function.Name, decoded[i])
	}
	wg.Wait()

	return outputs
}

func withInstructions(transcript []*schema.Message, instructions string) []*schema.Message {
	if len(transcript) > 0 && transcript[0] != nil && transcript[0].Role == schema.System {
		out := append([]*schema.Message(nil), transcript...)
		out[0] = schema.SystemMessage(instructions)
		return out
	}
	return append([]*schema.Message{schema.SystemMessage(instructions)}, transcript...)
}
