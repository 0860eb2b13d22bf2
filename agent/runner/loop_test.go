package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	agentsx "github.com/b3cub3d/mcp-playground/agent/agents"
	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
	toolx "github.com/b3cub3d/mcp-playground/agent/tool"
)

// fakeChatModel replays a scripted sequence of responses. With repeat set it
// returns the last scripted message forever, which drives the loop without
// ever finishing.
type fakeChatModel struct {
	mu     sync.Mutex
	script []*schema.Message
	repeat bool
	err    error
	inputs [][]*schema.Message
	tools  []*schema.ToolInfo
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inputs = append(f.inputs, append([]*schema.Message(nil), input...))
	if f.err != nil {
		return nil, f.err
	}

	idx := len(f.inputs) - 1
	if idx >= len(f.script) {
		if f.repeat && len(f.script) > 0 {
			return f.script[len(f.script)-1], nil
		}
		return nil, errors.New("no scripted response left")
	}
	return f.script[idx], nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("streaming not supported")
}

func (f *fakeChatModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.tools = tools
	return f, nil
}

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

func (f *fakeChatModel) inputAt(i int) []*schema.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs[i]
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:   id,
		Type: "function",
		Function: schema.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func toolCallMessage(calls ...schema.ToolCall) *schema.Message {
	return schema.AssistantMessage("", calls)
}

func fixedNow() time.Time {
	return time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
}

func newTestRunner(t *testing.T, utility, finance, spanish *fakeChatModel, opts ...Option) *Runner {
	t.Helper()

	tools, err := toolx.NewBuiltinRegistry(toolx.Deps{Now: fixedNow})
	if err != nil {
		t.Fatalf("build tool registry: %v", err)
	}

	registry, err := agentsx.NewRegistryWithModels(utility, finance, spanish, tools)
	if err != nil {
		t.Fatalf("build agent registry: %v", err)
	}

	r, err := New(registry, opts...)
	if err != nil {
		t.Fatalf("build runner: %v", err)
	}
	return r
}

func seedFor(t *testing.T, r *Runner, text string) []*schema.Message {
	t.Helper()
	// Seed the way the chat pipeline does: root instructions + user text.
	return Seed(nil, "root instructions", text)
}

func TestSeed(t *testing.T) {
	t.Parallel()

	fresh := Seed(nil, "be helpful", "hi")
	if len(fresh) != 2 {
		t.Fatalf("unexpected seeded length: %d", len(fresh))
	}
	if fresh[0].Role != schema.System || fresh[0].Content != "be helpful" {
		t.Fatalf("unexpected system message: %+v", fresh[0])
	}
	if fresh[1].Role != schema.User || fresh[1].Content != "hi" {
		t.Fatalf("unexpected user message: %+v", fresh[1])
	}

	again := Seed(fresh, "be different", "more")
	if len(again) != 3 {
		t.Fatalf("system message duplicated: %d messages", len(again))
	}
	if again[0].Content != "be different" {
		t.Fatalf("system message not reset: %q", again[0].Content)
	}
}

func TestRunSingleToolRoundTrip(t *testing.T) {
	t.Parallel()

	utility := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(toolCall("call_1", toolx.ToolAddNumbers, `{"a": 2, "b": 3}`)),
			schema.AssistantMessage("2 + 3 equals 5.", nil),
		},
	}
	r := newTestRunner(t, utility, &fakeChatModel{}, &fakeChatModel{})

	transcript, result, err := r.Run(context.Background(), seedFor(t, r, "What is 2 + 3?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(result.Reply, "5") {
		t.Fatalf("reply must contain the sum: %q", result.Reply)
	}
	if result.HandoffInfo != "" {
		t.Fatalf("unexpected hand-off: %q", result.HandoffInfo)
	}
	if utility.callCount() != 2 {
		t.Fatalf("expected exactly one tool round trip, model called %d times", utility.callCount())
	}

	// system, user, assistant tool-call, tool result, final assistant
	if len(transcript) != 5 {
		t.Fatalf("unexpected transcript length: %d", len(transcript))
	}
	toolMsg := transcript[3]
	if toolMsg.Role != schema.Tool || toolMsg.ToolCallID != "call_1" || toolMsg.Content != "5" {
		t.Fatalf("unexpected tool result: %+v", toolMsg)
	}
}

func TestToolResultsPreserveRequestOrder(t *testing.T) {
	t.Parallel()

	utility := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(
				toolCall("call_a", toolx.ToolAddNumbers, `{"a": 1, "b": 2}`),
				toolCall("call_b", toolx.ToolGetStockPrice, `{"ticker": "msft"}`),
				toolCall("call_c", toolx.ToolGetWeather, `{}`),
			),
			schema.AssistantMessage("done", nil),
		},
	}
	r := newTestRunner(t, utility, &fakeChatModel{}, &fakeChatModel{})

	transcript, _, err := r.Run(context.Background(), seedFor(t, r, "do three things"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var results []*schema.Message
	for _, msg := range transcript {
		if msg.Role == schema.Tool {
			results = append(results, msg)
		}
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 tool results, got %d", len(results))
	}

	wantIDs := []string{"call_a", "call_b", "call_c"}
	for i, msg := range results {
		if msg.ToolCallID != wantIDs[i] {
			t.Fatalf("result %d has id %s, want %s", i, msg.ToolCallID, wantIDs[i])
		}
	}
	if results[0].Content != "3" {
		t.Fatalf("unexpected add result: %q", results[0].Content)
	}
	if !strings.Contains(results[1].Content, "MSFT is $425.22") {
		t.Fatalf("unexpected stock result: %q", results[1].Content)
	}
	if !strings.Contains(results[2].Content, "sunny and 75°F") {
		t.Fatalf("unexpected weather result: %q", results[2].Content)
	}
}

func TestIterationLimit(t *testing.T) {
	t.Parallel()

	utility := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(toolCall("call_1", toolx.ToolGetWeather, `{}`)),
		},
		repeat: true,
	}
	r := newTestRunner(t, utility, &fakeChatModel{}, &fakeChatModel{}, WithMaxTurns(5))

	transcript, _, err := r.Run(context.Background(), seedFor(t, r, "never stop"))
	if !errors.Is(err, contractx.ErrIterationLimit) {
		t.Fatalf("expected ErrIterationLimit, got %v", err)
	}
	if transcript != nil {
		t.Fatal("transcript must not be returned on a fatal error")
	}
	if utility.callCount() != 5 {
		t.Fatalf("model called %d times, want 5", utility.callCount())
	}
}

func TestMalformedArgumentsAreFatal(t *testing.T) {
	t.Parallel()

	utility := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(toolCall("call_1", toolx.ToolAddNumbers, `{"a": 2,`)),
		},
	}
	r := newTestRunner(t, utility, &fakeChatModel{}, &fakeChatModel{})

	_, _, err := r.Run(context.Background(), seedFor(t, r, "add things"))
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestModelFailureIsFatal(t *testing.T) {
	t.Parallel()

	utility := &fakeChatModel{err: errors.New("rate limited")}
	r := newTestRunner(t, utility, &fakeChatModel{}, &fakeChatModel{})

	_, _, err := r.Run(context.Background(), seedFor(t, r, "hello"))
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestHandoffToFinanceSpecialist(t *testing.T) {
	t.Parallel()

	utility := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(toolCall("call_1", agentsx.TransferToFinance, `{}`)),
		},
	}
	finance := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(toolCall("call_2", toolx.ToolCalculateMortgage, `{"principal": 500000, "interest_rate": 3.5, "years": 30}`)),
			schema.AssistantMessage("Your monthly payment is $2,245.22.", nil),
		},
	}
	r := newTestRunner(t, utility, finance, &fakeChatModel{})

	transcript, result, err := r.Run(context.Background(), seedFor(t, r, "calculate my mortgage"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HandoffInfo != "Handed off to: FinancialSpecialist" {
		t.Fatalf("unexpected hand-off info: %q", result.HandoffInfo)
	}
	if !strings.Contains(result.Reply, "2,245.22") {
		t.Fatalf("unexpected reply: %q", result.Reply)
	}
	if utility.callCount() != 1 || finance.callCount() != 2 {
		t.Fatalf("unexpected call counts: utility=%d finance=%d", utility.callCount(), finance.callCount())
	}

	// The specialist runs under its own instructions.
	financeInput := finance.inputAt(0)
	if financeInput[0].Role != schema.System || !strings.Contains(financeInput[0].Content, "financial advisor") {
		t.Fatalf("specialist did not receive its instructions: %+v", financeInput[0])
	}

	var transferAck bool
	for _, msg := range transcript {
		if msg.Role == schema.Tool && msg.ToolCallID == "call_1" {
			transferAck = msg.Content == "Transferred to FinancialSpecialist."
		}
	}
	if !transferAck {
		t.Fatal("transfer tool call was not acknowledged in the transcript")
	}
}

func TestSpanishHandoffStripsToolNoise(t *testing.T) {
	t.Parallel()

	utility := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(toolCall("call_1", toolx.ToolGetWeather, `{}`)),
			toolCallMessage(toolCall("call_2", agentsx.TransferToSpanish, `{}`)),
		},
	}
	spanish := &fakeChatModel{
		script: []*schema.Message{
			schema.AssistantMessage("¡Hola! ¿En qué puedo ayudarte?", nil),
		},
	}
	r := newTestRunner(t, utility, &fakeChatModel{}, spanish)

	_, result, err := r.Run(context.Background(), seedFor(t, r, "hola, ¿qué tiempo hace?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HandoffInfo != "Handed off to: SpanishAssistant" {
		t.Fatalf("unexpected hand-off info: %q", result.HandoffInfo)
	}

	spanishInput := spanish.inputAt(0)
	if !strings.Contains(spanishInput[0].Content, "español") {
		t.Fatalf("spanish agent did not receive its instructions: %q", spanishInput[0].Content)
	}
	for _, msg := range spanishInput {
		if msg.Role == schema.Tool {
			t.Fatalf("tool result leaked through the no-tools filter: %+v", msg)
		}
		if msg.Role == schema.Assistant && len(msg.ToolCalls) > 0 {
			t.Fatalf("tool-call message leaked through the no-tools filter: %+v", msg)
		}
	}
}

func TestOnlyOneHandoffPerRun(t *testing.T) {
	t.Parallel()

	utility := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(toolCall("call_1", agentsx.TransferToFinance, `{}`)),
		},
	}
	// The specialist tries to chain a second hand-off, which it has no
	// rule for; the request lands in the dispatcher as an unknown tool.
	finance := &fakeChatModel{
		script: []*schema.Message{
			toolCallMessage(toolCall("call_2", agentsx.TransferToSpanish, `{}`)),
			schema.AssistantMessage("I will handle this myself.", nil),
		},
	}
	r := newTestRunner(t, utility, finance, &fakeChatModel{})

	transcript, result, err := r.Run(context.Background(), seedFor(t, r, "finanzas"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.HandoffInfo != "Handed off to: FinancialSpecialist" {
		t.Fatalf("unexpected hand-off info: %q", result.HandoffInfo)
	}

	var second string
	for _, msg := range transcript {
		if msg.Role == schema.Tool && msg.ToolCallID == "call_2" {
			second = msg.Content
		}
	}
	if !strings.Contains(second, "unknown tool") {
		t.Fatalf("chained hand-off must not be honored, got %q", second)
	}
}
