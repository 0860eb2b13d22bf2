package chat

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	agentsx "github.com/b3cub3d/mcp-playground/agent/agents"
	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
	nodex "github.com/b3cub3d/mcp-playground/agent/nodes"
	runnerx "github.com/b3cub3d/mcp-playground/agent/runner"
	sessionx "github.com/b3cub3d/mcp-playground/agent/session"
)

// ErrInvalidMessage is surfaced to HTTP callers as a 400. Blank session ids
// never reach the pipeline: the store rejects them first with
// session.ErrInvalidSession.
var ErrInvalidMessage = nodex.ErrInvalidMessage

// Service answers chat messages: it loads the session's transcript under
// the per-session lock, runs the orchestration loop, and persists the
// transcript only on full success.
type Service struct {
	store    sessionx.Store
	registry *agentsx.Registry
	runner   *runnerx.Runner

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]
}

func New(store sessionx.Store, registry *agentsx.Registry, opts ...runnerx.Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if registry == nil {
		return nil, errors.New("agent registry is required")
	}

	r, err := runnerx.New(registry, opts...)
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:    store,
		registry: registry,
		runner:   r,
	}

	graphRunner, err := s.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.graphRunner = graphRunner

	return s, nil
}

// HandleMessage runs one full orchestration for the given session. The
// session's stored transcript is replaced only when the run succeeds.
func (s *Service) HandleMessage(ctx context.Context, sessionID string, text string) (contractx.RunResult, error) {
	var result contractx.RunResult

	err := s.store.Update(ctx, sessionID, func(ctx context.Context, transcript []*schema.Message) ([]*schema.Message, error) {
		out, err := s.graphRunner.Invoke(ctx, nodex.GraphInput{
			SessionID:  sessionID,
			Text:       text,
			Transcript: transcript,
		})
		if err != nil {
			return nil, err
		}

		result = contractx.RunResult{
			Reply:       out.Reply,
			HandoffInfo: out.HandoffInfo,
		}
		return out.Transcript, nil
	})
	if err != nil {
		return contractx.RunResult{}, err
	}

	return result, nil
}
