package nodes

import (
	"context"
	"fmt"

	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
	runnerx "github.com/b3cub3d/mcp-playground/agent/runner"
)

// RunLoop executes the orchestration loop over the seeded transcript.
func RunLoop(ctx context.Context, in *GraphState, r *runnerx.Runner) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	transcript, result, err := r.Run(ctx, in.Transcript)
	if err != nil {
		return nil, err
	}

	in.Transcript = transcript
	in.Result = result
	return in, nil
}
