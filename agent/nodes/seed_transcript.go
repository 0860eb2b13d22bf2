package nodes

import (
	"fmt"

	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
	runnerx "github.com/b3cub3d/mcp-playground/agent/runner"
)

// SeedTranscript resets the index-0 system message to the root agent's
// instructions and appends the incoming user message.
func SeedTranscript(in *GraphState, instructions string) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Transcript = runnerx.Seed(in.Transcript, instructions, in.Text)
	return in, nil
}
