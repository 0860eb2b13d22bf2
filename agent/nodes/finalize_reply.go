package nodes

import (
	"fmt"
	"strings"

	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Result.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: loop produced an empty reply", contractx.ErrValidation)
	}

	return GraphOutput{
		Reply:       reply,
		HandoffInfo: in.Result.HandoffInfo,
		Transcript:  in.Transcript,
	}, nil
}
