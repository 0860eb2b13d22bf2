package nodes

import (
	"errors"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
)

var (
	ErrInvalidMessage = errors.New("message must not be empty")
	ErrInvalidSession = errors.New("session id must not be empty")
)

// GraphInput is what one chat request feeds into the pipeline: the user's
// text plus the session's current transcript (already loaded under the
// session lock).
type GraphInput struct {
	SessionID  string
	Text       string
	Transcript []*schema.Message
}

// GraphOutput carries the final reply and the transcript to persist.
type GraphOutput struct {
	Reply       string
	HandoffInfo string
	Transcript  []*schema.Message
}

// GraphState is the mutable pipeline state threaded through the nodes.
type GraphState struct {
	SessionID  string
	Text       string
	Transcript []*schema.Message
	Result     contractx.RunResult
}
