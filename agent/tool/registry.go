package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

// Handler couples a tool's schema with its implementation. Run returns the
// stringified result for the transcript; a returned error is converted to an
// in-band failure string by the executor, never propagated.
type Handler struct {
	Info *schema.ToolInfo
	Run  func(ctx context.Context, args map[string]any) (string, error)
}

// Executor dispatches one tool invocation. The output is always usable as a
// ToolResult body: unknown tools and failed executions come back as text.
type Executor func(ctx context.Context, name string, args map[string]any) string

// Registry maps tool names to handlers. It is validated once at startup so
// that an unknown-name lookup is the only runtime-discoverable case.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{
		handlers: make(map[string]Handler, len(handlers)),
	}
	for _, h := range handlers {
		if h.Info == nil {
			return nil, fmt.Errorf("tool handler has no schema")
		}
		name := strings.TrimSpace(h.Info.Name)
		if name == "" {
			return nil, fmt.Errorf("tool handler has an empty name")
		}
		if h.Run == nil {
			return nil, fmt.Errorf("tool %s has no run function", name)
		}
		if _, exists := r.handlers[name]; exists {
			return nil, fmt.Errorf("tool %s registered twice", name)
		}
		r.handlers[name] = h
		r.order = append(r.order, name)
	}
	return r, nil
}

// Infos returns the schemas for the named tools, in the given order. With no
// names it returns every registered tool in registration order. Unknown
// names are a programming error and panic at startup wiring time.
func (r *Registry) Infos(names ...string) []*schema.ToolInfo {
	if len(names) == 0 {
		names = r.order
	}
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		h, ok := r.handlers[name]
		if !ok {
			panic(fmt.Sprintf("tool %s is not registered", name))
		}
		infos = append(infos, h.Info)
	}
	return infos
}

// Executor returns the dispatch function over this registry.
func (r *Registry) Executor() Executor {
	return func(ctx context.Context, name string, args map[string]any) string {
		h, ok := r.handlers[name]
		if !ok {
			return fmt.Sprintf("unknown tool: %s", name)
		}

		out, err := h.Run(ctx, args)
		if err != nil {
			log.Debug().Str("tool", name).Err(err).Msg("tool execution failed")
			return fmt.Sprintf("tool %s failed: %s", name, err.Error())
		}
		return out
	}
}
