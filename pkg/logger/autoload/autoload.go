// Package autoload initializes the global zerolog logger from the LOG_*
// environment on import.
package autoload

import (
	configx "github.com/b3cub3d/mcp-playground/pkg/config"
	logx "github.com/b3cub3d/mcp-playground/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
