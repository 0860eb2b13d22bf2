package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	agentsx "github.com/b3cub3d/mcp-playground/agent/agents"
	chatx "github.com/b3cub3d/mcp-playground/agent/agents/chat"
	contractx "github.com/b3cub3d/mcp-playground/agent/contract"
	llmx "github.com/b3cub3d/mcp-playground/agent/llm"
	sessionx "github.com/b3cub3d/mcp-playground/agent/session"
	toolx "github.com/b3cub3d/mcp-playground/agent/tool"
	configx "github.com/b3cub3d/mcp-playground/pkg/config"
	_ "github.com/b3cub3d/mcp-playground/pkg/logger/autoload"
	openaix "github.com/b3cub3d/mcp-playground/pkg/openaiapi"
	timesvcx "github.com/b3cub3d/mcp-playground/pkg/timesvc"
	serverx "github.com/b3cub3d/mcp-playground/server"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	llmCfg := configx.MustNew[llmx.Config]("OPENAI")

	// The time service is optional: without it the two time tools report
	// their unavailability in-band and everything else keeps working.
	var timeClient *timesvcx.Client
	if timeCfg, err := configx.New[timesvcx.Config]("TIME_SERVICE"); err == nil {
		timeClient = timesvcx.MustNew(*timeCfg)
	} else {
		log.Warn().Err(err).Msg("time service not configured; time tools disabled")
	}

	tools, err := toolx.NewBuiltinRegistry(toolx.Deps{Time: timeClient})
	if err != nil {
		log.Fatal().Err(err).Msg("build tool registry")
	}

	registry, err := agentsx.NewRegistry(ctx, *llmCfg, tools)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent registry")
	}

	store := sessionx.NewMemoryStore()

	svc, err := chatx.New(store, registry)
	if err != nil {
		log.Fatal().Err(err).Msg("build chat service")
	}

	sdkClient := openaix.NewClient(llmCfg.OpenAIFor(contractx.AgentTypeUtility))
	ping := func(ctx context.Context) error {
		return openaix.Ping(ctx, sdkClient)
	}

	srvCfg := configx.MustNew[serverx.Config]("SERVER")
	srv := serverx.New(*srvCfg, svc, ping)

	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
