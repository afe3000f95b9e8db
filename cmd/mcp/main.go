package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/mcpadapter"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/setup"
	applog "github.com/povarna/generative-ai-agents/prompt-stream/internal/setup/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load env
	_ = godotenv.Load()

	cfg := setup.LoadClientConfig()

	// Setup logging. stdout carries the MCP protocol.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = applog.NewConsole(cfg.LogLevel)
	logger := log.Logger

	if cfg.Endpoint == "" {
		logger.Fatal().Msg("PROMPT_WS_ENDPOINT is required")
	}

	// Graceful shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := createMCPServer(cfg, &logger)

	// Run over stdio
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		if errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
			logger.Debug().Err(err).Msg("MCP server stopped")
			return
		}
		logger.Error().Err(err).Msg("Failed to run mcp server")
		os.Exit(1)
	}
}

func createMCPServer(cfg *setup.ClientConfig, logger *zerolog.Logger) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "prompt-stream",
			Version: "1.0.0",
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "invoke_model",
		Description: "Send a prompt to the streaming model gateway and return the full response text",
	}, mcpadapter.NewInvokeModelHandler(cfg.Endpoint, cfg.ModelID, logger))

	return server
}
