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
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/client"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/setup"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/setup/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var errEmptyEndpoint = errors.New("endpoint must not be empty")

func main() {
	_ = godotenv.Load()

	cfg := setup.LoadClientConfig()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = logger.NewConsole(cfg.LogLevel)
	appLogger := log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, cfg, &appLogger).ExecuteContext(ctx); err != nil {
		appLogger.Error().Err(err).Msg("Prompt failed")
		os.Exit(1)
	}
}

type options struct {
	endpoint    string
	prompt      string
	modelID     string
	temperature float64
}

// newRootCmd builds the prompt command. --endpoint falls back to
// PROMPT_WS_ENDPOINT and is required when that is unset.
func newRootCmd(out io.Writer, cfg *setup.ClientConfig, logger *zerolog.Logger) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "prompt",
		Short:         "Send a prompt to a streaming model endpoint and print the response",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), out, opts, logger)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.endpoint, "endpoint", cfg.Endpoint, "WebSocket endpoint, e.g. wss://example.execute-api.us-east-1.amazonaws.com/dev")
	flags.StringVar(&opts.prompt, "prompt", "", "prompt text; literal \\n sequences become newlines")
	flags.StringVar(&opts.modelID, "model", cfg.ModelID, "model identifier")
	flags.Float64Var(&opts.temperature, "temperature", cfg.Temperature, "sampling temperature (currently always sent as 0)")
	_ = cmd.MarkFlagRequired("prompt")
	if cfg.Endpoint == "" {
		_ = cmd.MarkFlagRequired("endpoint")
	}

	return cmd
}

func run(ctx context.Context, out io.Writer, opts *options, logger *zerolog.Logger) error {
	if strings.TrimSpace(opts.endpoint) == "" {
		return errEmptyEndpoint
	}

	if opts.temperature != models.PinnedTemperature {
		logger.Warn().
			Float64("temperature", opts.temperature).
			Float64("sent", models.PinnedTemperature).
			Msg("Temperature is ignored")
	}

	request := models.NewRequest(opts.prompt, opts.modelID, opts.temperature)

	logger.Debug().
		Str("endpoint", opts.endpoint).
		Str("model_id", request.Parameters.ModelID).
		Msg("Sending prompt")

	return client.NewClient(logger).Stream(ctx, opts.endpoint, request, out)
}
