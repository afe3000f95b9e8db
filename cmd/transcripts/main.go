package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	red "github.com/povarna/generative-ai-agents/prompt-stream/internal/redis"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/setup"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/transcript"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	logger := log.Logger

	// Load env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := setup.LoadConfig().TranscriptsCfg

	client, err := red.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5, &logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer client.Close()

	consumerName, _ := os.Hostname()
	if consumerName == "" {
		consumerName = "transcripts"
	}

	consumer := transcript.NewConsumer(client, cfg.Stream, "transcript-tail", consumerName, logExchange(&logger), &logger)

	if err := consumer.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup consumer")
	}

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Consumer stopped with error")
	}

	log.Info().Msg("Transcript tail stopped")
}

func logExchange(logger *zerolog.Logger) transcript.Handler {
	return func(ctx context.Context, exchange models.Exchange) error {
		level := zerolog.InfoLevel
		if exchange.Error != "" {
			level = zerolog.WarnLevel
		}

		event := logger.WithLevel(level)
		if exchange.Error != "" {
			event = event.Str("error", exchange.Error)
		}
		event.
			Str("id", exchange.ID).
			Str("connection_id", exchange.ConnectionID).
			Str("model_id", exchange.ModelID).
			Str("provider", exchange.Provider).
			Str("stop_reason", exchange.StopReason).
			Int("fragments", exchange.Fragments).
			Dur("duration", exchange.Duration).
			Str("prompt", exchange.Prompt).
			Str("response", exchange.Response).
			Msg("Exchange")
		return nil
	}
}
