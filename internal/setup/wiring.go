package setup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/povarna/generative-ai-agents/prompt-stream/internal/api"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/config"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/gateway"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/llm"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/llm/gpt"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/transcript"
	"github.com/rs/zerolog"
)

var ErrNoProviders = errors.New("no model provider could be configured")

type Config struct {
	Port           string
	LogLevel       string
	AWSRegion      string
	ClaudeModelID  string
	OpenAIKey      string
	OpenAIModelID  string
	TranscriptsCfg transcript.Config
}

type Dependencies struct {
	Models   *config.ModelsConfig
	Gateway  *gateway.Gateway
	Handler  http.Handler
	Recorder transcript.Recorder
	Logger   *zerolog.Logger
}

func LoadConfig() *Config {
	return &Config{
		Port:          getEnv("PROMPT_STREAM_PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AWSRegion:     getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID: getEnv("CLAUDE_MODEL_ID", models.DefaultModelID),
		OpenAIKey:     getEnv("OPEN_AI_KEY", ""),
		OpenAIModelID: getEnv("OPEN_AI_MODEL_ID", "gpt-4o-mini"),
		TranscriptsCfg: transcript.Config{
			Provider:      getEnv("TRANSCRIPT_PROVIDER", "none"),
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			Stream:        getEnv("TRANSCRIPT_STREAM", "prompt-exchanges"),
			MaxLen:        int64(getEnvInt("TRANSCRIPT_MAX_LEN", 10000)),
			PostgresDSN:   getEnv("DATABASE_URL", ""),
		},
	}
}

// ClientConfig configures processes that talk to a gateway as clients.
// Endpoint has no default; callers must reject an empty one before dialing.
type ClientConfig struct {
	Endpoint    string
	ModelID     string
	Temperature float64
	LogLevel    string
}

func LoadClientConfig() *ClientConfig {
	return &ClientConfig{
		Endpoint:    getEnv("PROMPT_WS_ENDPOINT", ""),
		ModelID:     getEnv("PROMPT_MODEL_ID", models.DefaultModelID),
		Temperature: getEnvFloat("PROMPT_TEMPERATURE", 0),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	modelsCfg, err := config.LoadModelsConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load models config: %w", err)
	}

	// A provider without credentials is left out; requests for its models
	// get an error fragment from the gateway.
	streamers := make(map[string]llm.Streamer)
	for _, provider := range modelsCfg.Providers() {
		streamer, err := createStreamer(ctx, provider, cfg, logger)
		if err != nil {
			logger.Warn().Err(err).Str("provider", provider).Msg("Provider disabled")
			continue
		}
		streamers[provider] = streamer
	}
	if len(streamers) == 0 {
		return nil, ErrNoProviders
	}

	recorder, err := transcript.NewRecorder(ctx, cfg.TranscriptsCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript recorder: %w", err)
	}

	gw := gateway.NewGateway(modelsCfg, streamers, recorder, logger)
	container := api.NewContainer(api.NewHandler(modelsCfg, logger), gw)

	return &Dependencies{
		Models:   modelsCfg,
		Gateway:  gw,
		Handler:  container,
		Recorder: recorder,
		Logger:   logger,
	}, nil
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		value = defaultValue
	}

	return value
}

func createStreamer(ctx context.Context, provider string, cfg *Config, logger *zerolog.Logger) (llm.Streamer, error) {
	switch provider {
	case config.ProviderBedrock:
		return bedrock.NewClient(ctx, cfg.AWSRegion, cfg.ClaudeModelID, logger)
	case config.ProviderOpenAI:
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
