package transcript

import (
	"context"
	"fmt"

	red "github.com/povarna/generative-ai-agents/prompt-stream/internal/redis"
	"github.com/rs/zerolog"
)

type Config struct {
	Provider      string // none, redis, postgres
	RedisAddr     string
	RedisPassword string
	Stream        string
	MaxLen        int64
	PostgresDSN   string
}

func NewRecorder(ctx context.Context, cfg Config, logger *zerolog.Logger) (Recorder, error) {
	switch cfg.Provider {
	case "", "none":
		return NopRecorder{}, nil

	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis address required")
		}
		client, err := red.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 5, logger)
		if err != nil {
			return nil, err
		}
		return NewRedisRecorder(client, cfg.Stream, cfg.MaxLen), nil

	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres dsn required")
		}
		return NewPostgresRecorder(ctx, cfg.PostgresDSN)

	default:
		return nil, fmt.Errorf("unsupported transcript provider: %s", cfg.Provider)
	}
}
