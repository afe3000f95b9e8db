package transcript

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/redis/go-redis/v9"
)

const payloadField = "payload"

type streamWriter interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisRecorder appends each exchange to a Redis stream as a JSON payload.
type RedisRecorder struct {
	client streamWriter
	closer func() error
	stream string
	maxLen int64
}

func NewRedisRecorder(client *redis.Client, stream string, maxLen int64) *RedisRecorder {
	return &RedisRecorder{
		client: client,
		closer: client.Close,
		stream: stream,
		maxLen: maxLen,
	}
}

func (r *RedisRecorder) Record(ctx context.Context, exchange models.Exchange) error {
	payload, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to encode exchange %s: %w", exchange.ID, err)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{payloadField: string(payload)},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	if err := r.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish exchange %s: %w", exchange.ID, err)
	}
	return nil
}

func (r *RedisRecorder) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
