package transcript

import (
	"context"

	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
)

// Recorder persists completed exchanges.
type Recorder interface {
	Record(ctx context.Context, exchange models.Exchange) error
	Close() error
}

type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, exchange models.Exchange) error { return nil }

func (NopRecorder) Close() error { return nil }
