package llm

import (
	"context"
)

//go:generate mockgen -source=client.go -destination=mocks/mock_client.go -package=mocks

// Streamer invokes a model and streams its output through the callback.
// The returned response carries the full content once the stream ends.
type Streamer interface {
	InvokeModelStream(ctx context.Context, request LLMRequest, callback StreamCallback) (*LLMResponse, error)
}
