package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/llm"
)

type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	Messages         []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// claudeStreamEvent covers the fields of the message_start, content_block_*
// and message_delta events that carry text or a stop reason.
type claudeStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Text       string `json:"text"`
		StopReason string `json:"stop_reason"`
	} `json:"delta"`
	ContentBlock struct {
		Text string `json:"text"`
	} `json:"content_block"`
	Message struct {
		StopReason string `json:"stop_reason"`
	} `json:"message"`
}

var anthropicVersion = "bedrock-2023-05-31"

// errCallback marks failures raised by the caller's callback. They describe
// the consumer, not Bedrock, and are never retried.
var errCallback = errors.New("callback error")

// InvokeModelStream streams a Claude completion. Retryable failures are retried
// only while no chunk has reached the callback, so a caller never sees text twice.
func (c *Client) InvokeModelStream(ctx context.Context, request llm.LLMRequest, callback llm.StreamCallback) (*llm.LLMResponse, error) {
	body, err := c.buildBody(request)
	if err != nil {
		return nil, err
	}

	modelID := request.ModelID
	if modelID == "" {
		modelID = c.ModelID
	}

	maxRetries := c.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		response, delivered, err := c.invokeOnce(ctx, modelID, body, callback)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if !shouldRetry(err, delivered) {
			if delivered > 0 {
				return nil, fmt.Errorf("stream failed after %d chunks: %w", delivered, err)
			}
			return nil, fmt.Errorf("non-retryable error: %w", err)
		}

		delay := calculateBackoff(attempt, c.InitialDelay, c.MaxDelay)
		if c.logger != nil {
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", delay).Str("model_id", modelID).Msg("Retrying bedrock stream")
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("max retries %d exceeded: %w", maxRetries, lastErr)
}

func (c *Client) buildBody(request llm.LLMRequest) ([]byte, error) {
	payload := claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        request.MaxTokens,
		Temperature:      request.Temperature,
		Messages: []claudeMessage{
			{
				Role:    "user",
				Content: request.Prompt,
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize claude request: %w", err)
	}
	return body, nil
}

func (c *Client) invokeOnce(ctx context.Context, modelID string, body []byte, callback llm.StreamCallback) (*llm.LLMResponse, int, error) {
	output, err := c.Client.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     aws.String(modelID),
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("unable to invoke claude model stream: %w", err)
	}

	stream := output.GetStream()
	defer stream.Close()

	response, delivered, err := consumeEvents(stream.Events(), callback)
	if err != nil {
		return nil, delivered, err
	}

	if err := stream.Err(); err != nil {
		return nil, delivered, fmt.Errorf("stream error: %w", err)
	}

	return response, delivered, nil
}

// consumeEvents drains the event channel and returns the response together
// with the number of chunks handed to the callback.
func consumeEvents(events <-chan types.ResponseStream, callback llm.StreamCallback) (*llm.LLMResponse, int, error) {
	var fullContent strings.Builder
	var stopReason string
	delivered := 0

	for event := range events {
		chunk, ok := event.(*types.ResponseStreamMemberChunk)
		if !ok {
			continue
		}

		text, reason, err := parseChunk(chunk.Value.Bytes)
		if err != nil {
			// unknown event shapes are skipped
			continue
		}
		if reason != "" {
			stopReason = reason
		}
		if text == "" {
			continue
		}

		fullContent.WriteString(text)
		if callback != nil {
			if err := callback(text); err != nil {
				return nil, delivered, fmt.Errorf("%w: %w", errCallback, err)
			}
		}
		delivered++
	}

	return &llm.LLMResponse{
		Content:    fullContent.String(),
		StopReason: stopReason,
	}, delivered, nil
}

func parseChunk(data []byte) (string, string, error) {
	var event claudeStreamEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return "", "", err
	}

	text := event.Delta.Text
	if text == "" {
		text = event.ContentBlock.Text
	}

	reason := event.Delta.StopReason
	if reason == "" {
		reason = event.Message.StopReason
	}

	return text, reason, nil
}

// shouldRetry reports whether another attempt may run. Once a chunk reached
// the callback the caller has seen output, so the stream cannot restart.
func shouldRetry(err error, delivered int) bool {
	if delivered > 0 || errors.Is(err, errCallback) {
		return false
	}
	return isRetryableError(err)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()

	// Throttling
	if strings.Contains(errStr, "ThrottlingException") ||
		strings.Contains(errStr, "TooManyRequestsException") ||
		strings.Contains(errStr, "Rate exceeded") {
		return true
	}

	// 5xx
	if strings.Contains(errStr, "InternalServerException") ||
		strings.Contains(errStr, "ServiceUnavailableException") ||
		strings.Contains(errStr, "ModelNotReadyException") ||
		strings.Contains(errStr, "StatusCode: 500") ||
		strings.Contains(errStr, "StatusCode: 503") {
		return true
	}

	// Network
	if strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "timeout") {
		return true
	}

	return false
}

func calculateBackoff(attempt int, initialDelay, maxDelay time.Duration) time.Duration {
	backoff := float64(initialDelay) * math.Pow(2, float64(attempt))

	if backoff > float64(maxDelay) {
		backoff = float64(maxDelay)
	}

	jitter := backoff * 0.2 * (2*rand.Float64() - 1) // +/-20%
	backoff += jitter

	return time.Duration(backoff)
}
