package gpt

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/llm"
)

func (c *Client) InvokeModelStream(ctx context.Context, request llm.LLMRequest, callback llm.StreamCallback) (*llm.LLMResponse, error) {
	stream := c.Client.Chat.Completions.NewStreaming(ctx, c.buildParams(request))
	defer stream.Close()

	var fullContent strings.Builder
	var stopReason string

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if choice.FinishReason != "" {
			stopReason = fmt.Sprint(choice.FinishReason)
		}

		text := choice.Delta.Content
		if text == "" {
			continue
		}

		fullContent.WriteString(text)
		if callback != nil {
			if err := callback(text); err != nil {
				return nil, fmt.Errorf("callback error: %w", err)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("unable to stream gpt model. Error: %w", err)
	}

	return &llm.LLMResponse{
		Content:    fullContent.String(),
		StopReason: stopReason,
	}, nil
}

func (c *Client) buildParams(request llm.LLMRequest) openai.ChatCompletionNewParams {
	modelID := request.ModelID
	if modelID == "" {
		modelID = c.ModelID
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(request.Prompt),
		},
		Temperature: openai.Float(request.Temperature),
		Model:       openai.ChatModel(modelID),
	}
	if request.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(request.MaxTokens))
	}

	return params
}
