package mcpadapter

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/client"
	"github.com/povarna/generative-ai-agents/prompt-stream/internal/models"
	"github.com/rs/zerolog"
)

// InvokeModelInput is the MCP tool input schema.
type InvokeModelInput struct {
	Prompt      string  `json:"prompt" jsonschema:"prompt text; literal \\n sequences become newlines"`
	ModelID     string  `json:"model_id,omitempty" jsonschema:"model identifier, defaults to the configured model"`
	Temperature float64 `json:"temperature,omitempty" jsonschema:"accepted for compatibility, the request is always sent with temperature 0"`
}

type InvokeModelOutput struct {
	Text    string `json:"text" jsonschema:"concatenated model output"`
	ModelID string `json:"model_id" jsonschema:"model the request was sent to"`
}

// NewInvokeModelHandler returns a tool handler that runs one exchange against endpoint.
// Pass the returned function to mcp.AddTool.
func NewInvokeModelHandler(endpoint string, defaultModelID string, logger *zerolog.Logger) func(context.Context, *mcp.CallToolRequest, InvokeModelInput) (*mcp.CallToolResult, InvokeModelOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input InvokeModelInput) (*mcp.CallToolResult, InvokeModelOutput, error) {
		return InvokeModel(ctx, endpoint, defaultModelID, logger, input)
	}
}

// InvokeModel streams the response for input and returns it in one piece.
func InvokeModel(
	ctx context.Context,
	endpoint string,
	defaultModelID string,
	logger *zerolog.Logger,
	input InvokeModelInput,
) (*mcp.CallToolResult, InvokeModelOutput, error) {
	if input.Prompt == "" {
		return nil, InvokeModelOutput{}, fmt.Errorf("prompt is required")
	}

	modelID := input.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}

	request := models.NewRequest(input.Prompt, modelID, input.Temperature)

	text, err := client.NewClient(logger).Collect(ctx, endpoint, request)
	if err != nil {
		return nil, InvokeModelOutput{}, fmt.Errorf("invoke model %s: %w", request.Parameters.ModelID, err)
	}

	logger.Info().
		Str("model_id", request.Parameters.ModelID).
		Int("response_len", len(text)).
		Msg("Tool call complete")

	return nil, InvokeModelOutput{
		Text:    text,
		ModelID: request.Parameters.ModelID,
	}, nil
}
