package models

import (
	"strings"
	"time"
)

const (
	// ActionInvokeModel is the only action the gateway routes.
	ActionInvokeModel = "invokeModel"

	// Sentinel marks the end of a streamed response. It is never printed.
	Sentinel = "<End of LLM response>"

	DefaultModelID = "anthropic.claude-3-haiku-20240307-v1:0"

	// PinnedTemperature is sent regardless of the temperature a caller supplies.
	// TODO: decide whether the caller's temperature should be forwarded instead.
	PinnedTemperature = 0.0
)

type Parameters struct {
	ModelID     string  `json:"modelId" jsonschema:"model identifier"`
	Temperature float64 `json:"temperature" jsonschema:"sampling temperature"`
}

// Request is the single message a client sends after connecting.
type Request struct {
	Action     string     `json:"action"`
	Parameters Parameters `json:"parameters"`
	Prompt     string     `json:"prompt"`
}

// NewRequest builds an invokeModel request. Literal `\n` sequences in the
// prompt become newlines and the temperature is replaced by PinnedTemperature.
func NewRequest(prompt string, modelID string, temperature float64) Request {
	if modelID == "" {
		modelID = DefaultModelID
	}
	_ = temperature

	return Request{
		Action: ActionInvokeModel,
		Parameters: Parameters{
			ModelID:     modelID,
			Temperature: PinnedTemperature,
		},
		Prompt: UnescapeNewlines(prompt),
	}
}

// UnescapeNewlines replaces every two-character `\n` sequence with a newline.
func UnescapeNewlines(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func IsSentinel(fragment string) bool {
	return fragment == Sentinel
}

// Exchange is one completed request/response pair as seen by the gateway.
type Exchange struct {
	ID           string        `json:"id"`
	ConnectionID string        `json:"connection_id"`
	ModelID      string        `json:"model_id"`
	Provider     string        `json:"provider"`
	Prompt       string        `json:"prompt"`
	Response     string        `json:"response"`
	StopReason   string        `json:"stop_reason,omitempty"`
	Fragments    int           `json:"fragments"`
	Error        string        `json:"error,omitempty"`
	StartedAt    time.Time     `json:"started_at"`
	Duration     time.Duration `json:"duration_ns"`
}
