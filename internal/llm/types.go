package llm

type LLMRequest struct {
	ModelID     string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

type LLMResponse struct {
	Content    string
	StopReason string
}

// StreamCallback receives each text chunk as the model produces it.
// Returning an error aborts the stream.
type StreamCallback func(chunk string) error
