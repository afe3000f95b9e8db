package config

const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
)

// ModelsConfig is the model catalogue served by the gateway.
type ModelsConfig struct {
	DefaultModel     string      `yaml:"default_model" json:"default_model"`
	DefaultMaxTokens int         `yaml:"default_max_tokens" json:"default_max_tokens"`
	Models           []ModelSpec `yaml:"models" json:"models"`
}

type ModelSpec struct {
	ID          string `yaml:"id" json:"id" description:"Model identifier sent as parameters.modelId"`
	Provider    string `yaml:"provider" json:"provider" description:"bedrock or openai"`
	MaxTokens   int    `yaml:"max_tokens" json:"max_tokens" description:"Maximum tokens to generate"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" description:"Free text description"`
}
