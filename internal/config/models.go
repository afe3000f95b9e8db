package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrUnknownModel = errors.New("unknown model")

const defaultMaxTokens = 1024

func LoadModelsConfig() (*ModelsConfig, error) {
	path := os.Getenv("MODELS_CONFIG_PATH")
	if path == "" {
		path = "configs/models.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return ParseModelsConfig(data)
}

func ParseModelsConfig(data []byte) (*ModelsConfig, error) {
	var cfg ModelsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *ModelsConfig) {
	if cfg.DefaultMaxTokens == 0 {
		cfg.DefaultMaxTokens = defaultMaxTokens
	}

	for i := range cfg.Models {
		if cfg.Models[i].Provider == "" {
			cfg.Models[i].Provider = ProviderBedrock
		}
		if cfg.Models[i].MaxTokens == 0 {
			cfg.Models[i].MaxTokens = cfg.DefaultMaxTokens
		}
	}

	if cfg.DefaultModel == "" && len(cfg.Models) > 0 {
		cfg.DefaultModel = cfg.Models[0].ID
	}
}

func (c *ModelsConfig) Validate() error {
	if len(c.Models) == 0 {
		return fmt.Errorf("no models configured")
	}
	if c.DefaultMaxTokens < 0 {
		return fmt.Errorf("negative default_max_tokens: %d", c.DefaultMaxTokens)
	}

	seen := make(map[string]bool, len(c.Models))
	for i, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("model at index %d is missing id", i)
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate model id: %s", m.ID)
		}
		seen[m.ID] = true

		switch m.Provider {
		case ProviderBedrock, ProviderOpenAI:
		default:
			return fmt.Errorf("model %s has unsupported provider: %s", m.ID, m.Provider)
		}

		if m.MaxTokens < 0 {
			return fmt.Errorf("model %s has negative max_tokens: %d", m.ID, m.MaxTokens)
		}
	}

	if !seen[c.DefaultModel] {
		return fmt.Errorf("default_model %s is not in the models list", c.DefaultModel)
	}

	return nil
}

// Resolve returns the spec for id, or the default model when id is empty.
func (c *ModelsConfig) Resolve(id string) (ModelSpec, error) {
	if id == "" {
		id = c.DefaultModel
	}

	for _, m := range c.Models {
		if m.ID == id {
			return m, nil
		}
	}

	return ModelSpec{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
}

// Providers lists the distinct providers referenced by the catalogue.
func (c *ModelsConfig) Providers() []string {
	var providers []string
	seen := map[string]bool{}
	for _, m := range c.Models {
		if !seen[m.Provider] {
			seen[m.Provider] = true
			providers = append(providers, m.Provider)
		}
	}
	return providers
}
