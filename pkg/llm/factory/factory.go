package factory

import (
	"fmt"
	"time"

	"screentosong-be/pkg/llm"
	"screentosong-be/pkg/llm/anthropic"
	"screentosong-be/pkg/llm/ollama"
	"screentosong-be/pkg/llm/openai"
)

// NewProvider builds the configured text-generation backend. A positive
// timeout caps every request to the provider; zero keeps the backend default.
func NewProvider(providerType, modelName, apiKey, baseURL string, timeout time.Duration) (llm.Provider, error) {
	switch providerType {
	case "anthropic":
		if apiKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		p := anthropic.NewProvider(apiKey, modelName)
		if timeout > 0 {
			p.Client.Timeout = timeout
		}
		return p, nil
	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		p := openai.NewProvider(apiKey, modelName)
		if timeout > 0 {
			p.Client.Timeout = timeout
		}
		return p, nil
	case "ollama":
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		p := ollama.NewProvider(baseURL, modelName)
		if timeout > 0 {
			p.Client.Timeout = timeout
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
