package vision

import (
	"fmt"
	"net/http"
	"time"
)

// NewProvider builds the configured vision classifier. A positive timeout
// caps every classification call; zero keeps the provider default.
func NewProvider(providerType, anthropicKey, openaiKey string, timeout time.Duration) (Provider, error) {
	switch providerType {
	case "anthropic":
		if anthropicKey == "" {
			return nil, fmt.Errorf("anthropic vision requires ANTHROPIC_API_KEY")
		}
		p := NewAnthropicProvider(anthropicKey)
		applyTimeout(p.Client, timeout)
		return p, nil
	case "openai":
		if openaiKey == "" {
			return nil, fmt.Errorf("openai vision requires OPENAI_API_KEY")
		}
		p := NewOpenAIProvider(openaiKey)
		applyTimeout(p.Client, timeout)
		return p, nil
	case "auto", "":
		// Prefer Anthropic when both keys are set, fall back to OpenAI.
		if anthropicKey != "" {
			p := NewAnthropicProvider(anthropicKey)
			applyTimeout(p.Client, timeout)
			return p, nil
		}
		if openaiKey != "" {
			p := NewOpenAIProvider(openaiKey)
			applyTimeout(p.Client, timeout)
			return p, nil
		}
		return nil, fmt.Errorf("no vision API key configured")
	default:
		return nil, fmt.Errorf("unsupported vision provider: %s", providerType)
	}
}

func applyTimeout(client *http.Client, timeout time.Duration) {
	if timeout > 0 {
		client.Timeout = timeout
	}
}
