package vision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderAutoPrefersAnthropic(t *testing.T) {
	p, err := NewProvider("auto", "anthropic-key", "openai-key", 0)
	require.NoError(t, err)
	assert.IsType(t, &AnthropicProvider{}, p)

	p, err = NewProvider("auto", "", "openai-key", 0)
	require.NoError(t, err)
	assert.IsType(t, &OpenAIProvider{}, p)

	_, err = NewProvider("auto", "", "", 0)
	assert.Error(t, err)
}

func TestNewProviderAppliesRequestTimeout(t *testing.T) {
	p, err := NewProvider("anthropic", "key", "", 20*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, p.(*AnthropicProvider).Client.Timeout)

	p, err = NewProvider("openai", "", "key", 20*time.Second)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, p.(*OpenAIProvider).Client.Timeout)

	p, err = NewProvider("anthropic", "key", "", 0)
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, p.(*AnthropicProvider).Client.Timeout)
}
