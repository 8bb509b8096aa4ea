package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"screentosong-be/pkg/store"
)

const (
	openaiChatURL = "https://api.openai.com/v1/chat/completions"
	openaiModel   = "gpt-4o"
)

// OpenAIProvider classifies frames with GPT-4o vision.
type OpenAIProvider struct {
	APIKey string
	Client *http.Client
}

var _ Provider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type openaiImageURL struct {
	URL string `json:"url"`
}

type openaiContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openaiImageURL `json:"image_url,omitempty"`
}

type openaiVisionMessage struct {
	Role    string              `json:"role"`
	Content []openaiContentPart `json:"content"`
}

type openaiVisionRequest struct {
	Model     string                `json:"model"`
	Messages  []openaiVisionMessage `json:"messages"`
	MaxTokens int                   `json:"max_tokens,omitempty"`
}

type openaiVisionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) Classify(ctx context.Context, imageBytes []byte) (*store.SceneDescriptor, error) {
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageBytes)

	payload := openaiVisionRequest{
		Model:     openaiModel,
		MaxTokens: 500,
		Messages: []openaiVisionMessage{
			{
				Role: "user",
				Content: []openaiContentPart{
					{Type: "text", Text: classifyPrompt},
					{Type: "image_url", ImageURL: &openaiImageURL{URL: dataURL}},
				},
			},
		},
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", openaiChatURL, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error: status %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp openaiVisionResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(apiResp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	return ParseDescriptor(apiResp.Choices[0].Message.Content)
}
