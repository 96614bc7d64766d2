package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultGroqBaseURL is Groq's OpenAI-compatible endpoint
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"

	DefaultGroqModel = "llama-3.2-90b-vision-preview"
)

// Groq implements the Analyzer interface using Groq's OpenAI-compatible chat API.
// Any OpenAI-compatible vision endpoint works when baseURL points at it.
type Groq struct {
	client *openai.Client
	model  string
}

// NewGroq creates a new Groq Analyzer instance
func NewGroq(apiKey, modelName, baseURL string) (*Groq, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	if modelName == "" {
		modelName = DefaultGroqModel
	}
	if baseURL == "" {
		baseURL = DefaultGroqBaseURL
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Groq{
		client: openai.NewClientWithConfig(config),
		model:  modelName,
	}, nil
}

// Analyze sends the document to the chat completions API and returns the analysis text
func (g *Groq) Analyze(ctx context.Context, image []byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       g.model,
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: promptOrDefault(prompt),
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("creating chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("groq: %w", ErrEmptyResponse)
	}

	return responseText("groq", resp.Choices[0].Message.Content)
}

// Close is a no-op; the client holds no resources
func (g *Groq) Close() error {
	return nil
}
