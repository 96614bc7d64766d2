package scanning

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicMessager is the subset of the Anthropic client used for analysis
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicClientCreator builds a messager for an API key
type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

// Anthropic implements the Analyzer interface using Claude
type Anthropic struct {
	messages AnthropicMessager
	model    string
}

// NewAnthropic creates a new Anthropic Analyzer instance
func NewAnthropic(apiKey string, modelName string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if modelName == "" {
		modelName = string(anthropic.ModelClaudeSonnet4_20250514)
	}
	return &Anthropic{messages: newAnthropicClient(apiKey), model: modelName}, nil
}

// Analyze sends the document to Claude and returns the analysis text
func (a *Anthropic) Analyze(ctx context.Context, image []byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   MaxTokens,
		Temperature: anthropic.Float(Temperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(image)),
				anthropic.NewTextBlock(promptOrDefault(prompt)),
			),
		},
	})
	if err != nil {
		return "", fmt.Errorf("creating message: %w", err)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return responseText("anthropic", sb.String())
}

// Close is a no-op; the client holds no resources
func (a *Anthropic) Close() error {
	return nil
}
