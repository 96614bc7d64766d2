package scanning

import (
	"context"
	"errors"
)

// Generation budget shared by every provider
const (
	Temperature = 0.1
	MaxTokens   = 2000
)

// ErrEmptyResponse is returned when a model answers without any text
var ErrEmptyResponse = errors.New("empty response from model")

// Analyzer defines the interface for vision model analysis of a document
type Analyzer interface {
	// Analyze sends a PNG image and an instruction prompt to the model and
	// returns its free-form analysis
	Analyze(ctx context.Context, image []byte, prompt string) (string, error)
	// Close closes the analyzer and releases resources
	Close() error
}
