package scanning

import (
	"fmt"
	"strings"
)

// responseText trims a model answer and rejects blank ones.
// Markdown is kept since the analysis is shown to the user as-is.
func responseText(provider, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s: %w", provider, ErrEmptyResponse)
	}
	return text, nil
}
