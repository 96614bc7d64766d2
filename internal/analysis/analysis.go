package analysis

import (
	"time"

	"github.com/zombor/fin-scanner/internal/metrics"
)

// Analysis is one completed document analysis kept in the session history
type Analysis struct {
	ID            string            `json:"id"`
	Filename      string            `json:"filename"`
	ContentType   string            `json:"content_type"`
	Prompt        string            `json:"prompt"`
	ExtractedText string            `json:"extracted_text"` // OCR output, for reference only
	Text          string            `json:"analysis"`       // free-form model output
	Metrics       metrics.MetricSet `json:"metrics"`
	Summary       string            `json:"summary"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Sections returns the metrics grouped by category
func (a *Analysis) Sections() []metrics.Section {
	return metrics.Summarize(a.Metrics)
}
