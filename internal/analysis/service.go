package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/fin-scanner/internal/metrics"
	"github.com/zombor/fin-scanner/internal/ocr"
	"github.com/zombor/fin-scanner/internal/scanning"
)

var (
	// ErrOCRDisabled is returned by ExtractText when no OCR engine is configured
	ErrOCRDisabled = errors.New("text extraction is disabled")

	// ErrStorage marks failures to persist a document or its analysis
	ErrStorage = errors.New("storage failure")
)

// IDGenerator generates unique IDs for analyses
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs documents through OCR, model analysis and metric extraction
type Service struct {
	db           DB
	analyzer     scanning.Analyzer
	ocr          ocr.TextExtractor
	storage      Storage
	extractor    *metrics.Extractor
	maxImageSize int
	idGenerator  IDGenerator
	timeSource   TimeSource
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithExtractor sets the metric extractor
func WithExtractor(e *metrics.Extractor) ServiceOption {
	return func(s *Service) { s.extractor = e }
}

// WithMaxImageSize sets the longest side of images sent to the model
func WithMaxImageSize(px int) ServiceOption {
	return func(s *Service) { s.maxImageSize = px }
}

// NewService creates a new Service with default ID generator and time source.
// textExtractor may be nil to skip OCR.
func NewService(db DB, analyzer scanning.Analyzer, textExtractor ocr.TextExtractor, storage Storage, opts ...ServiceOption) *Service {
	return NewServiceWithDeps(db, analyzer, textExtractor, storage, &defaultIDGenerator{}, &defaultTimeSource{}, opts...)
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, analyzer scanning.Analyzer, textExtractor ocr.TextExtractor, storage Storage, idGen IDGenerator, timeSrc TimeSource, opts ...ServiceOption) *Service {
	s := &Service{
		db:           db,
		analyzer:     analyzer,
		ocr:          textExtractor,
		storage:      storage,
		extractor:    metrics.NewExtractor(),
		maxImageSize: scanning.DefaultMaxImageSize,
		idGenerator:  idGen,
		timeSource:   timeSrc,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	filenameChars  = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpaces = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filepath.Base(filename), ext)

	base = filenameChars.ReplaceAllString(base, "")
	base = filenameSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "document"
	}

	if ext = filenameChars.ReplaceAllString(strings.TrimPrefix(ext, "."), ""); ext != "" {
		return base + "." + ext
	}
	return base
}

// DefaultPrompt returns the instruction used when the caller gives none
func (s *Service) DefaultPrompt() string {
	return scanning.DefaultPrompt
}

// ExtractText runs OCR over an uploaded document
func (s *Service) ExtractText(ctx context.Context, data []byte, contentType string) (string, error) {
	if s.ocr == nil {
		return "", ErrOCRDisabled
	}

	img, err := scanning.ConvertToPNG(data, contentType)
	if err != nil {
		return "", fmt.Errorf("converting document: %w", err)
	}

	text, err := s.ocr.ExtractText(ctx, img)
	if err != nil {
		return "", fmt.Errorf("extracting text: %w", err)
	}
	return text, nil
}

// ProcessDocument stores an uploaded document, analyzes it and records the
// result in the history. A blank prompt uses the default prompt.
func (s *Service) ProcessDocument(ctx context.Context, filename string, data []byte, contentType, prompt string) (*Analysis, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	if strings.TrimSpace(prompt) == "" {
		prompt = scanning.DefaultPrompt
	}

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w: %w", ErrStorage, err)
	}

	fail := func(step string, err error) (*Analysis, error) {
		slog.Error("Failed to analyze document",
			"step", step,
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		if delErr := s.storage.Delete(savedPath); delErr != nil {
			slog.Warn("Failed to clean up file", "filename", savedPath, "error", delErr)
		}
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	var extracted string
	if s.ocr != nil {
		extracted, err = s.ExtractText(ctx, data, contentType)
		if err != nil {
			return fail("reading document", err)
		}
	}

	img, err := scanning.PrepareForAnalysis(data, contentType, s.maxImageSize)
	if err != nil {
		return fail("preparing image", err)
	}

	text, err := s.analyzer.Analyze(ctx, img, prompt)
	if err != nil {
		return fail("analyzing document", err)
	}

	set := s.extractor.Extract(text)

	analysis := &Analysis{
		ID:            id,
		Filename:      savedPath,
		ContentType:   contentType,
		Prompt:        prompt,
		ExtractedText: extracted,
		Text:          text,
		Metrics:       set,
		Summary:       metrics.FormatSummary(set),
		CreatedAt:     now,
	}

	if err := s.db.SaveAnalysis(analysis); err != nil {
		return fail("saving analysis", fmt.Errorf("%w: %w", ErrStorage, err))
	}

	slog.Info("Analyzed document", "id", id, "filename", filename, "metrics", set.Len())
	return analysis, nil
}

// GetAnalysis retrieves an analysis by ID
func (s *Service) GetAnalysis(id string) (*Analysis, error) {
	analysis, err := s.db.GetAnalysis(id)
	if err != nil {
		return nil, fmt.Errorf("getting analysis: %w", err)
	}
	return analysis, nil
}

// ListAnalyses returns the analysis history, oldest first
func (s *Service) ListAnalyses() ([]*Analysis, error) {
	analyses, err := s.db.ListAnalyses()
	if err != nil {
		return nil, fmt.Errorf("listing analyses: %w", err)
	}
	return analyses, nil
}

// DeleteAnalysis removes an analysis and its file
func (s *Service) DeleteAnalysis(id string) error {
	analysis, err := s.db.GetAnalysis(id)
	if err != nil {
		return fmt.Errorf("getting analysis for deletion: %w", err)
	}

	if err := s.storage.Delete(analysis.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete file", "filename", analysis.Filename, "error", err)
	}

	if err := s.db.DeleteAnalysis(id); err != nil {
		return fmt.Errorf("deleting analysis from database: %w", err)
	}
	return nil
}

// GetAnalysisFile retrieves the uploaded document for an analysis
func (s *Service) GetAnalysisFile(id string) ([]byte, string, error) {
	analysis, err := s.db.GetAnalysis(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting analysis: %w", err)
	}

	data, err := s.storage.Get(analysis.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting analysis file: %w", err)
	}

	return data, analysis.ContentType, nil
}
