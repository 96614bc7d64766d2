package ocr

import (
	"context"
	"errors"
)

// ErrEngineUnavailable is returned when the OCR engine cannot be run
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

// TextExtractor defines the interface for optical character recognition
type TextExtractor interface {
	// ExtractText returns the raw text recognized in an image
	ExtractText(ctx context.Context, image []byte) (string, error)
}
