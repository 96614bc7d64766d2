package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Tesseract implements TextExtractor by running the tesseract command line tool
type Tesseract struct {
	path     string
	language string
	timeout  time.Duration

	checkOnce sync.Once
	checkErr  error
}

// NewTesseract creates a Tesseract extractor and verifies the binary can be run.
// path defaults to "tesseract" on PATH and language to "eng".
func NewTesseract(path, language string) (*Tesseract, error) {
	if path == "" {
		path = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	t := &Tesseract{
		path:     path,
		language: language,
		timeout:  60 * time.Second,
	}
	if err := t.Check(); err != nil {
		return nil, err
	}
	return t, nil
}

// Check runs `tesseract --version` once and caches the outcome
func (t *Tesseract) Check() error {
	t.checkOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := exec.CommandContext(ctx, t.path, "--version").Run(); err != nil {
			t.checkErr = fmt.Errorf("%w: running %s --version: %v\n%s", ErrEngineUnavailable, t.path, err, installHint(runtime.GOOS))
		}
	})
	return t.checkErr
}

// ExtractText pipes the image through tesseract and returns its stdout
func (t *Tesseract) ExtractText(ctx context.Context, image []byte) (string, error) {
	if err := t.Check(); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, t.path, "stdin", "stdout", "-l", t.language)
	cmd.Stdin = bytes.NewReader(image)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return "", fmt.Errorf("running tesseract: %w", err)
		}
		return "", fmt.Errorf("running tesseract: %w: %s", err, msg)
	}

	return stdout.String(), nil
}

// installHint explains how to install tesseract on the given platform
func installHint(goos string) string {
	switch goos {
	case "windows":
		return "Tesseract is not installed or not in PATH. Please:\n" +
			"1. Download Tesseract from: https://github.com/UB-Mannheim/tesseract/wiki\n" +
			"2. Run the installer and check 'Add to system PATH'\n" +
			"3. Or pass the full path with --tesseract (e.g. C:\\Program Files\\Tesseract-OCR\\tesseract.exe)"
	case "linux":
		return "Tesseract is not installed. Please install it using:\n" +
			"sudo apt-get update\n" +
			"sudo apt-get install tesseract-ocr"
	case "darwin":
		return "Tesseract is not installed. Please install it using:\n" +
			"brew install tesseract"
	default:
		return "Tesseract is not installed or not in PATH"
	}
}
