package analysis

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/fin-scanner/internal/metrics"
	"github.com/zombor/fin-scanner/internal/ocr"
)

// maxUploadSize bounds multipart uploads (high-resolution phone photos and scans)
const maxUploadSize = int64(50 << 20)

const tooLargeMessage = "File is too large. Maximum size is 50MB. Please compress or resize your image."

// corsError writes a plain text error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// writeJSON writes v as the response body
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// upload is a document read from a multipart form
type upload struct {
	filename    string
	contentType string
	data        []byte
}

// contentTypeFromExt guesses a MIME type from a filename
func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// readUpload reads the "file" field of a multipart request.
// On failure it writes the error response and returns false.
func readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+(1<<20))
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			jsonError(w, tooLargeMessage, http.StatusRequestEntityTooLarge)
			return nil, false
		}
		jsonError(w, "Error parsing form", http.StatusBadRequest)
		return nil, false
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		msg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			msg = "No file was selected. Please choose a financial document image to upload."
		}
		jsonError(w, msg, http.StatusBadRequest)
		return nil, false
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		jsonError(w, tooLargeMessage, http.StatusRequestEntityTooLarge)
		return nil, false
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mt
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = contentTypeFromExt(header.Filename)
	}

	return &upload{filename: header.Filename, contentType: contentType, data: data}, true
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStaticCSS serves the CSS file
func (s *Server) handleStaticCSS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/css")
	w.Write(appCSS)
}

// handleStaticJS serves the JavaScript file
func (s *Server) handleStaticJS(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(appJS)
}

// handleGetPrompt returns the default analysis prompt
func (s *Server) handleGetPrompt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"prompt": s.service.DefaultPrompt()})
}

// handleExtractText runs OCR on an upload without analyzing it
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	up, ok := readUpload(w, r)
	if !ok {
		return
	}

	text, err := s.service.ExtractText(r.Context(), up.data, up.contentType)
	if err != nil {
		slog.Error("Error extracting text", "filename", up.filename, "error", err)
		code := http.StatusBadRequest
		if errors.Is(err, ocr.ErrEngineUnavailable) || errors.Is(err, ErrOCRDisabled) {
			code = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), code)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// handleCreateAnalysis uploads a document and analyzes it
func (s *Server) handleCreateAnalysis(w http.ResponseWriter, r *http.Request) {
	up, ok := readUpload(w, r)
	if !ok {
		return
	}

	analysis, err := s.service.ProcessDocument(r.Context(), up.filename, up.data, up.contentType, r.FormValue("prompt"))
	if err != nil {
		slog.Error("Error processing document", "filename", up.filename, "error", err)
		if errors.Is(err, ErrStorage) {
			jsonError(w, "Error saving analysis", http.StatusInternalServerError)
			return
		}
		jsonError(w, "Error processing image: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, analysisResponse(analysis))
}

// analysisJSON adds the grouped summary sections to an analysis
type analysisJSON struct {
	*Analysis
	Sections []metrics.Section `json:"sections"`
}

func analysisResponse(a *Analysis) analysisJSON {
	return analysisJSON{Analysis: a, Sections: a.Sections()}
}

// handleListAnalyses returns the analysis history
func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	analyses, err := s.service.ListAnalyses()
	if err != nil {
		slog.Error("Error listing analyses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	out := make([]analysisJSON, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, analysisResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetAnalysis returns a single analysis
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.service.GetAnalysis(r.PathValue("id"))
	if err != nil {
		corsError(w, "Analysis not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse(analysis))
}

// handleGetAnalysisFile returns the uploaded document of an analysis
func (s *Server) handleGetAnalysisFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetAnalysisFile(r.PathValue("id"))
	if err != nil {
		corsError(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDownloadAnalysis serves the raw analysis text as a file
func (s *Server) handleDownloadAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := s.service.GetAnalysis(r.PathValue("id"))
	if err != nil {
		corsError(w, "Analysis not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="financial_analysis.txt"`)
	io.WriteString(w, analysis.Text)
}

// handleDeleteAnalysis deletes an analysis
func (s *Server) handleDeleteAnalysis(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteAnalysis(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Analysis not found", http.StatusNotFound)
			return
		}
		corsError(w, "Error deleting analysis", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
