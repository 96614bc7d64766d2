package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/fin-scanner/internal/analysis"
	"github.com/zombor/fin-scanner/internal/metrics"
	"github.com/zombor/fin-scanner/internal/ocr"
	"github.com/zombor/fin-scanner/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

// keyOrEnv returns the flag value, falling back to an environment variable
func keyOrEnv(flagValue, envVar string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(envVar)
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("fin-scanner")
	var (
		port           = fs.IntLong("port", 8080, "HTTP server port")
		dbPath         = fs.StringLong("db", "", "History database file path (empty keeps the history in memory)")
		storagePath    = fs.StringLong("storage", "./documents", "Storage directory path")
		analyzerType   = fs.StringLong("analyzer", "groq", "Analyzer type: 'groq', 'gemini', 'ollama' or 'anthropic'")
		groqKey        = fs.StringLong("groq-key", "", "Groq API key (or set GROQ_API_KEY env var)")
		groqModel      = fs.StringLong("groq-model", scanning.DefaultGroqModel, "Groq model name")
		groqURL        = fs.StringLong("groq-url", scanning.DefaultGroqBaseURL, "Groq OpenAI-compatible API base URL")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", scanning.DefaultOllamaModel, "Ollama model name (e.g., llama3.2-vision, llava, qwen2-vl)")
		anthropicKey   = fs.StringLong("anthropic-key", "", "Anthropic API key (or set ANTHROPIC_API_KEY env var)")
		anthropicModel = fs.StringLong("anthropic-model", "", "Anthropic model name (empty uses the default)")
		ocrEnabled     = fs.BoolLong("ocr", "Extract document text with tesseract")
		tesseractPath  = fs.StringLong("tesseract", "tesseract", "Path to the tesseract binary")
		ocrLang        = fs.StringLong("ocr-lang", "eng", "Tesseract language")
		labelMode      = fs.StringLong("label-resolution", "nearest", "Metric label resolution: 'nearest' or 'table'")
		maxImageSize   = fs.IntLong("max-image-size", scanning.DefaultMaxImageSize, "Longest side in pixels of images sent to the model")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("FIN_SCANNER"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	// Initialize history
	var db analysis.DB
	if *dbPath == "" {
		slog.Info("Keeping analysis history in memory")
		db = analysis.NewMemoryDB()
	} else {
		slog.Info("Initializing database...", "path", *dbPath)
		boltDB, err := analysis.NewBoltDB(*dbPath)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
		db = boltDB
	}
	defer db.Close()

	// Initialize analyzer based on type
	var (
		analyzer scanning.Analyzer
		err      error
	)
	switch *analyzerType {
	case "groq":
		apiKey := keyOrEnv(*groqKey, "GROQ_API_KEY")
		if apiKey == "" {
			slog.Error("Groq API key is required. Set --groq-key flag or GROQ_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Groq analyzer...", "model", *groqModel, "url", *groqURL)
		analyzer, err = scanning.NewGroq(apiKey, *groqModel, *groqURL)
		if err != nil {
			slog.Error("Failed to initialize Groq", "error", err)
			os.Exit(1)
		}
	case "gemini":
		apiKey := keyOrEnv(*geminiKey, "GEMINI_API_KEY")
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini analyzer...", "model", *geminiModel)
		analyzer, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama analyzer...", "url", *ollamaURL, "model", *ollamaModel)
		analyzer, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	case "anthropic":
		apiKey := keyOrEnv(*anthropicKey, "ANTHROPIC_API_KEY")
		if apiKey == "" {
			slog.Error("Anthropic API key is required. Set --anthropic-key flag or ANTHROPIC_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Anthropic analyzer...", "model", *anthropicModel)
		analyzer, err = scanning.NewAnthropic(apiKey, *anthropicModel)
		if err != nil {
			slog.Error("Failed to initialize Anthropic", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid analyzer type", "type", *analyzerType, "valid", "groq, gemini, ollama or anthropic")
		os.Exit(1)
	}
	defer analyzer.Close()

	// Initialize OCR
	var textExtractor ocr.TextExtractor
	if *ocrEnabled {
		slog.Info("Initializing tesseract...", "path", *tesseractPath, "lang", *ocrLang)
		tesseract, err := ocr.NewTesseract(*tesseractPath, *ocrLang)
		if err != nil {
			// Analysis still works without OCR text
			slog.Warn("Text extraction unavailable", "error", err)
		} else {
			textExtractor = tesseract
		}
	}

	// Initialize metric extraction
	var resolver metrics.Resolver
	switch *labelMode {
	case "nearest":
		resolver = metrics.ResolveNearest
	case "table":
		resolver = metrics.ResolveTableOrder
	default:
		slog.Error("Invalid label resolution", "mode", *labelMode, "valid", "nearest or table")
		os.Exit(1)
	}

	// Initialize storage
	slog.Info("Initializing storage...")
	store, err := analysis.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	analysisService := analysis.NewService(db, analyzer, textExtractor, store,
		analysis.WithExtractor(metrics.NewExtractor(metrics.WithResolver(resolver))),
		analysis.WithMaxImageSize(*maxImageSize),
	)

	// Initialize server
	basicAuth := analysis.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := analysis.NewServer(analysisService, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
