package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/expense-tracker/internal/ocr"
	"github.com/zombor/expense-tracker/internal/receipt"
	"github.com/zombor/expense-tracker/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("expense-tracker")
	var (
		port           = fs.IntLong("port", 5000, "HTTP server port")
		dbPath         = fs.StringLong("db", "expense-tracker.db", "Database file path")
		storagePath    = fs.StringLong("storage", "./uploads", "Directory for uploaded receipt images")
		structurerType = fs.StringLong("structurer", "gemini", "Structuring model: 'gemini' or 'ollama'")
		geminiKey      = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel    = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL      = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel    = fs.StringLong("ollama-model", "llama3.1", "Ollama model name")
		tesseractBin   = fs.StringLong("tesseract", "tesseract", "Tesseract binary name or path")
		ocrLang        = fs.StringLong("ocr-lang", "eng", "Tesseract language(s), e.g. eng or eng+deu")
		ocrPSM         = fs.IntLong("ocr-psm", 0, "Tesseract page segmentation mode (0 keeps the default)")
		tessdataDir    = fs.StringLong("tessdata-dir", "", "Tesseract tessdata directory (optional)")
		ocrTimeout     = fs.DurationLong("ocr-timeout", 60*time.Second, "Time limit for reading one image")
		aiTimeout      = fs.DurationLong("ai-timeout", 120*time.Second, "Time limit for one structuring call")
		authUser       = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass       = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion    = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("EXPENSE_TRACKER"),
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

	// Initialize database
	slog.Info("Initializing database...", "path", *dbPath)
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize structurer based on type
	var structurer scanning.Structurer
	switch *structurerType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini structurer...", "model", *geminiModel)
		structurer, err = scanning.NewGemini(apiKey, *geminiModel, *aiTimeout)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama structurer...", "url", *ollamaURL, "model", *ollamaModel)
		structurer, err = scanning.NewOllama(*ollamaURL, *ollamaModel, *aiTimeout)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid structurer type", "type", *structurerType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer structurer.Close()

	// Initialize OCR
	slog.Info("Initializing OCR...", "binary", *tesseractBin, "lang", *ocrLang)
	extractor := ocr.NewTesseract(ocr.Config{
		Binary:      *tesseractBin,
		Language:    *ocrLang,
		PSM:         *ocrPSM,
		TessdataDir: *tessdataDir,
		Timeout:     *ocrTimeout,
	})

	// Initialize storage
	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	// Initialize service
	receiptService := receipt.NewService(db, extractor, structurer, store)

	// Initialize server
	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(receiptService, basicAuth)

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
