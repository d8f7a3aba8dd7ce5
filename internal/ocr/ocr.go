// Package ocr turns receipt images into raw text with the tesseract engine.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// Extractor produces the raw recognized text of an image file
type Extractor interface {
	Extract(ctx context.Context, imagePath string) (string, error)
}

// Config controls how tesseract is invoked
type Config struct {
	Binary      string        // binary name or absolute path, default "tesseract"
	Language    string        // default "eng"
	PSM         int           // page segmentation mode, 0 leaves tesseract's default
	TessdataDir string        // optional --tessdata-dir
	Timeout     time.Duration // per image, 0 means no limit beyond the caller's context
}

// Tesseract implements Extractor by shelling out to the tesseract CLI
type Tesseract struct {
	cfg    Config
	runner Runner
}

// NewTesseract creates a Tesseract extractor that runs the real binary
func NewTesseract(cfg Config) *Tesseract {
	return NewTesseractWithRunner(cfg, execRunner{})
}

// NewTesseractWithRunner creates a Tesseract extractor with a custom command runner for testing
func NewTesseractWithRunner(cfg Config, runner Runner) *Tesseract {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Tesseract{cfg: cfg, runner: runner}
}

// Extract runs OCR over the image at imagePath and returns the text as recognized.
// Empty output is not an error here.
func (t *Tesseract) Extract(ctx context.Context, imagePath string) (string, error) {
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	path, cleanup, err := preparePath(imagePath)
	if err != nil {
		return "", err
	}
	defer cleanup()

	start := time.Now()
	stdout, stderr, err := t.runner.Run(ctx, t.cfg.Binary, t.args(path)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (stderr: %s)", err, strings.TrimSpace(string(stderr)))
	}

	// tesseract reports progress and warnings on stderr
	for _, line := range strings.Split(strings.TrimSpace(string(stderr)), "\n") {
		if line != "" {
			slog.Debug("tesseract", "image", imagePath, "message", line)
		}
	}
	slog.Info("OCR finished", "image", imagePath, "chars", len(stdout), "duration", time.Since(start))

	return string(stdout), nil
}

// args builds: tesseract <path> stdout -l <lang> [--psm N] [--tessdata-dir D]
func (t *Tesseract) args(path string) []string {
	args := []string{path, "stdout", "-l", t.cfg.Language}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}
