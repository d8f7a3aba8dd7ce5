package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// preparePath returns a path tesseract can read. HEIC/HEIF images and PDFs
// are rendered to a temporary PNG; the returned cleanup func removes it.
// Everything else is handed to tesseract untouched.
func preparePath(path string) (string, func(), error) {
	noop := func() {}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", noop, fmt.Errorf("reading image: %w", err)
	}

	var img image.Image
	switch {
	case isPDF(data):
		img, err = pdfFirstPage(data)
		if err != nil {
			return "", noop, fmt.Errorf("converting PDF to image: %w", err)
		}
	case isHEICFormat(data) || isHEICExtension(path):
		// Pure Go decoder; tesseract's leptonica has no HEIC support
		img, err = heic.Decode(bytes.NewReader(data))
		if err != nil {
			return "", noop, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	default:
		return path, noop, nil
	}

	tmp, err := os.CreateTemp("", "ocr-*.png")
	if err != nil {
		return "", noop, fmt.Errorf("creating temp image: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		cleanup()
		return "", noop, fmt.Errorf("encoding PNG: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", noop, fmt.Errorf("closing temp image: %w", err)
	}

	return tmp.Name(), cleanup, nil
}

// pdfFirstPage renders the first page of a PDF. Receipts are single page.
func pdfFirstPage(data []byte) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}
	return img, nil
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF"))
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heix", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".heic" || ext == ".heif"
}
