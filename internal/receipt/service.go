package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/expense-tracker/internal/ocr"
	"github.com/zombor/expense-tracker/internal/scanning"
)

// IDGenerator generates unique IDs for receipts and items
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles receipt operations
type Service struct {
	db          DB
	extractor   ocr.Extractor
	structurer  scanning.Structurer
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with UUIDs and the wall clock
func NewService(db DB, extractor ocr.Extractor, structurer scanning.Structurer, storage Storage) *Service {
	return NewServiceWithDeps(db, extractor, structurer, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor ocr.Extractor, structurer scanning.Structurer, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		structurer:  structurer,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	// Phone cameras produce long names
	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// ParseReceipt stores an uploaded image, reads it with OCR, has the model
// structure the text and saves the resulting receipt. Each failing step
// returns an *Error with its own kind; nothing is retried and a stored image
// is kept even when a later step fails.
func (s *Service) ParseReceipt(ctx context.Context, upload *Upload) (*ParseResult, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, newError(KindNoFileProvided, "No image file uploaded", nil)
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedName, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(upload.Filename)), upload.Data)
	if err != nil {
		return nil, newError(KindPersistence, "Failed to store uploaded image", err)
	}
	slog.Info("Processing receipt", "id", id, "file", savedName, "size", len(upload.Data))

	text, err := s.extractor.Extract(ctx, s.storage.Path(savedName))
	if err != nil {
		slog.Error("Failed to extract text", "id", id, "file", savedName, "error", err)
		return nil, newError(KindExtraction, "Failed to read text from receipt image", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, newError(KindNoTextFound, "Could not extract text from receipt image", nil)
	}
	slog.Debug("Extracted text", "id", id, "text", text)

	output, err := s.structurer.Structure(ctx, text)
	if err != nil {
		slog.Error("Structuring service failed", "id", id, "error", err)
		return nil, newError(KindStructuringService, "Failed to parse receipt with AI", err)
	}
	slog.Debug("Model response", "id", id, "response", output)

	parsed, err := scanning.Normalize(output, now)
	switch {
	case errors.Is(err, scanning.ErrMalformedResponse):
		slog.Error("Model returned invalid JSON", "id", id, "response", output, "error", err)
		e := newError(KindMalformedResponse, "Failed to parse AI response", err)
		e.RawResponse = output
		return nil, e
	case errors.Is(err, scanning.ErrNoItems):
		e := newError(KindNoItemsExtracted, "No items found in receipt", err)
		e.ExtractedText = text
		e.RawResponse = output
		return nil, e
	case err != nil:
		return nil, newError(KindMalformedResponse, "Failed to parse AI response", err)
	}

	receipt := Assemble(parsed, id, savedName, upload.ContentType, s.idGenerator, now)

	if err := s.db.SaveReceipt(receipt); err != nil {
		slog.Error("Failed to save receipt", "id", id, "error", err)
		return nil, newError(KindPersistence, "Failed to save receipt", err)
	}

	slog.Info("Receipt saved", "id", id, "store", receipt.StoreName, "items", len(receipt.Items), "total", receipt.TotalAmount)

	return &ParseResult{
		Receipt:       receipt,
		ExtractedText: text,
		Parsed:        parsed,
	}, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, lookupError(err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts, newest first
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, newError(KindPersistence, "Failed to fetch receipts", err)
	}
	slices.SortStableFunc(receipts, func(a, b *Receipt) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return receipts, nil
}

// DeleteReceipt removes a receipt and its file
func (s *Service) DeleteReceipt(id string) error {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return lookupError(err)
	}

	if receipt.Filename != "" {
		if err := s.storage.Delete(receipt.Filename); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete file", "filename", receipt.Filename, "error", err)
		}
	}

	if err := s.db.DeleteReceipt(id); err != nil {
		return lookupError(err)
	}
	return nil
}

// GetReceiptFile retrieves the stored image for a receipt
func (s *Service) GetReceiptFile(id string) ([]byte, string, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, "", lookupError(err)
	}

	data, err := s.storage.Get(receipt.Filename)
	if err != nil {
		return nil, "", newError(KindNotFound, "Receipt image not found", err)
	}

	return data, receipt.ContentType, nil
}

// GetUpload retrieves a stored image by its stored name
func (s *Service) GetUpload(name string) ([]byte, error) {
	data, err := s.storage.Get(name)
	if err != nil {
		return nil, newError(KindNotFound, "File not found", err)
	}
	return data, nil
}

// lookupError maps datastore lookup failures to NotFound or Persistence errors
func lookupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return newError(KindNotFound, "Receipt not found", err)
	}
	return newError(KindPersistence, "Failed to load receipt", err)
}
