package scanning

import (
	"context"
	"errors"
)

var (
	// ErrMalformedResponse means the model output is not JSON after fence stripping
	ErrMalformedResponse = errors.New("model response is not valid JSON")

	// ErrNoItems means the model output parsed but carries no usable items list
	ErrNoItems = errors.New("no items found in model response")
)

// ParsedItem is one line item as the model reported it. Price and Quantity
// keep the decoded JSON value (number, string or nil) so the caller decides
// how to coerce them.
type ParsedItem struct {
	Name     string `json:"name"`
	Price    any    `json:"price"`
	Quantity any    `json:"quantity"`
}

// ParsedExtraction is the normalized model output with defaults applied
type ParsedExtraction struct {
	StoreName   string       `json:"storeName"`
	Date        string       `json:"date"` // YYYY-MM-DD
	Items       []ParsedItem `json:"items"`
	TotalAmount float64      `json:"totalAmount"`
}

// Structurer turns raw OCR text into the model's unvalidated output
type Structurer interface {
	// Structure sends the receipt prompt for rawText and returns the model text as-is
	Structure(ctx context.Context, rawText string) (string, error)
	// Close releases the underlying client
	Close() error
}
