package receipt

import (
	"time"

	"github.com/zombor/expense-tracker/internal/scanning"
)

// Item is one purchased line on a receipt
type Item struct {
	ID       string  `json:"id" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity" validate:"gte=1"`
}

// Receipt represents a scanned receipt with its line items
type Receipt struct {
	ID          string    `json:"id" validate:"required"`
	StoreName   string    `json:"storeName"`
	Date        time.Time `json:"date"`
	Items       []Item    `json:"items" validate:"dive"`
	TotalAmount float64   `json:"totalAmount"`
	ImageURL    string    `json:"imageUrl"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// recomputeTotal sets TotalAmount to the sum of price times quantity
func (r *Receipt) recomputeTotal() {
	var total float64
	for _, item := range r.Items {
		total += item.Price * float64(item.Quantity)
	}
	r.TotalAmount = total
}

// ParseResult is what a successful upload returns: the saved receipt plus
// the intermediate OCR text and model data for display and debugging
type ParseResult struct {
	Receipt       *Receipt                   `json:"receipt"`
	ExtractedText string                     `json:"extractedText"`
	Parsed        *scanning.ParsedExtraction `json:"aiParsedData"`
}

// Upload is an uploaded receipt image
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}
