package receipt

import (
	"log/slog"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/scanning"
)

// Assemble builds a Receipt from a normalized extraction. It never fails:
// prices that cannot be read become 0 and bad quantities become 1. The
// reported total is kept even when it differs from the item sum.
func Assemble(parsed *scanning.ParsedExtraction, id, filename, contentType string, ids IDGenerator, now time.Time) *Receipt {
	items := make([]Item, 0, len(parsed.Items))
	for _, p := range parsed.Items {
		price, ok := scanning.Amount(p.Price)
		if !ok {
			slog.Warn("Unreadable item price, using 0", "receipt_id", id, "item", p.Name, "price", p.Price)
		}
		items = append(items, Item{
			ID:       ids.Generate(),
			Name:     strings.TrimSpace(p.Name),
			Price:    price,
			Quantity: scanning.Quantity(p.Quantity),
		})
	}

	date, err := time.Parse("2006-01-02", parsed.Date)
	if err != nil {
		date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	return &Receipt{
		ID:          id,
		StoreName:   parsed.StoreName,
		Date:        date,
		Items:       items,
		TotalAmount: parsed.TotalAmount,
		ImageURL:    imageURL(filename),
		Filename:    filename,
		ContentType: contentType,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// imageURL is where the server exposes a stored upload
func imageURL(filename string) string {
	return "/uploads/" + filename
}
