package scanning

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultStoreName is used when the model reports no store
const DefaultStoreName = "Unknown Store"

const dateLayout = "2006-01-02"

// extractionSchema only gates the items list. Everything else is defaulted.
const extractionSchema = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "object"}
    }
  }
}`

var (
	compiledSchema = jsonschema.MustCompileString("extraction.json", extractionSchema)

	openingFence = regexp.MustCompile("^```[A-Za-z0-9_+-]*")

	// Other layouts seen on receipts, normalized to YYYY-MM-DD
	dateLayouts = []string{
		dateLayout,
		time.RFC3339,
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
		"02.01.2006",
	}
)

// StripFences removes a leading markdown code fence (bare or language-tagged),
// a trailing fence and surrounding whitespace. Clean JSON is returned unchanged.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	text = openingFence.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// Normalize parses model output into a ParsedExtraction. It fails with
// ErrMalformedResponse when the text is not JSON and with ErrNoItems when
// there is no non-empty items list. Defaults are applied afterwards, with
// today standing in for a missing date.
func Normalize(output string, today time.Time) (*ParsedExtraction, error) {
	text := StripFences(output)

	var doc any
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoItems, err)
	}

	// The schema guarantees an object with a non-empty list of objects
	obj := doc.(map[string]any)
	rawItems := obj["items"].([]any)

	parsed := &ParsedExtraction{
		StoreName: strings.TrimSpace(stringValue(obj["storeName"])),
		Date:      normalizeDate(stringValue(obj["date"]), today),
		Items:     make([]ParsedItem, 0, len(rawItems)),
	}
	if parsed.StoreName == "" {
		parsed.StoreName = DefaultStoreName
	}

	for _, raw := range rawItems {
		fields := raw.(map[string]any)
		item := ParsedItem{
			Name:     strings.TrimSpace(scalarString(fields["name"])),
			Price:    fields["price"],
			Quantity: fields["quantity"],
		}
		if item.Quantity == nil {
			item.Quantity = float64(1)
		}
		parsed.Items = append(parsed.Items, item)
	}

	// A zero or unreadable total is treated as absent
	if total, ok := Amount(obj["totalAmount"]); ok && total != 0 {
		parsed.TotalAmount = total
	} else {
		parsed.TotalAmount = ItemsTotal(parsed.Items)
	}

	return parsed, nil
}

// ItemsTotal sums price times quantity. Prices that cannot be read count as 0.
func ItemsTotal(items []ParsedItem) float64 {
	var total float64
	for _, item := range items {
		price, _ := Amount(item.Price)
		total += price * float64(Quantity(item.Quantity))
	}
	return total
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// scalarString formats numbers and booleans as text; nil and objects give ""
func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool, json.Number:
		return fmt.Sprint(t)
	}
	return ""
}

// normalizeDate returns the date as YYYY-MM-DD, or today if it is empty or unreadable
func normalizeDate(value string, today time.Time) string {
	value = strings.TrimSpace(value)
	if value != "" {
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, value); err == nil {
				return d.Format(dateLayout)
			}
		}
	}
	return today.Format(dateLayout)
}
