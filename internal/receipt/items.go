package receipt

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ItemInput is a new or replacement line item
type ItemInput struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name" validate:"required"`
	Price    *float64 `json:"price" validate:"required"`
	Quantity *int     `json:"quantity" validate:"omitnil,gte=1"`
}

// ItemPatch changes only the fields that are set
type ItemPatch struct {
	Name     *string  `json:"name" validate:"omitnil,min=1"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity" validate:"omitnil,gte=1"`
}

// ReceiptUpdate replaces only the fields that are set. The total is taken as
// given and not recomputed from the items.
type ReceiptUpdate struct {
	StoreName   *string      `json:"storeName"`
	Date        *string      `json:"date"`
	Items       *[]ItemInput `json:"items" validate:"omitnil,dive"`
	TotalAmount *float64     `json:"totalAmount"`
}

// UpdateReceipt applies a whole-record update
func (s *Service) UpdateReceipt(id string, update ReceiptUpdate) (*Receipt, error) {
	if err := validate.Struct(update); err != nil {
		return nil, newError(KindInvalidInput, "Invalid receipt update", err)
	}

	var date time.Time
	if update.Date != nil {
		var err error
		if date, err = parseDate(*update.Date); err != nil {
			return nil, newError(KindInvalidInput, "Invalid receipt date", err)
		}
	}
	if update.Items != nil {
		if err := uniqueItemIDs(*update.Items); err != nil {
			return nil, newError(KindInvalidInput, "Duplicate item ID", err)
		}
	}

	return s.modify(id, func(receipt *Receipt) error {
		if update.StoreName != nil {
			receipt.StoreName = strings.TrimSpace(*update.StoreName)
		}
		if update.Date != nil {
			receipt.Date = date
		}
		if update.Items != nil {
			items := make([]Item, 0, len(*update.Items))
			for _, in := range *update.Items {
				items = append(items, s.newItem(in))
			}
			receipt.Items = items
		}
		if update.TotalAmount != nil {
			receipt.TotalAmount = *update.TotalAmount
		}
		return nil
	})
}

// AddItem appends an item and recomputes the total from all items
func (s *Service) AddItem(receiptID string, in ItemInput) (*Receipt, error) {
	if err := validate.Struct(in); err != nil {
		return nil, newError(KindInvalidInput, "Invalid item", err)
	}

	in.ID = ""
	return s.modify(receiptID, func(receipt *Receipt) error {
		receipt.Items = append(receipt.Items, s.newItem(in))
		receipt.recomputeTotal()
		return nil
	})
}

// UpdateItem patches one item and recomputes the total from all items
func (s *Service) UpdateItem(receiptID, itemID string, patch ItemPatch) (*Receipt, error) {
	if err := validate.Struct(patch); err != nil {
		return nil, newError(KindInvalidInput, "Invalid item", err)
	}

	return s.modify(receiptID, func(receipt *Receipt) error {
		idx := slices.IndexFunc(receipt.Items, func(item Item) bool { return item.ID == itemID })
		if idx < 0 {
			return newError(KindNotFound, "Item not found", fmt.Errorf("item %s on receipt %s", itemID, receiptID))
		}

		item := &receipt.Items[idx]
		if patch.Name != nil {
			item.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Price != nil {
			item.Price = *patch.Price
		}
		if patch.Quantity != nil {
			item.Quantity = *patch.Quantity
		}
		receipt.recomputeTotal()
		return nil
	})
}

// DeleteItem removes one item and recomputes the total from the remaining items
func (s *Service) DeleteItem(receiptID, itemID string) (*Receipt, error) {
	return s.modify(receiptID, func(receipt *Receipt) error {
		before := len(receipt.Items)
		receipt.Items = slices.DeleteFunc(receipt.Items, func(item Item) bool { return item.ID == itemID })
		if len(receipt.Items) == before {
			return newError(KindNotFound, "Item not found", fmt.Errorf("item %s on receipt %s", itemID, receiptID))
		}
		receipt.recomputeTotal()
		return nil
	})
}

// modify applies fn to a stored receipt and bumps updatedAt, all in one
// datastore transaction
func (s *Service) modify(id string, fn func(*Receipt) error) (*Receipt, error) {
	receipt, err := s.db.ModifyReceipt(id, func(r *Receipt) error {
		if err := fn(r); err != nil {
			return err
		}
		r.UpdatedAt = s.timeSource.Now()
		return nil
	})

	var e *Error
	switch {
	case err == nil:
		return receipt, nil
	case errors.As(err, &e):
		return nil, e
	case errors.Is(err, ErrNotFound):
		return nil, newError(KindNotFound, "Receipt not found", err)
	default:
		return nil, newError(KindPersistence, "Failed to save receipt", err)
	}
}

// uniqueItemIDs rejects two items carrying the same ID
func uniqueItemIDs(items []ItemInput) error {
	seen := make(map[string]bool, len(items))
	for _, in := range items {
		if in.ID == "" {
			continue
		}
		if seen[in.ID] {
			return fmt.Errorf("item %s appears more than once", in.ID)
		}
		seen[in.ID] = true
	}
	return nil
}

// newItem builds an Item from validated input, keeping a supplied ID
func (s *Service) newItem(in ItemInput) Item {
	item := Item{
		ID:       in.ID,
		Name:     strings.TrimSpace(in.Name),
		Price:    *in.Price,
		Quantity: 1,
	}
	if item.ID == "" {
		item.ID = s.idGenerator.Generate()
	}
	if in.Quantity != nil {
		item.Quantity = *in.Quantity
	}
	return item
}

// parseDate accepts a plain date or a full timestamp as browsers send it
func parseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if d, err := time.Parse("2006-01-02", value); err == nil {
		return d, nil
	}
	d, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q is not YYYY-MM-DD or RFC 3339", value)
	}
	return d, nil
}
