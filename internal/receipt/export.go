package receipt

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	receiptsSheet = "Receipts"
	itemsSheet    = "Items"
)

// ExportXLSX renders all receipts as a workbook with one sheet of receipts
// and one sheet of line items, newest receipts first
func (s *Service) ExportXLSX() ([]byte, error) {
	start := time.Now()

	receipts, err := s.ListReceipts()
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", receiptsSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	receiptRows := [][]any{{"Date", "Store", "Items", "Total", "Image", "Receipt ID"}}
	itemRows := [][]any{{"Receipt ID", "Date", "Store", "Item", "Price", "Quantity", "Line Total"}}
	for _, r := range receipts {
		date := r.Date.Format("2006-01-02")
		receiptRows = append(receiptRows, []any{date, r.StoreName, len(r.Items), r.TotalAmount, r.ImageURL, r.ID})
		for _, item := range r.Items {
			itemRows = append(itemRows, []any{r.ID, date, r.StoreName, item.Name, item.Price, item.Quantity, item.Price * float64(item.Quantity)})
		}
	}

	if err := writeRows(f, receiptsSheet, receiptRows); err != nil {
		return nil, err
	}
	if err := writeRows(f, itemsSheet, itemRows); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(receiptsSheet, "A", "A", 12)
	_ = f.SetColWidth(receiptsSheet, "B", "B", 28)
	_ = f.SetColWidth(receiptsSheet, "E", "F", 40)
	_ = f.SetColWidth(itemsSheet, "A", "A", 38)
	_ = f.SetColWidth(itemsSheet, "C", "D", 28)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	slog.Info("Exported receipts", "receipts", len(receipts), "rows", len(itemRows)-1, "duration", time.Since(start))
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
