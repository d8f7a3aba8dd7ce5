package receipt

import (
	"slices"
	"time"
)

// MonthlyTotal is the spend of one calendar month
type MonthlyTotal struct {
	Month        string  `json:"month"` // YYYY-MM
	Label        string  `json:"label"` // e.g. "Jan 2024"
	Amount       float64 `json:"amount"`
	ReceiptCount int     `json:"receiptCount"`
}

// SpendSummary groups receipt totals by the month of the receipt date
type SpendSummary struct {
	Months     []MonthlyTotal `json:"months"`
	TotalSpent float64        `json:"totalSpent"`
}

// MonthlySpend sums receipt totals per month, oldest month first
func (s *Service) MonthlySpend() (*SpendSummary, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, newError(KindPersistence, "Failed to fetch receipts", err)
	}

	byMonth := make(map[string]*MonthlyTotal)
	summary := &SpendSummary{Months: make([]MonthlyTotal, 0)}
	for _, r := range receipts {
		key := r.Date.Format("2006-01")
		m, ok := byMonth[key]
		if !ok {
			month := time.Date(r.Date.Year(), r.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
			m = &MonthlyTotal{Month: key, Label: month.Format("Jan 2006")}
			byMonth[key] = m
		}
		m.Amount += r.TotalAmount
		m.ReceiptCount++
		summary.TotalSpent += r.TotalAmount
	}

	for _, m := range byMonth {
		summary.Months = append(summary.Months, *m)
	}
	slices.SortFunc(summary.Months, func(a, b MonthlyTotal) int {
		switch {
		case a.Month < b.Month:
			return -1
		case a.Month > b.Month:
			return 1
		}
		return 0
	})

	return summary, nil
}
