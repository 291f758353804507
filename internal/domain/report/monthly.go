// Package report aggregates ledger entries per calendar month. Everything
// here is a pure function of its inputs.
package report

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/month"
)

// MonthlySummary is everything the summary card needs for one month.
type MonthlySummary struct {
	Month         month.Cursor     `json:"month"`
	Entries       []entity.Expense `json:"entries"`
	Total         decimal.Decimal  `json:"total"`
	PreviousTotal decimal.Decimal  `json:"previousTotal"`
	Trend         Trend            `json:"trend"`
}

// Count returns the number of entries in the month.
func (s MonthlySummary) Count() int {
	return len(s.Entries)
}

// MonthlyView returns the entries whose recorded date falls in the month,
// newest date first. Entries sharing a date keep ledger order, which is
// most recently created first. The ledger slice is not modified.
func MonthlyView(ledger []entity.Expense, c month.Cursor) []entity.Expense {
	view := make([]entity.Expense, 0)
	for _, e := range ledger {
		if c.Contains(e.Date) {
			view = append(view, e)
		}
	}
	// YYYY-MM-DD sorts lexically in calendar order.
	sort.SliceStable(view, func(i, j int) bool {
		return view[i].Date > view[j].Date
	})
	return view
}

// Total sums the amounts of the given entries without float drift.
func Total(entries []entity.Expense) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(decimal.NewFromFloat(e.Amount))
	}
	return sum
}

// Summarize builds the summary for c, comparing against the month before it.
func Summarize(ledger []entity.Expense, c month.Cursor) MonthlySummary {
	view := MonthlyView(ledger, c)
	total := Total(view)
	previous := Total(MonthlyView(ledger, c.Previous()))

	return MonthlySummary{
		Month:         c,
		Entries:       view,
		Total:         total,
		PreviousTotal: previous,
		Trend:         CompareTotals(total, previous),
	}
}
