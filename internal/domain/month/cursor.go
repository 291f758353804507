// Package month provides the navigable (year, month) pair that selects
// which slice of the ledger is aggregated.
package month

import (
	"fmt"
	"time"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
)

// Cursor is a calendar month. Month is zero-based: 0 is January, 11 is December.
type Cursor struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// New returns a normalized cursor. Out-of-range months roll into the
// neighbouring years, so New(2024, 12) is January 2025.
func New(year, month int) Cursor {
	year += month / 12
	month %= 12
	if month < 0 {
		month += 12
		year--
	}
	return Cursor{Year: year, Month: month}
}

// Of returns the cursor for the month containing t, in t's location.
func Of(t time.Time) Cursor {
	return Cursor{Year: t.Year(), Month: int(t.Month()) - 1}
}

// FromDate returns the cursor for a YYYY-MM-DD receipt date.
func FromDate(date string) (Cursor, error) {
	t, err := entity.ParseDate(date)
	if err != nil {
		return Cursor{}, err
	}
	return Of(t), nil
}

// Parse reads a YYYY-MM month key.
func Parse(s string) (Cursor, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid month %q, want YYYY-MM", s)
	}
	return Of(t), nil
}

// Next returns the following month.
func (c Cursor) Next() Cursor {
	return c.Shift(1)
}

// Previous returns the preceding month.
func (c Cursor) Previous() Cursor {
	return c.Shift(-1)
}

// Shift moves the cursor by n months, in either direction.
func (c Cursor) Shift(n int) Cursor {
	return New(c.Year, c.Month+n)
}

// Contains reports whether the receipt date falls in this month.
// Unparseable dates belong to no month.
func (c Cursor) Contains(date string) bool {
	t, err := entity.ParseDate(date)
	if err != nil {
		return false
	}
	return t.Year() == c.Year && int(t.Month())-1 == c.Month
}

// Start returns the first day of the month at midnight UTC.
func (c Cursor) Start() time.Time {
	return time.Date(c.Year, time.Month(c.Month+1), 1, 0, 0, 0, 0, time.UTC)
}

// Key renders the month as YYYY-MM.
func (c Cursor) Key() string {
	return fmt.Sprintf("%04d-%02d", c.Year, c.Month+1)
}

// Label renders the month for people, e.g. "May 2024".
func (c Cursor) Label() string {
	return c.Start().Format("January 2006")
}

func (c Cursor) String() string {
	return c.Key()
}

// Before reports whether c is an earlier month than other.
func (c Cursor) Before(other Cursor) bool {
	if c.Year != other.Year {
		return c.Year < other.Year
	}
	return c.Month < other.Month
}
