package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for receipt dates.
const DateLayout = "2006-01-02"

// UnknownStore is the store name used when the receipt is illegible.
const UnknownStore = "Unknown Store"

var (
	ErrInvalidAmount = errors.New("amount must be a finite number >= 0")
	ErrInvalidDate   = errors.New("date must be a valid YYYY-MM-DD calendar date")
	ErrInvalidID     = errors.New("expense id must not be empty")
	ErrMissingField  = errors.New("required field missing")
)

// ReceiptData is a single reading of a receipt, confirmed or not.
type ReceiptData struct {
	StoreName string  `json:"storeName"`
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
}

// Validate checks the amount and date invariants. An empty store name is
// allowed so that fallback drafts can be confirmed after manual completion.
func (r ReceiptData) Validate() error {
	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) || r.Amount < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, r.Amount)
	}
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	return nil
}

// Time returns the receipt date as midnight UTC.
func (r ReceiptData) Time() (time.Time, error) {
	return ParseDate(r.Date)
}

// ParseDate parses a strict YYYY-MM-DD string. Out-of-range days such as
// 2024-02-30 are rejected.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil || len(strings.TrimSpace(s)) != len(DateLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders t in the receipt date format, in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Expense is a finalized ledger entry. Expenses are immutable once created.
type Expense struct {
	ID        string  `json:"id"`
	StoreName string  `json:"storeName"`
	Date      string  `json:"date"`
	Amount    float64 `json:"amount"`
	CreatedAt int64   `json:"createdAt"`
}

// NewExpense binds receipt data to an identity. Only the ledger calls this.
func NewExpense(id string, data ReceiptData, createdAt int64) Expense {
	return Expense{
		ID:        id,
		StoreName: data.StoreName,
		Date:      data.Date,
		Amount:    data.Amount,
		CreatedAt: createdAt,
	}
}

// Receipt returns the receipt portion of the expense.
func (e Expense) Receipt() ReceiptData {
	return ReceiptData{StoreName: e.StoreName, Date: e.Date, Amount: e.Amount}
}

// Validate checks the expense invariants.
func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrInvalidID
	}
	return e.Receipt().Validate()
}

// receiptWire mirrors ReceiptData with pointer fields so that absent keys
// can be told apart from zero values.
type receiptWire struct {
	StoreName *string  `json:"storeName"`
	Date      *string  `json:"date"`
	Amount    *float64 `json:"amount"`
}

// DecodeReceiptData parses an extraction response against the receipt
// schema: a single JSON object with exactly storeName, date and amount.
// Unknown keys, missing keys, trailing data and invalid values all fail.
func DecodeReceiptData(raw []byte) (ReceiptData, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ReceiptData{}, fmt.Errorf("%w: empty document", ErrMissingField)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var w receiptWire
	if err := dec.Decode(&w); err != nil {
		return ReceiptData{}, fmt.Errorf("decode receipt: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return ReceiptData{}, errors.New("decode receipt: trailing data after object")
	}

	var missing []string
	if w.StoreName == nil {
		missing = append(missing, "storeName")
	}
	if w.Date == nil {
		missing = append(missing, "date")
	}
	if w.Amount == nil {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return ReceiptData{}, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	data := ReceiptData{
		StoreName: strings.TrimSpace(*w.StoreName),
		Date:      strings.TrimSpace(*w.Date),
		Amount:    *w.Amount,
	}
	if err := data.Validate(); err != nil {
		return ReceiptData{}, err
	}
	return data, nil
}
