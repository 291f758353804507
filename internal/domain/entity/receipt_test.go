package entity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptData_Validate(t *testing.T) {
	tests := []struct {
		name    string
		data    ReceiptData
		wantErr error
	}{
		{"valid", ReceiptData{StoreName: "Lawson", Date: "2024-05-03", Amount: 1200}, nil},
		{"zero amount", ReceiptData{StoreName: "", Date: "2024-05-03", Amount: 0}, nil},
		{"negative amount", ReceiptData{Date: "2024-05-03", Amount: -1}, ErrInvalidAmount},
		{"NaN amount", ReceiptData{Date: "2024-05-03", Amount: math.NaN()}, ErrInvalidAmount},
		{"infinite amount", ReceiptData{Date: "2024-05-03", Amount: math.Inf(1)}, ErrInvalidAmount},
		{"impossible day", ReceiptData{Date: "2024-02-30", Amount: 1}, ErrInvalidDate},
		{"leap day", ReceiptData{Date: "2024-02-29", Amount: 1}, nil},
		{"slash format", ReceiptData{Date: "2024/05/03", Amount: 1}, ErrInvalidDate},
		{"single digit month", ReceiptData{Date: "2024-5-03", Amount: 1}, ErrInvalidDate},
		{"empty date", ReceiptData{Amount: 1}, ErrInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.data.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExpense_Validate(t *testing.T) {
	e := NewExpense("", ReceiptData{StoreName: "A", Date: "2024-05-03", Amount: 1}, 1)
	assert.ErrorIs(t, e.Validate(), ErrInvalidID)

	e.ID = "abc"
	assert.NoError(t, e.Validate())
	assert.Equal(t, ReceiptData{StoreName: "A", Date: "2024-05-03", Amount: 1}, e.Receipt())
}

func TestDecodeReceiptData(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		got, err := DecodeReceiptData([]byte(`{"storeName":" FamilyMart ","date":"2024-05-03","amount":540}`))
		require.NoError(t, err)
		assert.Equal(t, ReceiptData{StoreName: "FamilyMart", Date: "2024-05-03", Amount: 540}, got)
	})

	t.Run("fractional amount", func(t *testing.T) {
		got, err := DecodeReceiptData([]byte(`{"storeName":"Cafe","date":"2024-05-03","amount":12.5}`))
		require.NoError(t, err)
		assert.Equal(t, 12.5, got.Amount)
	})

	failures := map[string]string{
		"empty":           ``,
		"whitespace":      "  \n",
		"not json":        `I could not read this receipt`,
		"array":           `[{"storeName":"A","date":"2024-05-03","amount":1}]`,
		"missing amount":  `{"storeName":"A","date":"2024-05-03"}`,
		"null store":      `{"storeName":null,"date":"2024-05-03","amount":1}`,
		"string amount":   `{"storeName":"A","date":"2024-05-03","amount":"1200"}`,
		"negative amount": `{"storeName":"A","date":"2024-05-03","amount":-3}`,
		"bad date":        `{"storeName":"A","date":"03/05/2024","amount":1}`,
		"extra field":     `{"storeName":"A","date":"2024-05-03","amount":1,"currency":"JPY"}`,
		"trailing object": `{"storeName":"A","date":"2024-05-03","amount":1}{}`,
		"trailing brace":  `{"storeName":"A","date":"2024-05-03","amount":1}}`,
		"trailing square": `{"storeName":"A","date":"2024-05-03","amount":1}]`,
		"trailing text":   `{"storeName":"A","date":"2024-05-03","amount":1} garbage`,
		"truncated":       `{"storeName":"A","date":"2024-05-03","amou`,
	}
	for name, body := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeReceiptData([]byte(body))
			assert.Error(t, err)
		})
	}

	t.Run("missing fields are named", func(t *testing.T) {
		_, err := DecodeReceiptData([]byte(`{"storeName":"A"}`))
		require.ErrorIs(t, err, ErrMissingField)
		assert.Contains(t, err.Error(), "date, amount")
	})
}
