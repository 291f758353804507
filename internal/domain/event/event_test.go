package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/month"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"ledger loaded", TypeLedgerLoaded, true},
		{"expense added", TypeExpenseAdded, true},
		{"expense removed", TypeExpenseRemoved, true},
		{"cursor moved", TypeCursorMoved, true},
		{"capture started", TypeCaptureStarted, true},
		{"capture failed", TypeCaptureFailed, true},
		{"draft ready", TypeDraftReady, true},
		{"unknown", Type("unknown.type"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.IsValid())
		})
	}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent(TypeExpenseRemoved, map[string]interface{}{KeyExpenseID: "abc"})

	require.NotNil(t, e)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
	assert.Equal(t, "abc", e.GetPayloadString(KeyExpenseID))

	other := NewEvent(TypeExpenseRemoved, nil)
	assert.NotEqual(t, e.ID, other.ID)
	assert.NotNil(t, other.Payload)
}

func TestEvent_WithPayload(t *testing.T) {
	base := NewEvent(TypeLedgerLoaded, map[string]interface{}{KeyCount: 2})
	updated := base.WithPayload(KeyReason, "reset")

	assert.Equal(t, base.ID, updated.ID)
	assert.Equal(t, "reset", updated.GetPayloadString(KeyReason))
	assert.Empty(t, base.GetPayloadString(KeyReason))
	assert.Equal(t, int64(2), updated.GetPayloadInt(KeyCount))
}

func TestEvent_TypedAccessors(t *testing.T) {
	exp := entity.Expense{ID: "x", Date: "2024-05-03", Amount: 10, CreatedAt: 1}
	cur := month.Cursor{Year: 2024, Month: 4}
	draft := entity.ReceiptData{Date: "2024-05-03"}

	e := NewEvent(TypeExpenseAdded, map[string]interface{}{
		KeyExpense: exp,
		KeyMonth:   cur,
		KeyDraft:   draft,
	})

	got, ok := e.GetExpense()
	require.True(t, ok)
	assert.Equal(t, exp, got)

	c, ok := e.GetMonth()
	require.True(t, ok)
	assert.Equal(t, cur, c)

	d, ok := e.GetDraft()
	require.True(t, ok)
	assert.Equal(t, draft, d)

	_, ok = NewEvent(TypeCursorMoved, nil).GetExpense()
	assert.False(t, ok)
}
