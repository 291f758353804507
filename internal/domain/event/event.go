package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/month"
)

// Event is a change notification emitted by the core. Subscribers treat
// the payload as read-only.
type Event struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewEvent creates a new event with a generated ID and the current time.
func NewEvent(eventType Type, payload map[string]interface{}) *Event {
	if payload == nil {
		payload = make(map[string]interface{})
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

// WithPayload returns a copy of the event with key set to value.
func (e *Event) WithPayload(key string, value interface{}) *Event {
	newPayload := make(map[string]interface{}, len(e.Payload)+1)
	for k, v := range e.Payload {
		newPayload[k] = v
	}
	newPayload[key] = value

	return &Event{
		ID:        e.ID,
		Type:      e.Type,
		Payload:   newPayload,
		Timestamp: e.Timestamp,
	}
}

// GetPayloadString retrieves a string value from the payload
func (e *Event) GetPayloadString(key string) string {
	if val, ok := e.Payload[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

// GetPayloadInt retrieves an integer value from the payload
func (e *Event) GetPayloadInt(key string) int64 {
	if val, ok := e.Payload[key]; ok {
		switch v := val.(type) {
		case int64:
			return v
		case int:
			return int64(v)
		case float64:
			return int64(v)
		}
	}
	return 0
}

// GetExpense retrieves the expense carried by expense.added and
// expense.removed events.
func (e *Event) GetExpense() (entity.Expense, bool) {
	exp, ok := e.Payload[KeyExpense].(entity.Expense)
	return exp, ok
}

// GetDraft retrieves the draft carried by draft.ready events.
func (e *Event) GetDraft() (entity.ReceiptData, bool) {
	d, ok := e.Payload[KeyDraft].(entity.ReceiptData)
	return d, ok
}

// GetMonth retrieves the cursor carried by cursor.moved events.
func (e *Event) GetMonth() (month.Cursor, bool) {
	c, ok := e.Payload[KeyMonth].(month.Cursor)
	return c, ok
}
