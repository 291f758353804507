package event

// Type identifies the type of domain event
type Type string

const (
	TypeLedgerLoaded   Type = "ledger.loaded"
	TypeExpenseAdded   Type = "expense.added"
	TypeExpenseRemoved Type = "expense.removed"
	TypeCursorMoved    Type = "cursor.moved"
	TypeCaptureStarted Type = "capture.started"
	TypeCaptureFailed  Type = "capture.failed"
	TypeDraftReady     Type = "draft.ready"
)

// Payload keys shared by publishers and subscribers.
const (
	KeyExpense   = "expense"
	KeyExpenseID = "expense_id"
	KeyDate      = "date"
	KeyCount     = "count"
	KeyMonth     = "month"
	KeyReason    = "reason"
	KeyError     = "error"
	KeyDraft     = "draft"
	KeyMimeType  = "mime_type"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeLedgerLoaded,
		TypeExpenseAdded,
		TypeExpenseRemoved,
		TypeCursorMoved,
		TypeCaptureStarted,
		TypeCaptureFailed,
		TypeDraftReady:
		return true
	default:
		return false
	}
}
