package dispatcher

import (
	"context"

	"github.com/garyjia/receipt-ledger/internal/domain/event"
)

// Handler reacts to a change event.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo describes a registered handler.
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// AllEvents subscribes a handler to every event type.
const AllEvents event.Type = "*"
