package service

import (
	"context"
	"time"

	"github.com/garyjia/receipt-ledger/internal/application/dispatcher"
	"github.com/garyjia/receipt-ledger/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// publish emits evt on disp if there is one. Delivery failures are logged,
// never returned: a broken subscriber must not undo a committed change.
func publish(ctx context.Context, disp dispatcher.Dispatcher, logger Logger, evt *event.Event) {
	if disp == nil {
		return
	}
	if err := disp.Dispatch(ctx, evt); err != nil {
		logger.Warn("Event delivery failed", "event_type", evt.Type, "error", err)
	}
}
