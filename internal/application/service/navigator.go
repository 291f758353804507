package service

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/receipt-ledger/internal/application/dispatcher"
	"github.com/garyjia/receipt-ledger/internal/domain/event"
	"github.com/garyjia/receipt-ledger/internal/domain/month"
)

// MonthNavigator holds the month cursor for a session. It starts on the
// current month and follows newly added expenses that land outside the
// month being viewed.
type MonthNavigator interface {
	Cursor() month.Cursor
	Next(ctx context.Context) month.Cursor
	Previous(ctx context.Context) month.Cursor
	JumpTo(ctx context.Context, c month.Cursor) month.Cursor

	// Close stops following ledger changes.
	Close()
}

type monthNavigator struct {
	mu         sync.Mutex
	cursor     month.Cursor
	dispatcher dispatcher.Dispatcher
	logger     Logger
	subName    string
}

// NewMonthNavigator starts at the month containing clock's now. When disp is
// non-nil the navigator subscribes to expense.added.
func NewMonthNavigator(disp dispatcher.Dispatcher, clock Clock, logger Logger) MonthNavigator {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = nopLogger{}
	}
	n := &monthNavigator{
		cursor:     month.Of(clock()),
		dispatcher: disp,
		logger:     logger,
	}
	if disp != nil {
		n.subName = disp.Subscribe(event.TypeExpenseAdded, n.onExpenseAdded)
	}
	return n
}

func (n *monthNavigator) Cursor() month.Cursor {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

func (n *monthNavigator) Next(ctx context.Context) month.Cursor {
	return n.move(ctx, func(c month.Cursor) month.Cursor { return c.Next() })
}

func (n *monthNavigator) Previous(ctx context.Context) month.Cursor {
	return n.move(ctx, func(c month.Cursor) month.Cursor { return c.Previous() })
}

func (n *monthNavigator) JumpTo(ctx context.Context, target month.Cursor) month.Cursor {
	target = month.New(target.Year, target.Month)
	return n.move(ctx, func(month.Cursor) month.Cursor { return target })
}

func (n *monthNavigator) Close() {
	if n.dispatcher != nil && n.subName != "" {
		n.dispatcher.Unsubscribe(event.TypeExpenseAdded, n.subName)
		n.subName = ""
	}
}

func (n *monthNavigator) move(ctx context.Context, step func(month.Cursor) month.Cursor) month.Cursor {
	n.mu.Lock()
	from := n.cursor
	to := step(from)
	n.cursor = to
	n.mu.Unlock()

	if to != from {
		publish(ctx, n.dispatcher, n.logger, event.NewEvent(event.TypeCursorMoved, map[string]interface{}{
			event.KeyMonth: to,
		}))
	}
	return to
}

func (n *monthNavigator) onExpenseAdded(ctx context.Context, evt *event.Event) error {
	exp, ok := evt.GetExpense()
	if !ok {
		return nil
	}
	target, err := month.FromDate(exp.Date)
	if err != nil {
		return err
	}
	if n.Cursor() != target {
		n.logger.Info("Following new expense to its month", "month", target.Key(), "expense_id", exp.ID)
		n.JumpTo(ctx, target)
	}
	return nil
}
