package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/google/subcommands"

	"github.com/garyjia/receipt-ledger/internal/application/dispatcher"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/event"
)

const sessionHelp = `Commands:
  n               next month
  p               previous month
  list            show the current month again
  scan <file>     read a receipt and record it
  add             record an expense by hand
  rm <id>         delete an expense
  help            this text
  q               quit
`

type sessionCmd struct {
	env *Env
}

func (*sessionCmd) Name() string     { return "session" }
func (*sessionCmd) Synopsis() string { return "browse months and record receipts interactively" }
func (*sessionCmd) Usage() string {
	return `receipt-ledger session

  Starts an interactive session on the current month.

` + sessionHelp
}

func (*sessionCmd) SetFlags(*flag.FlagSet) {}

func (c *sessionCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, c.env, func(app *App) error {
		return app.RunSession(ctx)
	})
}

// RunSession reads commands until "q" or end of input. The current month is
// redrawn whenever the ledger or the cursor changed during a command.
func (a *App) RunSession(ctx context.Context) error {
	var dirty atomic.Bool
	markDirty := func(context.Context, *event.Event) error {
		dirty.Store(true)
		return nil
	}

	disp := a.container.Dispatcher()
	types := []event.Type{event.TypeExpenseAdded, event.TypeExpenseRemoved, event.TypeCursorMoved}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = disp.Subscribe(t, markDirty)
	}
	defer unsubscribeAll(disp, types, names)

	if err := a.ShowMonth(a.services.Navigator.Cursor()); err != nil {
		return err
	}

	for {
		line, err := a.prompt.Line(fmt.Sprintf("%s> ", a.services.Navigator.Cursor().Key()))
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return nil
		}
		if err != nil {
			return err
		}

		quit, err := a.sessionCommand(ctx, line)
		if err != nil {
			fmt.Fprintf(a.out, "Error: %v\n", err)
		}
		if quit {
			return nil
		}

		if dirty.Swap(false) {
			if err := a.ShowMonth(a.services.Navigator.Cursor()); err != nil {
				return err
			}
		}
	}
}

func (a *App) sessionCommand(ctx context.Context, line string) (quit bool, err error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		return false, nil
	case "q", "quit", "exit":
		return true, nil
	case "n", "next":
		a.services.Navigator.Next(ctx)
	case "p", "prev", "previous":
		a.services.Navigator.Previous(ctx)
	case "list", "ls":
		return false, a.ShowMonth(a.services.Navigator.Cursor())
	case "scan":
		if arg == "" {
			return false, fmt.Errorf("usage: scan <file>")
		}
		_, err = a.Scan(ctx, arg, "", false)
	case "add":
		_, err = a.AddInteractive(ctx, a.today)
	case "rm", "delete":
		if arg == "" {
			return false, fmt.Errorf("usage: rm <id>")
		}
		_, err = a.Delete(ctx, arg, false)
	case "help", "?":
		fmt.Fprint(a.out, sessionHelp)
	default:
		fmt.Fprintf(a.out, "Unknown command %q.\n%s", cmd, sessionHelp)
	}
	return false, err
}

// today is the date drafts start from in manual entry.
func (a *App) today() string {
	return entity.FormatDate(a.now())
}

func unsubscribeAll(disp dispatcher.Dispatcher, types []event.Type, names []string) {
	for i, t := range types {
		disp.Unsubscribe(t, names[i])
	}
}
