package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/pkg/utils"
)

// Commands returns every command bound to env.
func Commands(env *Env) []subcommands.Command {
	return []subcommands.Command{
		&scanCmd{env: env},
		&addCmd{env: env},
		&listCmd{env: env},
		&summaryCmd{env: env},
		&deleteCmd{env: env},
		&exportCmd{env: env},
		&sessionCmd{env: env},
	}
}

// run opens the app, hands it to fn and maps the outcome to an exit status.
func run(ctx context.Context, env *Env, fn func(*App) error) subcommands.ExitStatus {
	app, err := env.Open(ctx)
	if err != nil {
		fmt.Fprintf(env.Err, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	if err := fn(app); err != nil {
		fmt.Fprintf(env.Err, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func usageError(env *Env, f *flag.FlagSet, format string, args ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(env.Err, "Error: "+format+"\n", args...)
	f.Usage()
	return subcommands.ExitUsageError
}

type scanCmd struct {
	env       *Env
	assumeYes bool
	mimeType  string
}

func (*scanCmd) Name() string     { return "scan" }
func (*scanCmd) Synopsis() string { return "read a receipt image or PDF and record it" }
func (*scanCmd) Usage() string {
	return `receipt-ledger scan [-yes] [-mime <type>] <file>

  Reads the store, date and total from a receipt photo (or the first page of
  a PDF), shows the draft and asks to save, edit or cancel.
`
}

func (c *scanCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.assumeYes, "yes", false, "save the draft without asking")
	f.StringVar(&c.mimeType, "mime", "", "content type of the file (detected when empty)")
}

func (c *scanCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(c.env, f, "scan needs exactly one file")
	}
	return run(ctx, c.env, func(app *App) error {
		saved, err := app.Scan(ctx, f.Arg(0), c.mimeType, c.assumeYes)
		if err != nil || !saved {
			return err
		}
		return app.ShowMonth(app.services.Navigator.Cursor())
	})
}

type addCmd struct {
	env    *Env
	store  string
	date   string
	amount string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an expense by hand" }
func (*addCmd) Usage() string {
	return `receipt-ledger add -store <name> -date <YYYY-MM-DD> -amount <n>

  Records an expense without reading a receipt.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.store, "store", "", "store name")
	f.StringVar(&c.date, "date", "", "purchase date, YYYY-MM-DD")
	f.StringVar(&c.amount, "amount", "", "total amount, e.g. 1200 or ¥1,200")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := entity.ParseDate(c.date); err != nil {
		return usageError(c.env, f, "%v", err)
	}
	amount, err := utils.ParseAmount(c.amount)
	if err != nil {
		return usageError(c.env, f, "%v", err)
	}

	data := entity.ReceiptData{StoreName: c.store, Date: c.date, Amount: amount}
	return run(ctx, c.env, func(app *App) error {
		if err := app.Add(ctx, data); err != nil {
			return err
		}
		return app.ShowMonth(app.services.Navigator.Cursor())
	})
}

type listCmd struct {
	env   *Env
	month string
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the expenses of a month" }
func (*listCmd) Usage() string {
	return `receipt-ledger list [-month <YYYY-MM>]

  Lists a month's expenses, newest first, under its summary card.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month to list (defaults to the current month)")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, c.env, func(app *App) error {
		m, err := app.resolveMonth(c.month)
		if err != nil {
			return err
		}
		return app.ShowMonth(m)
	})
}

type summaryCmd struct {
	env   *Env
	month string
	shift int
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show a month's total against the month before" }
func (*summaryCmd) Usage() string {
	return `receipt-ledger summary [-month <YYYY-MM>] [-shift <n>]

  Shows the summary card for a month. -shift moves that many months from
  -month (or the current month); negative values go back.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month to summarize (defaults to the current month)")
	f.IntVar(&c.shift, "shift", 0, "months to move from -month")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return run(ctx, c.env, func(app *App) error {
		m, err := app.resolveMonth(c.month)
		if err != nil {
			return err
		}
		s := app.services.Summary.Summary(m.Shift(c.shift))
		return app.render.Print(app.render.CardMarkdown(s))
	})
}

type deleteCmd struct {
	env       *Env
	assumeYes bool
}

func (*deleteCmd) Name() string     { return "delete" }
func (*deleteCmd) Synopsis() string { return "delete an expense by id" }
func (*deleteCmd) Usage() string {
	return `receipt-ledger delete [-yes] <id>

  Deletes one expense after confirmation.
`
}

func (c *deleteCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.assumeYes, "yes", false, "delete without asking")
}

func (c *deleteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		return usageError(c.env, f, "delete needs exactly one id")
	}
	return run(ctx, c.env, func(app *App) error {
		_, err := app.Delete(ctx, f.Arg(0), c.assumeYes)
		return err
	})
}

type exportCmd struct {
	env   *Env
	month string
	out   string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export a month to an Excel workbook" }
func (*exportCmd) Usage() string {
	return `receipt-ledger export [-month <YYYY-MM>] -out <file.xlsx>

  Writes the month's summary and entries to an xlsx file.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.month, "month", "", "month to export (defaults to the current month)")
	f.StringVar(&c.out, "out", "", "output file")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.out == "" {
		return usageError(c.env, f, "-out is required")
	}
	return run(ctx, c.env, func(app *App) error {
		m, err := app.resolveMonth(c.month)
		if err != nil {
			return err
		}
		return app.Export(ctx, m, c.out)
	})
}
