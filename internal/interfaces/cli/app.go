// Package cli is the command-line surface of the receipt ledger: one-shot
// commands and an interactive session over the same application services.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/application/service"
	"github.com/garyjia/receipt-ledger/internal/config"
	"github.com/garyjia/receipt-ledger/internal/container"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/month"
	"github.com/garyjia/receipt-ledger/pkg/utils"
)

// DefaultConfigPath is read when present; its absence is not an error.
const DefaultConfigPath = "config.yaml"

// Env is what every command shares: where configuration lives and the
// streams to talk on.
type Env struct {
	ConfigPath string
	In         io.Reader
	Out        io.Writer
	Err        io.Writer

	// Options are passed to the container, mostly for tests.
	Options []container.Option
	// Config, when set, is used instead of loading ConfigPath.
	Config *config.Config
}

// NewEnv returns an Env on the process's standard streams.
func NewEnv(configPath string) *Env {
	return &Env{ConfigPath: configPath, In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// App is an opened ledger with its renderer and prompter.
type App struct {
	container *container.Container
	services  *container.ServiceBundle
	logger    *zap.Logger
	render    *Renderer
	prompt    *Prompter
	now       service.Clock
	out       io.Writer
}

// Open loads configuration, starts the container and loads the ledger.
func (e *Env) Open(ctx context.Context) (*App, error) {
	cfg := e.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(e.configPath()); err != nil {
			return nil, err
		}
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c, err := container.NewContainer(cfg, logger, e.Options...)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		if errors.Is(err, service.ErrLedgerCorrupt) {
			return nil, fmt.Errorf("%w (set ledger.corrupt_policy=reset to start over)", err)
		}
		return nil, err
	}

	return &App{
		container: c,
		services:  c.Services(),
		logger:    logger,
		render:    NewRenderer(e.Out, cfg.Display.Currency, cfg.Display.Style, cfg.Display.Width),
		prompt:    NewPrompter(e.In, e.Out),
		now:       c.Clock(),
		out:       e.Out,
	}, nil
}

func (e *Env) configPath() string {
	if e.ConfigPath == DefaultConfigPath {
		if _, err := os.Stat(e.ConfigPath); errors.Is(err, os.ErrNotExist) {
			return ""
		}
	}
	return e.ConfigPath
}

// Close releases the container.
func (a *App) Close() error {
	err := a.container.Close()
	_ = a.logger.Sync()
	return err
}

// resolveMonth parses a YYYY-MM flag; empty means the navigator's month.
func (a *App) resolveMonth(flagValue string) (month.Cursor, error) {
	if flagValue == "" {
		return a.services.Navigator.Cursor(), nil
	}
	return month.Parse(flagValue)
}

// ShowMonth prints the summary card and entries for c.
func (a *App) ShowMonth(c month.Cursor) error {
	return a.render.Print(a.render.MonthMarkdown(a.services.Summary.Summary(c)))
}

// Scan reads a receipt file, extracts a draft and walks the user through
// confirming it. With assumeYes the draft is saved as read.
func (a *App) Scan(ctx context.Context, path, mimeType string, assumeYes bool) (saved bool, err error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("failed to read receipt: %w", err)
	}
	if mimeType == "" {
		mimeType = DetectMimeType(image)
	}

	draft, err := a.services.Capture.Capture(ctx, image, mimeType)
	if err != nil {
		return false, err
	}
	return a.confirm(ctx, draft, assumeYes)
}

// Add saves data without extraction.
func (a *App) Add(ctx context.Context, data entity.ReceiptData) error {
	data.StoreName = utils.SanitizeString(data.StoreName)
	return a.save(ctx, data)
}

// AddInteractive asks for every field, starting from an empty draft.
func (a *App) AddInteractive(ctx context.Context, today func() string) (bool, error) {
	data, err := a.prompt.Edit(entity.ReceiptData{Date: today()})
	if err != nil {
		return false, err
	}
	return a.confirm(ctx, service.Draft{Data: data}, false)
}

func (a *App) confirm(ctx context.Context, draft service.Draft, assumeYes bool) (bool, error) {
	if err := a.render.Print(a.render.DraftMarkdown(draft)); err != nil {
		return false, err
	}
	if assumeYes {
		return true, a.save(ctx, draft.Data)
	}

	data := draft.Data
	for {
		decision, err := a.prompt.Decide()
		if err != nil {
			return false, err
		}
		switch decision {
		case DecisionCancel:
			fmt.Fprintln(a.out, "Discarded.")
			return false, nil
		case DecisionEdit:
			if data, err = a.prompt.Edit(data); err != nil {
				return false, err
			}
			if err := a.render.Print(a.render.DraftMarkdown(service.Draft{Data: data})); err != nil {
				return false, err
			}
		case DecisionSave:
			return true, a.save(ctx, data)
		}
	}
}

func (a *App) save(ctx context.Context, data entity.ReceiptData) error {
	expense, err := a.services.Ledger.Append(ctx, data)
	if err != nil {
		return err
	}
	if err := a.render.Print(a.render.SavedMarkdown(expense)); err != nil {
		return err
	}
	return nil
}

// Delete removes the expense with id after confirmation. An unknown id is
// reported and nothing is written.
func (a *App) Delete(ctx context.Context, id string, assumeYes bool) (bool, error) {
	expense, ok := a.services.Ledger.Get(id)
	if !ok {
		fmt.Fprintf(a.out, "No expense with id %s.\n", id)
		return false, nil
	}
	if !assumeYes {
		question := fmt.Sprintf("Delete %s on %s for %s?", expense.StoreName, expense.Date, a.render.Amount(expense.Amount))
		yes, err := a.prompt.Confirm(question)
		if err != nil || !yes {
			return false, err
		}
	}

	removed, err := a.services.Ledger.Remove(ctx, id)
	if err != nil {
		return false, err
	}
	if removed {
		fmt.Fprintf(a.out, "Deleted %s.\n", id)
	}
	return removed, nil
}

// Export writes the month to an xlsx file.
func (a *App) Export(ctx context.Context, c month.Cursor, path string) error {
	if err := a.services.Summary.Export(ctx, c, path); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %s to %s.\n", c.Label(), path)
	return nil
}

// DetectMimeType sniffs the content type of a receipt file, without
// parameters, e.g. "image/jpeg" or "application/pdf".
func DetectMimeType(data []byte) string {
	mt, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return strings.TrimSpace(mt)
}
