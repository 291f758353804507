package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/application/service"
	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/internal/domain/report"
)

// StylePlain prints the Markdown source without terminal rendering.
const StylePlain = "plain"

// Renderer turns ledger views into Markdown and prints them through glamour.
type Renderer struct {
	out      io.Writer
	currency string
	style    string
	width    int
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, currency, style string, width int) *Renderer {
	if style == "" {
		style = "auto"
	}
	if width <= 0 {
		width = 100
	}
	return &Renderer{out: out, currency: currency, style: style, width: width}
}

// Print renders md to the output.
func (r *Renderer) Print(md string) error {
	if r.style == StylePlain {
		_, err := io.WriteString(r.out, md)
		return err
	}

	tr, err := glamour.NewTermRenderer(r.styleOption(), glamour.WithWordWrap(r.width))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := tr.Render(md)
	if err != nil {
		return fmt.Errorf("failed to render markdown: %w", err)
	}
	_, err = io.WriteString(r.out, out)
	return err
}

func (r *Renderer) styleOption() glamour.TermRendererOption {
	if r.style != "auto" {
		return glamour.WithStandardStyle(r.style)
	}
	if f, ok := r.out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return glamour.WithAutoStyle()
	}
	return glamour.WithStandardStyle("notty")
}

// Amount formats an amount in the display currency.
func (r *Renderer) Amount(amount float64) string {
	return FormatAmount(amount, r.currency)
}

// CardMarkdown renders the month heading and its summary card.
func (r *Renderer) CardMarkdown(s report.MonthlySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Month.Label())

	b.WriteString("| Total | Entries | Previous month | Trend |\n")
	b.WriteString("|------:|--------:|---------------:|-------|\n")
	fmt.Fprintf(&b, "| %s | %d | %s | %s |\n\n",
		FormatDecimal(s.Total, r.currency),
		s.Count(),
		FormatDecimal(s.PreviousTotal, r.currency),
		s.Trend)
	return b.String()
}

// MonthMarkdown renders the summary card followed by the month's entries.
func (r *Renderer) MonthMarkdown(s report.MonthlySummary) string {
	var b strings.Builder
	b.WriteString(r.CardMarkdown(s))

	if s.Count() == 0 {
		fmt.Fprintf(&b, "_No receipts recorded for %s._\n", s.Month.Label())
		return b.String()
	}

	b.WriteString("| Date | Store | Amount | ID |\n")
	b.WriteString("|------|-------|-------:|----|\n")
	for _, e := range s.Entries {
		fmt.Fprintf(&b, "| %s | %s | %s | `%s` |\n", e.Date, cell(e.StoreName), r.Amount(e.Amount), e.ID)
	}
	return b.String()
}

// DraftMarkdown renders a draft awaiting confirmation.
func (r *Renderer) DraftMarkdown(d service.Draft) string {
	var b strings.Builder
	if d.Failure != nil {
		b.WriteString(FailureNotice(d.Failure))
		b.WriteString("\n")
	}
	b.WriteString("## Receipt\n\n")
	b.WriteString("| Field | Value |\n|-------|-------|\n")
	fmt.Fprintf(&b, "| Store | %s |\n", cell(d.Data.StoreName))
	fmt.Fprintf(&b, "| Date | %s |\n", d.Data.Date)
	fmt.Fprintf(&b, "| Amount | %s |\n", r.Amount(d.Data.Amount))
	return b.String()
}

// SavedMarkdown confirms a saved expense.
func (r *Renderer) SavedMarkdown(e entity.Expense) string {
	return fmt.Sprintf("Saved **%s** on %s for %s (`%s`).\n", cell(e.StoreName), e.Date, r.Amount(e.Amount), e.ID)
}

// FailureNotice tells the user why the draft fields are blank.
func FailureNotice(err error) string {
	var ce *port.ConfigurationError
	if errors.As(err, &ce) {
		return fmt.Sprintf("> **Receipt reading is not configured** (`%s` is missing or was rejected). Please fill in the fields manually.\n", ce.Setting)
	}
	var ee *port.ExtractionError
	if errors.As(err, &ee) && ee.Kind == port.ExtractionTimeout {
		return "> **The receipt took too long to read.** Please fill in the fields manually.\n"
	}
	return "> **The receipt could not be read.** Please fill in the fields manually.\n"
}

// cell makes a value safe for a Markdown table cell.
func cell(s string) string {
	if s == "" {
		return "_(unnamed)_"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
