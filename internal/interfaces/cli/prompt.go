package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
	"github.com/garyjia/receipt-ledger/pkg/utils"
)

// Decision is the user's answer to a draft.
type Decision int

const (
	DecisionSave Decision = iota
	DecisionEdit
	DecisionCancel
)

// Prompter asks line-based questions on a terminal or pipe.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a prompter reading answers from in.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Line prints prompt and returns the trimmed answer. io.EOF is returned
// only when the input ends before anything was typed.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Decide asks whether to save, edit or cancel a draft. End of input cancels.
func (p *Prompter) Decide() (Decision, error) {
	for {
		answer, err := p.Line("[s]ave, [e]dit or [c]ancel? ")
		if errors.Is(err, io.EOF) {
			return DecisionCancel, nil
		}
		if err != nil {
			return DecisionCancel, err
		}
		switch strings.ToLower(answer) {
		case "s", "save", "":
			return DecisionSave, nil
		case "e", "edit":
			return DecisionEdit, nil
		case "c", "cancel":
			return DecisionCancel, nil
		}
		fmt.Fprintln(p.out, "Please answer s, e or c.")
	}
}

// Confirm asks a yes/no question defaulting to no.
func (p *Prompter) Confirm(question string) (bool, error) {
	answer, err := p.Line(question + " [y/N] ")
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// Edit walks through each field with the current value as default. Dates
// and amounts are asked again until they are valid.
func (p *Prompter) Edit(data entity.ReceiptData) (entity.ReceiptData, error) {
	store, err := p.withDefault("Store", data.StoreName)
	if err != nil {
		return data, err
	}
	data.StoreName = utils.SanitizeString(store)

	for {
		date, err := p.withDefault("Date (YYYY-MM-DD)", data.Date)
		if err != nil {
			return data, err
		}
		if _, err := entity.ParseDate(date); err != nil {
			fmt.Fprintf(p.out, "%v\n", err)
			continue
		}
		data.Date = date
		break
	}

	for {
		raw, err := p.withDefault("Amount", strconv.FormatFloat(data.Amount, 'f', -1, 64))
		if err != nil {
			return data, err
		}
		amount, err := utils.ParseAmount(raw)
		if err != nil {
			fmt.Fprintf(p.out, "%v\n", err)
			continue
		}
		data.Amount = amount
		break
	}
	return data, nil
}

func (p *Prompter) withDefault(label, current string) (string, error) {
	prompt := label + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, current)
	}
	answer, err := p.Line(prompt)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return current, nil
	}
	return answer, nil
}
