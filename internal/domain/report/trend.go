package report

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TrendKind classifies a month-over-month comparison.
type TrendKind string

const (
	TrendNoPreviousData TrendKind = "no-previous-data"
	TrendNoChange       TrendKind = "no-change"
	TrendIncrease       TrendKind = "increase"
	TrendDecrease       TrendKind = "decrease"
)

var hundred = decimal.NewFromInt(100)

// Trend is the comparison of the current month total against the previous
// one. Percent is the unsigned magnitude and is only meaningful for
// TrendIncrease and TrendDecrease.
type Trend struct {
	Kind    TrendKind       `json:"kind"`
	Percent decimal.Decimal `json:"percent"`
}

// CompareTotals classifies current against previous. A zero previous total
// always yields TrendNoPreviousData, whatever the current total is.
func CompareTotals(current, previous decimal.Decimal) Trend {
	switch {
	case previous.IsZero():
		return Trend{Kind: TrendNoPreviousData}
	case current.Equal(previous):
		return Trend{Kind: TrendNoChange}
	}

	kind := TrendIncrease
	if current.LessThan(previous) {
		kind = TrendDecrease
	}
	magnitude := current.Sub(previous).Abs().Div(previous).Mul(hundred)
	return Trend{Kind: kind, Percent: magnitude}
}

// Signed returns the percentage with its direction applied.
func (t Trend) Signed() decimal.Decimal {
	if t.Kind == TrendDecrease {
		return t.Percent.Neg()
	}
	return t.Percent
}

// HasPercent reports whether the trend carries a magnitude.
func (t Trend) HasPercent() bool {
	return t.Kind == TrendIncrease || t.Kind == TrendDecrease
}

// String renders the trend as shown on the summary card, e.g. "+50.0%".
func (t Trend) String() string {
	switch t.Kind {
	case TrendNoPreviousData:
		return "no data for previous month"
	case TrendNoChange:
		return "no change"
	case TrendIncrease:
		return fmt.Sprintf("+%s%%", t.Percent.StringFixed(1))
	case TrendDecrease:
		return fmt.Sprintf("-%s%%", t.Percent.StringFixed(1))
	default:
		return string(t.Kind)
	}
}
