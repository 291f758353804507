// Package extraction holds what every receipt extractor shares: the
// instructions sent with the image, the response schema, and the mapping
// of provider failures onto port errors.
package extraction

import (
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
)

// Field names and descriptions of the response schema.
const (
	FieldStoreName = "storeName"
	FieldDate      = "date"
	FieldAmount    = "amount"

	DescStoreName = "The name of the store or merchant."
	DescDate      = "The date of purchase in YYYY-MM-DD format."
	DescAmount    = "The total amount of the purchase."
)

// RequiredFields lists the schema fields in a fixed order.
var RequiredFields = []string{FieldStoreName, FieldDate, FieldAmount}

// SystemPrompt frames the model for providers that take a system message.
const SystemPrompt = "You read photographed shop receipts and report the store, purchase date and total. " +
	"Always answer with a single JSON object and nothing else."

// Instructions returns the extraction guidance for a request made at now.
// The defaults (current year, "Unknown Store", today's date) depend on
// the caller's clock, so the text is built per request.
func Instructions(now time.Time) string {
	var b strings.Builder
	b.WriteString("Analyze this receipt image. Extract the store name, the date (in YYYY-MM-DD format) and the total amount.\n")
	fmt.Fprintf(&b, "If the year is missing, assume the current year is %d.\n", now.Year())
	fmt.Fprintf(&b, "If the store name is unclear, use %q.\n", entity.UnknownStore)
	fmt.Fprintf(&b, "If the date is unclear, use today's date: %s.\n", entity.FormatDate(now))
	b.WriteString("The amount must be a plain number without currency symbols or separators.\n")
	fmt.Fprintf(&b, "Respond with JSON containing exactly the keys %s.", strings.Join(RequiredFields, ", "))
	return b.String()
}
