package service

import (
	"time"

	"github.com/garyjia/receipt-ledger/internal/domain/entity"
)

// FallbackPolicy turns a failed extraction into an empty draft the user
// can complete by hand.
type FallbackPolicy struct {
	clock Clock
}

// NewFallbackPolicy creates a policy that dates drafts with clock's today.
func NewFallbackPolicy(clock Clock) FallbackPolicy {
	if clock == nil {
		clock = time.Now
	}
	return FallbackPolicy{clock: clock}
}

// OnFailure returns {storeName: "", amount: 0, date: today} whatever err is.
func (p FallbackPolicy) OnFailure(err error) entity.ReceiptData {
	return entity.ReceiptData{
		StoreName: "",
		Amount:    0,
		Date:      entity.FormatDate(p.clock()),
	}
}
