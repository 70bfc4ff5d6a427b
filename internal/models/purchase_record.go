package models

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PurchaseRecord is the persisted fact of the most recent buy for a symbol.
// There is at most one row per symbol; a new buy overwrites the old record.
type PurchaseRecord struct {
	gorm.Model
	Symbol string          `gorm:"uniqueIndex" json:"symbol"`
	Price  decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price"`
	Amount decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	// Timestamp is kept as the raw epoch value reported at buy time.
	// Exchange fills report integer milliseconds, simulated fills record
	// fractional seconds; BoughtOn normalizes both.
	Timestamp float64 `json:"timestamp"`
}

// BoughtOn returns the buy time with the epoch unit auto-detected:
// values carrying a fractional part are seconds, pure integers are
// milliseconds.
func (r *PurchaseRecord) BoughtOn() time.Time {
	return NormalizeTimestamp(r.Timestamp)
}

// NormalizeTimestamp converts an epoch value of ambiguous unit to a
// time.Time. A fractional component marks the value as seconds; an
// integer value is treated as milliseconds.
func NormalizeTimestamp(ts float64) time.Time {
	if ts != math.Trunc(ts) {
		sec, frac := math.Modf(ts)
		return time.Unix(int64(sec), int64(frac*float64(time.Second)))
	}
	return time.UnixMilli(int64(ts))
}
