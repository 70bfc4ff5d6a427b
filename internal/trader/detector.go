package trader

import (
	"time"

	"buydips-go/internal/binance"
	"buydips-go/internal/models"
	"github.com/shopspring/decimal"
)

// Action classifies the per-symbol decision of a polling cycle.
type Action int

const (
	// Hold means the price has not dropped enough to buy.
	Hold Action = iota
	// BuyFirstTime means the 24h change dropped below the initial threshold
	// and the symbol has no recent purchase.
	BuyFirstTime
	// BuyAgain means the price dropped below the additional threshold
	// relative to the previous buy price.
	BuyAgain
)

// Decision is the outcome of the dip detector for one symbol.
type Decision struct {
	Action Action
	// DiscountPct is the drop percentage backing the decision: relative
	// to the previous buy price for BuyAgain, otherwise the
	// exchange-reported 24h change.
	DiscountPct decimal.Decimal
}

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// boughtWithinDayWindow reports whether the record's buy time falls in
// the coarse day-level window: the integer day difference between now
// and the buy time is at most 1. This is deliberately not a rolling
// 24h check.
func boughtWithinDayWindow(record *models.PurchaseRecord, now time.Time) bool {
	if record == nil {
		return false
	}
	days := int(now.Sub(record.BoughtOn()).Hours()) / 24
	return days <= 1
}

// Detect decides whether to buy a symbol given its current ticker and
// the stored purchase record (nil if never bought). Exactly one trigger
// path applies per cycle; a record older than the day window is treated
// the same as no record at all.
func Detect(ticker binance.Ticker, record *models.PurchaseRecord, minDrop, minAdditionalDrop float64, now time.Time) Decision {
	if boughtWithinDayWindow(record, now) {
		discount := ticker.Last.Div(record.Price).Sub(one).Mul(hundred)
		if discount.LessThan(decimal.NewFromFloat(minAdditionalDrop).Neg()) {
			return Decision{Action: BuyAgain, DiscountPct: discount}
		}
		return Decision{Action: Hold, DiscountPct: discount}
	}

	if ticker.Percentage.LessThan(decimal.NewFromFloat(minDrop).Neg()) {
		return Decision{Action: BuyFirstTime, DiscountPct: ticker.Percentage}
	}
	return Decision{Action: Hold, DiscountPct: ticker.Percentage}
}
