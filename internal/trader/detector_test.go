package trader

import (
	"testing"
	"time"

	"buydips-go/internal/binance"
	"buydips-go/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func ticker(last string, percentage string) binance.Ticker {
	return binance.Ticker{
		Last:       decimal.RequireFromString(last),
		Percentage: decimal.RequireFromString(percentage),
	}
}

// recordBoughtAt builds a purchase record with a millisecond timestamp,
// the unit real exchange fills carry.
func recordBoughtAt(symbol string, price string, boughtOn time.Time) *models.PurchaseRecord {
	return &models.PurchaseRecord{
		Symbol:    symbol,
		Price:     decimal.RequireFromString(price),
		Amount:    decimal.NewFromInt(1),
		Timestamp: float64(boughtOn.UnixMilli()),
	}
}

func TestDetect_FirstBuyOnBigDailyDrop(t *testing.T) {
	now := time.Now()

	d := Detect(ticker("29000", "-8"), nil, 7, 2, now)

	assert.Equal(t, BuyFirstTime, d.Action)
	assert.True(t, d.DiscountPct.Equal(decimal.NewFromInt(-8)))
}

func TestDetect_NoFirstBuyBelowThreshold(t *testing.T) {
	now := time.Now()

	d := Detect(ticker("29000", "-6.9"), nil, 7, 2, now)

	assert.Equal(t, Hold, d.Action)
}

func TestDetect_NoFirstBuyAtExactThreshold(t *testing.T) {
	// The comparison is strict: a drop of exactly min_drop does not trigger.
	now := time.Now()

	d := Detect(ticker("29000", "-7"), nil, 7, 2, now)

	assert.Equal(t, Hold, d.Action)
}

func TestDetect_BuyAgainOnAdditionalDrop(t *testing.T) {
	// Bought 10 hours ago at 30000, now 29000: discount ~ -3.33%, below -2%.
	now := time.Now()
	record := recordBoughtAt("BTC/USDT", "30000", now.Add(-10*time.Hour))

	d := Detect(ticker("29000", "-8"), record, 7, 2, now)

	assert.Equal(t, BuyAgain, d.Action)
	assert.InDelta(t, -3.33, d.DiscountPct.InexactFloat64(), 0.01)
}

func TestDetect_NoBuyAgainOnSmallAdditionalDrop(t *testing.T) {
	// Same as above but now 29500: discount ~ -1.67%, not below -2%.
	now := time.Now()
	record := recordBoughtAt("BTC/USDT", "30000", now.Add(-10*time.Hour))

	d := Detect(ticker("29500", "-8"), record, 7, 2, now)

	assert.Equal(t, Hold, d.Action)
}

func TestDetect_RecentRecordIgnores24hPercentage(t *testing.T) {
	// A recent buy switches to the additional-drop rule even when the
	// 24h percentage alone would trigger a first buy.
	now := time.Now()
	record := recordBoughtAt("BTC/USDT", "29000", now.Add(-2*time.Hour))

	d := Detect(ticker("29000", "-20"), record, 7, 2, now)

	assert.Equal(t, Hold, d.Action)
}

func TestDetect_StaleRecordFallsBackToFirstBuyRule(t *testing.T) {
	// Bought 3 days ago: the record is stale, the 24h rule applies again.
	now := time.Now()
	record := recordBoughtAt("BTC/USDT", "60000", now.Add(-72*time.Hour))

	d := Detect(ticker("29000", "-8"), record, 7, 2, now)

	assert.Equal(t, BuyFirstTime, d.Action)
	assert.True(t, d.DiscountPct.Equal(decimal.NewFromInt(-8)))
}

func TestDetect_StaleRecordHoldsWithoutDailyDrop(t *testing.T) {
	now := time.Now()
	record := recordBoughtAt("BTC/USDT", "60000", now.Add(-72*time.Hour))

	// Price is half the old buy price, but the 24h change is mild:
	// the stale record must not resurrect the additional-drop rule.
	d := Detect(ticker("29000", "-1"), record, 7, 2, now)

	assert.Equal(t, Hold, d.Action)
}

func TestBoughtWithinDayWindow(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name     string
		boughtOn time.Time
		expected bool
	}{
		{"TenHoursAgo", now.Add(-10 * time.Hour), true},
		{"ThirtyHoursAgo", now.Add(-30 * time.Hour), true}, // day diff 1, still inside the coarse window
		{"FortyNineHoursAgo", now.Add(-49 * time.Hour), false},
		{"ThreeDaysAgo", now.Add(-72 * time.Hour), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			record := recordBoughtAt("BTC/USDT", "30000", tc.boughtOn)
			assert.Equal(t, tc.expected, boughtWithinDayWindow(record, now))
		})
	}
}

func TestBoughtWithinDayWindow_NilRecord(t *testing.T) {
	assert.False(t, boughtWithinDayWindow(nil, time.Now()))
}

func TestBoughtWithinDayWindow_SecondsTimestamp(t *testing.T) {
	// Fractional timestamps are seconds; an integer of the same magnitude
	// would be misread as milliseconds and land decades in the past.
	now := time.Now()
	record := &models.PurchaseRecord{
		Symbol:    "BTC/USDT",
		Price:     decimal.NewFromInt(30000),
		Amount:    decimal.NewFromInt(1),
		Timestamp: float64(now.Add(-10*time.Hour).UnixNano())/float64(time.Second) + 0.5,
	}

	assert.True(t, boughtWithinDayWindow(record, now))
}
