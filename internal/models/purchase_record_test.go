package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTimestamp(t *testing.T) {
	testCases := []struct {
		name     string
		ts       float64
		expected time.Time
	}{
		{
			name:     "IntegerIsMilliseconds",
			ts:       1700000000,
			expected: time.UnixMilli(1700000000),
		},
		{
			name:     "FractionalIsSeconds",
			ts:       1700000000.5,
			expected: time.Unix(1700000000, int64(500*time.Millisecond)),
		},
		{
			name:     "LargeIntegerMilliseconds",
			ts:       1700000000000,
			expected: time.UnixMilli(1700000000000),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, NormalizeTimestamp(tc.ts).Equal(tc.expected))
		})
	}
}

func TestBoughtOn(t *testing.T) {
	r := PurchaseRecord{Symbol: "BTC/USDT", Timestamp: 1700000000000}
	assert.True(t, r.BoughtOn().Equal(time.UnixMilli(1700000000000)))
}
