package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	opts, err := Parse([]string{"BTC", "ETH", "--freq", "5", "-m", "8", "--dry-run", "-v"})
	require.NoError(t, err)

	assert.Equal(t, []string{"BTC", "ETH"}, opts.Symbols)
	assert.True(t, opts.Verbose)
	assert.False(t, opts.ResetCache)

	freq, err := opts.Flags.GetFloat64("freq")
	require.NoError(t, err)
	assert.Equal(t, 5.0, freq)
	assert.True(t, opts.Flags.Lookup("min-drop").Changed)
	assert.False(t, opts.Flags.Lookup("next-drop").Changed)
}

func TestParse_NoArgs(t *testing.T) {
	opts, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, opts.Symbols)
}

func TestNormalizeSymbols(t *testing.T) {
	testCases := []struct {
		name     string
		symbols  []string
		quote    string
		expected []string
	}{
		{
			name:     "AppendsQuoteCurrency",
			symbols:  []string{"BTC", "ETH"},
			quote:    "USDT",
			expected: []string{"BTC/USDT", "ETH/USDT"},
		},
		{
			name:     "KeepsExplicitQuote",
			symbols:  []string{"ETH/USDC"},
			quote:    "USDT",
			expected: []string{"ETH/USDC"},
		},
		{
			name:     "UpperCases",
			symbols:  []string{"btc", "dot/usdt"},
			quote:    "usdt",
			expected: []string{"BTC/USDT", "DOT/USDT"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeSymbols(tc.symbols, tc.quote))
		})
	}
}
