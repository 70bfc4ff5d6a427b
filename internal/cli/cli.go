package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// Options is the parsed command-line surface. Threshold and amount
// flags are only meaningful when explicitly set; they are bound into
// the configuration layer so that a given flag beats the file value.
type Options struct {
	// Symbols are the positional arguments, e.g. "BTC" or "ETH/USDC".
	Symbols    []string
	ResetCache bool
	Verbose    bool

	// Flags is the parsed set, handed to the config loader for binding.
	Flags *pflag.FlagSet
}

// Parse reads the command-line arguments (excluding the program name).
func Parse(args []string) (*Options, error) {
	fs := pflag.NewFlagSet("buydips", pflag.ContinueOnError)

	fs.Float64P("amount-usd", "a", 0, "Amount of quote currency to spend per buy order")
	fs.Float64P("freq", "f", 0, "Frequency in minutes to check for new price drops")
	fs.Float64P("min-drop", "m", 0, "Min drop in percentage in the last 24 hours for placing a buy order")
	fs.Float64P("next-drop", "n", 0, "Min additional drop in percentage to buy a symbol previously bought")
	fs.String("quote-currency", "", "Quote currency to use when none is given in the symbols list")
	fs.Bool("dry-run", false, "Run in simulation mode, don't buy anything")
	resetCache := fs.BoolP("reset-cache", "r", false, "Reset info of previous operations")
	verbose := fs.BoolP("verbose", "v", false, "Verbose mode")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Options{
		Symbols:    fs.Args(),
		ResetCache: *resetCache,
		Verbose:    *verbose,
		Flags:      fs,
	}, nil
}

// NormalizeSymbols upper-cases the given symbols and appends the quote
// currency to any symbol given without one, e.g. "btc" -> "BTC/USDT".
func NormalizeSymbols(symbols []string, quoteCurrency string) []string {
	normalized := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(s)
		if !strings.Contains(s, "/") {
			s = s + "/" + strings.ToUpper(quoteCurrency)
		}
		normalized = append(normalized, s)
	}
	return normalized
}
