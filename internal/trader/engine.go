package trader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"buydips-go/internal/binance"
	"buydips-go/internal/config"
	"buydips-go/internal/models"
	"buydips-go/internal/notifier"
	"buydips-go/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Engine is the polling loop that watches for price dips and places
// market buy orders. It runs single-threaded: one batched ticker fetch,
// one decision per symbol, then a sleep.
type Engine struct {
	logger     *zap.Logger
	cfg        *config.Config
	restClient binance.RestClientInterface
	store      *store.OrderStore
	notifier   notifier.Notifier
	symbols    []string
	orders     map[string]models.PurchaseRecord
}

// NewEngine creates a new trading engine for the given symbols.
// Symbols are expected in slash form, e.g. "BTC/USDT".
func NewEngine(logger *zap.Logger, cfg *config.Config, restClient binance.RestClientInterface,
	orderStore *store.OrderStore, notify notifier.Notifier, symbols []string) *Engine {
	return &Engine{
		logger:     logger,
		cfg:        cfg,
		restClient: restClient,
		store:      orderStore,
		notifier:   notify,
		symbols:    symbols,
	}
}

// Run executes the loop until the context is cancelled or a fatal error
// occurs. Fatal errors (unsupported symbols, exhausted fetch retries)
// are returned so the process can exit non-zero.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.initialize(); err != nil {
		return err
	}

	interval := minutesToDuration(e.cfg.Trading.Frequency)

	for {
		if err := e.cycle(ctx); err != nil {
			return err
		}

		e.logger.Info("Checking again for price drops", zap.Duration("in", interval))
		select {
		case <-ctx.Done():
			e.logger.Info("Stopping trading engine...")
			return nil
		case <-time.After(interval):
		}
	}
}

// initialize validates the tracked symbols against the exchange and
// loads the purchase history.
func (e *Engine) initialize() error {
	startMsg := "Starting new session"
	if e.cfg.Trading.DryRun {
		startMsg += " (running in simulation mode)"
	}
	e.logger.Info(startMsg)

	unsupported, err := e.restClient.UnsupportedSymbols(e.symbols)
	if err != nil {
		return fmt.Errorf("could not verify symbol support: %w", err)
	}
	if len(unsupported) > 0 {
		return fmt.Errorf("the following symbol(s) are not supported by the exchange: %s",
			strings.Join(unsupported, ", "))
	}

	orders, err := e.store.Load()
	if err != nil {
		return fmt.Errorf("could not load purchase history: %w", err)
	}
	e.orders = orders

	e.logger.Info("Tracking price drops", zap.Strings("symbols", e.symbols))
	e.logger.Info("Buy thresholds set",
		zap.Float64("min_drop_pct", e.cfg.Trading.MinInitialDrop),
		zap.Float64("min_additional_drop_pct", e.cfg.Trading.MinAdditionalDrop))
	e.logger.Info("Run with --verbose to see per-symbol decisions")

	if len(e.orders) > 0 {
		e.logger.Info("Previously bought:")
		for symbol, record := range e.orders {
			e.logger.Info("  position",
				zap.String("symbol", symbol),
				zap.String("amount", record.Amount.String()),
				zap.String("price", record.Price.String()))
		}
	}

	return nil
}

// cycle performs one CHECKING pass: fetch the batched ticker snapshot
// and evaluate every tracked symbol.
func (e *Engine) cycle(ctx context.Context) error {
	tickers, err := e.restClient.Get24hTickers(e.symbols)
	if err != nil {
		// The client already retried with backoff; this is fatal.
		return fmt.Errorf("could not fetch tickers: %w", err)
	}

	for _, symbol := range e.symbols {
		ticker, ok := tickers[symbol]
		if !ok {
			e.logger.Warn("No ticker data for symbol in this cycle", zap.String("symbol", symbol))
			continue
		}

		var record *models.PurchaseRecord
		if r, bought := e.orders[symbol]; bought {
			record = &r
		}

		decision := Detect(ticker, record, e.cfg.Trading.MinInitialDrop, e.cfg.Trading.MinAdditionalDrop, time.Now())
		if decision.Action == Hold {
			e.logger.Debug("Not enough discount",
				zap.String("symbol", symbol),
				zap.String("last", ticker.Last.String()),
				zap.String("percentage", ticker.Percentage.StringFixed(1)))
			continue
		}

		if err := e.buy(ctx, symbol, ticker, decision); err != nil {
			return err
		}
	}

	return nil
}

// buy submits (or simulates) a market buy for the fixed quote amount
// and records the purchase on success.
func (e *Engine) buy(ctx context.Context, symbol string, ticker binance.Ticker, decision Decision) error {
	quoteAmount := decimal.NewFromFloat(e.cfg.Trading.OrderAmount)

	l := e.logger.With(
		zap.String("symbol", symbol),
		zap.String("price", ticker.Last.String()),
		zap.String("quote_amount", quoteAmount.String()),
	)

	var record models.PurchaseRecord
	if e.cfg.Trading.DryRun {
		l.Warn("Dry run enabled. No real order will be placed.")
		record = models.PurchaseRecord{
			Symbol: symbol,
			Price:  ticker.Last,
			Amount: quoteAmount.Div(ticker.Last),
			// Fractional seconds mark the simulated fill, mirroring how
			// real fills carry integer milliseconds.
			Timestamp: float64(time.Now().UnixNano()) / float64(time.Second),
		}
	} else {
		order, err := e.restClient.CreateMarketBuy(symbol, quoteAmount)
		if errors.Is(err, binance.ErrInsufficientFunds) {
			msg := fmt.Sprintf("Insufficient funds. Trying again in %g minutes...", e.cfg.Trading.RetryAfter)
			l.Warn(msg)
			e.notifier.Notify(msg)
			// Pause-the-world: the whole loop waits, not just this symbol.
			e.pause(ctx, minutesToDuration(e.cfg.Trading.RetryAfter))
			return nil
		}
		if err != nil {
			l.Error("Failed to place buy order, skipping symbol this cycle", zap.Error(err))
			return nil
		}

		executedQty, err := decimal.NewFromString(order.ExecutedQuantity)
		if err != nil {
			return fmt.Errorf("could not parse executed quantity %q: %w", order.ExecutedQuantity, err)
		}
		quoteQty, err := decimal.NewFromString(order.CummulativeQuoteQty)
		if err != nil {
			return fmt.Errorf("could not parse quote quantity %q: %w", order.CummulativeQuoteQty, err)
		}

		price := ticker.Last
		if executedQty.IsPositive() {
			price = quoteQty.Div(executedQty)
		}

		record = models.PurchaseRecord{
			Symbol:    symbol,
			Price:     price,
			Amount:    executedQty,
			Timestamp: float64(order.TransactTime),
		}
	}

	e.orders[symbol] = record
	if err := e.store.Save(e.orders); err != nil {
		// Keep running on a persistence failure; the in-memory state is
		// still correct for this session.
		l.Error("Failed to persist purchase record", zap.Error(err))
	}

	var msg string
	if decision.Action == BuyAgain {
		msg = fmt.Sprintf("Buying %s @ %s, %s%% lower than previous buy",
			symbol, ticker.Last.String(), decision.DiscountPct.StringFixed(1))
	} else {
		msg = fmt.Sprintf("Buying %s @ %s, %s%% lower than 24h ago",
			symbol, ticker.Last.String(), decision.DiscountPct.StringFixed(1))
	}
	l.Info(msg)
	e.notifier.Notify(msg)

	return nil
}

// pause blocks the whole loop for the given duration, honoring context
// cancellation.
func (e *Engine) pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func minutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}
