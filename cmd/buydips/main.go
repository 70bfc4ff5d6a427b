package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"buydips-go/internal/binance"
	"buydips-go/internal/cli"
	"buydips-go/internal/config"
	"buydips-go/internal/creds"
	"buydips-go/internal/database"
	"buydips-go/internal/logger"
	"buydips-go/internal/notifier"
	"buydips-go/internal/store"
	"buydips-go/internal/trader"
	"go.uber.org/zap"
)

func main() {
	// Parse command-line options
	opts, err := cli.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Load application configuration; explicitly given flags override file values.
	cfg, err := config.LoadConfig("./configs", opts.Flags)
	if err != nil {
		// We can't use the logger here because it's not initialized yet.
		panic(fmt.Sprintf("could not load config: %v", err))
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format, opts.Verbose)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Resolve exchange credentials before anything talks to the exchange.
	credentials, err := creds.Resolve(log)
	if err != nil {
		log.Fatal("Failed to resolve exchange credentials", zap.Error(err))
	}
	binanceCfg := cfg.Binance
	binanceCfg.ApiKey = credentials.ApiKey
	binanceCfg.SecretKey = credentials.SecretKey

	// Initialize the order store database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open order store database", zap.Error(err))
	}
	orderStore := store.NewOrderStore(db)
	if opts.ResetCache {
		if err := orderStore.Reset(); err != nil {
			log.Fatal("Failed to reset purchase history", zap.Error(err))
		}
		log.Info("Purchase history cleared")
	}

	// Initialize Binance REST client
	restClient := binance.NewRestClient(&binanceCfg, log)
	if _, err := restClient.GetServerTime(); err != nil {
		log.Fatal("Failed to connect to Binance API", zap.Error(err))
	}
	log.Info("Successfully connected to Binance API.")

	// Pick the tracked symbols: positional arguments, falling back to config.
	symbols := opts.Symbols
	if len(symbols) == 0 {
		symbols = cfg.Trading.Symbols
	}
	symbols = cli.NormalizeSymbols(symbols, cfg.Trading.QuoteCurrency)
	if len(symbols) == 0 {
		log.Fatal("No symbols to track: pass them as arguments or set trading.symbols in the config")
	}

	notify := selectNotifier(&cfg, log)

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Initialize and run the trading engine
	engine := trader.NewEngine(log, &cfg, restClient, orderStore, notify, symbols)
	if err := engine.Run(ctx); err != nil {
		log.Fatal("Trading engine stopped", zap.Error(err))
	}

	log.Info("Bot has been shut down.")
}

// selectNotifier picks the operator channel: Telegram when a bot token
// and chat id are configured, email when enabled, console otherwise.
func selectNotifier(cfg *config.Config, log *zap.Logger) notifier.Notifier {
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" && cfg.Telegram.ChatID != 0 {
		log.Info("Sending notifications via Telegram", zap.Int64("chat_id", cfg.Telegram.ChatID))
		return notifier.NewTelegramNotifier(token, cfg.Telegram.ChatID, log)
	}
	if cfg.Email.Enabled {
		log.Info("Sending notifications via email", zap.String("receiver", cfg.Email.Receiver))
		return notifier.NewEmailNotifier(cfg.Email, log)
	}
	log.Warn("No notification channel configured, falling back to console")
	return notifier.NewConsoleNotifier(log)
}
