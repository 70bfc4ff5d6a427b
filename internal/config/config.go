package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application. It is loaded once
// at startup and treated as immutable for the rest of the run.
type Config struct {
	Binance  Binance  `mapstructure:"binance"`
	Trading  Trading  `mapstructure:"trading"`
	Telegram Telegram `mapstructure:"telegram"`
	Email    Email    `mapstructure:"email"`
	Logger   Logger   `mapstructure:"logger"`
	Database Database `mapstructure:"database"`
}

// Binance holds the configuration for the Binance API.
type Binance struct {
	ApiKey         string  `mapstructure:"apiKey"`
	SecretKey      string  `mapstructure:"secretKey"`
	Testnet        bool    `mapstructure:"testnet"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Database holds the configuration for the order store database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Trading holds the dip-buying parameters.
type Trading struct {
	Symbols []string `mapstructure:"symbols"`
	// QuoteCurrency is appended to symbols given without one, e.g. BTC -> BTC/USDT.
	QuoteCurrency string `mapstructure:"quote_currency"`
	// OrderAmount is the fixed amount of quote currency spent per buy.
	OrderAmount float64 `mapstructure:"order_amount"`
	// Frequency is the polling interval in minutes.
	Frequency float64 `mapstructure:"frequency"`
	// MinInitialDrop is the 24h drop percentage that triggers a first buy.
	MinInitialDrop float64 `mapstructure:"min_initial_drop"`
	// MinAdditionalDrop is the drop percentage relative to the previous
	// buy price that triggers buying the same symbol again.
	MinAdditionalDrop float64 `mapstructure:"min_additional_drop"`
	// RetryAfter is the whole-loop pause in minutes after an
	// insufficient-funds failure.
	RetryAfter float64 `mapstructure:"retry_after"`
	DryRun     bool    `mapstructure:"dry_run"`
}

// Telegram holds the notification channel target. The bot token comes
// from the TELEGRAM_BOT_TOKEN environment variable, never from file.
type Telegram struct {
	ChatID int64 `mapstructure:"chat_id"`
}

// Email holds the SMTP delivery channel settings.
type Email struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Sender   string `mapstructure:"sender"`
	Receiver string `mapstructure:"receiver"`
	Password string `mapstructure:"password"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
// Command-line flags, when given, take precedence over both.
func LoadConfig(path string, flags *pflag.FlagSet) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("binance.rate_limit", 20)      // requests per second
	viper.SetDefault("binance.rate_limit_burst", 5) // burst size
	viper.SetDefault("database.dsn", "buydips.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("trading.quote_currency", "USDT")
	viper.SetDefault("trading.order_amount", 100)
	viper.SetDefault("trading.frequency", 10)
	viper.SetDefault("trading.min_initial_drop", 7)
	viper.SetDefault("trading.min_additional_drop", 2)
	viper.SetDefault("trading.retry_after", 30)
	viper.SetDefault("trading.dry_run", false)

	if flags != nil {
		if err = bindFlags(flags); err != nil {
			return
		}
	}

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// bindFlags maps the CLI option surface onto config keys so that an
// explicitly given flag beats the file value.
func bindFlags(flags *pflag.FlagSet) error {
	for flag, key := range map[string]string{
		"amount-usd":     "trading.order_amount",
		"freq":           "trading.frequency",
		"min-drop":       "trading.min_initial_drop",
		"next-drop":      "trading.min_additional_drop",
		"quote-currency": "trading.quote_currency",
		"dry-run":        "trading.dry_run",
	} {
		if f := flags.Lookup(flag); f != nil && f.Changed {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}
