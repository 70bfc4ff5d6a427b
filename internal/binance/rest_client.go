package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"buydips-go/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	baseURL         = "https://api.binance.com/api/v3"
	testnetBaseURL  = "https://testnet.binance.vision/api/v3"
	recvWindow      = "5000" // How long a request is valid in milliseconds
	OrderTypeMarket = "MARKET"
	OrderSideBuy    = "BUY"

	// Binance error code for "Account has insufficient balance".
	codeInsufficientBalance = -2010
)

// ErrInsufficientFunds is returned when the account balance cannot
// cover the requested order. It is recoverable: callers back off and
// keep running.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ticker is one symbol's 24h statistics, keyed by slash-form symbol
// in the maps returned by Get24hTickers.
type Ticker struct {
	Last       decimal.Decimal
	Percentage decimal.Decimal
}

// RestClientInterface defines the narrow exchange contract the trading
// loop depends on.
type RestClientInterface interface {
	GetServerTime() (int64, error)
	UnsupportedSymbols(symbols []string) ([]string, error)
	Get24hTickers(symbols []string) (map[string]Ticker, error)
	CreateMarketBuy(symbol string, quoteAmount decimal.Decimal) (*CreateOrderResponse, error)
}

// RestClient is a client for the Binance REST API.
// It implements the RestClientInterface.
type RestClient struct {
	client    *resty.Client
	apiKey    string
	secretKey string
	logger    *zap.Logger
	limiter   *rate.Limiter
}

// ensure RestClient implements the interface
var _ RestClientInterface = (*RestClient)(nil)

// NewRestClient creates a new Binance REST API client.
func NewRestClient(cfg *config.Binance, logger *zap.Logger) *RestClient {
	var url string
	if cfg.Testnet {
		url = testnetBaseURL
		logger.Warn("Using Binance Testnet")
	} else {
		url = baseURL
		logger.Info("Using Binance Production API")
	}

	client := resty.New().SetBaseURL(url)

	// Initialize the rate limiter
	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &RestClient{
		client:    client,
		apiKey:    cfg.ApiKey,
		secretKey: cfg.SecretKey,
		logger:    logger,
		limiter:   limiter,
	}
}

// sign creates a HMAC-SHA256 signature for the request.
func (c *RestClient) sign(data string) string {
	h := hmac.New(sha256.New, []byte(c.secretKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// apiSymbol converts a slash-form symbol to the exchange's
// concatenated form, e.g. "BTC/USDT" -> "BTCUSDT".
func apiSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

// GetServerTime fetches the current server time from Binance.
// This is a good endpoint to test connectivity.
func (c *RestClient) GetServerTime() (int64, error) {
	type ServerTimeResponse struct {
		ServerTime int64 `json:"serverTime"`
	}

	req := c.client.R().
		SetResult(&ServerTimeResponse{})
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/time", req)
	if err != nil {
		c.logger.Error("Failed to get server time", zap.Error(err))
		return 0, fmt.Errorf("failed to get server time: %w", err)
	}

	result := resp.Result().(*ServerTimeResponse)
	return result.ServerTime, nil
}

// apiError is the error body Binance returns alongside 4xx statuses.
type apiError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() != 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests || statusCode == 418 { // HTTP 429 or 418
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			var body apiError
			if jsonErr := json.Unmarshal(resp.Body(), &body); jsonErr == nil && body.Code == codeInsufficientBalance {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientFunds, body.Msg)
			}
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// ticker24hResponse is the raw /ticker/24hr entry for one symbol.
type ticker24hResponse struct {
	Symbol             string `json:"symbol"`
	LastPrice          string `json:"lastPrice"`
	PriceChangePercent string `json:"priceChangePercent"`
}

// Get24hTickers fetches 24h statistics for the given slash-form
// symbols in a single batched request. The result map is keyed by the
// slash-form symbols that were passed in.
func (c *RestClient) Get24hTickers(symbols []string) (map[string]Ticker, error) {
	apiToSlash := make(map[string]string, len(symbols))
	names := make([]string, 0, len(symbols))
	for _, s := range symbols {
		api := apiSymbol(s)
		apiToSlash[api] = s
		names = append(names, strconv.Quote(api))
	}

	var tickers []*ticker24hResponse

	req := c.client.R().
		SetQueryParam("symbols", "["+strings.Join(names, ",")+"]").
		SetResult(&tickers).
		SetHeader("Content-Type", "application/json")
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/ticker/24hr", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get 24h tickers: %w", err)
	}

	result := resp.Result().(*[]*ticker24hResponse)
	tickerMap := make(map[string]Ticker, len(*result))
	for _, t := range *result {
		slash, ok := apiToSlash[t.Symbol]
		if !ok {
			continue
		}
		last, err := decimal.NewFromString(t.LastPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to parse last price for %s: %w", slash, err)
		}
		pct, err := decimal.NewFromString(t.PriceChangePercent)
		if err != nil {
			return nil, fmt.Errorf("failed to parse price change for %s: %w", slash, err)
		}
		tickerMap[slash] = Ticker{Last: last, Percentage: pct}
	}

	return tickerMap, nil
}

// ExchangeInfoResponse represents the full response from the /exchangeInfo endpoint.
type ExchangeInfoResponse struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// SymbolInfo contains information about a specific trading symbol.
type SymbolInfo struct {
	Symbol string `json:"symbol"`
	Status string `json:"status"`
}

// GetExchangeInfo fetches exchange trading rules and symbol information.
func (c *RestClient) GetExchangeInfo() (*ExchangeInfoResponse, error) {
	var exchangeInfo ExchangeInfoResponse

	req := c.client.R().
		SetResult(&exchangeInfo).
		SetHeader("Content-Type", "application/json")
	ctx := context.Background()

	resp, err := c.doRequest(ctx, "GET", "/exchangeInfo", req)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange info: %w", err)
	}

	return resp.Result().(*ExchangeInfoResponse), nil
}

// UnsupportedSymbols returns the subset of the given slash-form symbols
// that are not tradable on the exchange.
func (c *RestClient) UnsupportedSymbols(symbols []string) ([]string, error) {
	info, err := c.GetExchangeInfo()
	if err != nil {
		return nil, err
	}

	tradable := make(map[string]struct{}, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status == "TRADING" {
			tradable[s.Symbol] = struct{}{}
		}
	}

	var unsupported []string
	for _, s := range symbols {
		if _, ok := tradable[apiSymbol(s)]; !ok {
			unsupported = append(unsupported, s)
		}
	}
	return unsupported, nil
}

// CreateOrderResponse represents the response from creating a new order.
type CreateOrderResponse struct {
	Symbol              string `json:"symbol"`
	OrderID             int64  `json:"orderId"`
	ClientOrderID       string `json:"clientOrderId"`
	TransactTime        int64  `json:"transactTime"`
	Price               string `json:"price"`
	OrigQuantity        string `json:"origQty"`
	ExecutedQuantity    string `json:"executedQty"`
	CummulativeQuoteQty string `json:"cummulativeQuoteQty"`
	Status              string `json:"status"`
	TimeInForce         string `json:"timeInForce"`
	Type                string `json:"type"`
	Side                string `json:"side"`
}

// CreateMarketBuy places a market buy order spending the given amount of
// quote currency (quoteOrderQty) on the slash-form symbol.
func (c *RestClient) CreateMarketBuy(symbol string, quoteAmount decimal.Decimal) (*CreateOrderResponse, error) {
	params := url.Values{}
	params.Set("symbol", apiSymbol(symbol))
	params.Set("side", OrderSideBuy)
	params.Set("type", OrderTypeMarket)
	params.Set("quoteOrderQty", quoteAmount.String())
	params.Set("timestamp", fmt.Sprintf("%d", time.Now().UnixMilli()))
	params.Set("recvWindow", recvWindow)

	queryString := params.Encode()
	signature := c.sign(queryString)
	params.Set("signature", signature)

	req := c.client.R().
		SetHeader("X-MBX-APIKEY", c.apiKey).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody(params.Encode()).
		SetResult(&CreateOrderResponse{})

	ctx := context.Background()

	resp, err := c.doRequest(ctx, "POST", "/order", req)
	if err != nil {
		if !errors.Is(err, ErrInsufficientFunds) {
			c.logger.Error("Failed to create order after multiple attempts",
				zap.Error(err),
				zap.String("symbol", symbol),
			)
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	result := resp.Result().(*CreateOrderResponse)
	c.logger.Info("Successfully created order", zap.Any("order", result))
	return result, nil
}
