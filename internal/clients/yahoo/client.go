// Package yahoo provides a client for the Yahoo Finance chart API.
// Quotes are converted to integer cents at the boundary; everything
// downstream works in cents.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/markhallen/portfoliopro/internal/common"
	"github.com/markhallen/portfoliopro/internal/interfaces"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultExchange  = "AX" // ASX suffix, e.g. "VAS.AX"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the PriceClient interface against the Yahoo v8 chart
// endpoint.
type Client struct {
	baseURL    string
	exchange   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithExchange sets the ticker suffix appended to codes. Empty means the
// code is used as-is.
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		c.exchange = exchange
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		exchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// chartResponse mirrors the subset of the Yahoo chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				Currency           string  `json:"currency"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// symbol builds the full Yahoo symbol for a ticker code.
func (c *Client) symbol(code string) string {
	if c.exchange == "" {
		return code
	}
	return code + "." + c.exchange
}

// GetPrice fetches the current price for one code in cents. Returns
// interfaces.ErrPriceUnavailable when Yahoo has no quote for the symbol;
// callers substitute average cost.
func (c *Client) GetPrice(ctx context.Context, code string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	symbol := c.symbol(code)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.baseURL, url.PathEscape(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build price request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; PortfolioPro/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("price request for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		c.logger.Warn().Str("symbol", symbol).Int("status", resp.StatusCode).Msg("Price fetch returned non-200")
		return 0, interfaces.ErrPriceUnavailable
	}

	var data chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("failed to decode price response for %s: %w", symbol, err)
	}

	if data.Chart.Error != nil || len(data.Chart.Result) == 0 {
		c.logger.Debug().Str("symbol", symbol).Msg("No quote data for symbol")
		return 0, interfaces.ErrPriceUnavailable
	}

	price := data.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return 0, interfaces.ErrPriceUnavailable
	}

	cents := int64(math.Round(price * 100))
	c.logger.Debug().Str("symbol", symbol).Int64("cents", cents).Msg("Quote fetched")
	return cents, nil
}

// GetPrices fetches quotes for many codes concurrently, one goroutine per
// code, and fans the results into a map. A code that fails or has no quote is
// absent from the map; the batch itself only fails on a nil-context class of
// programmer error, never on per-code lookup failure.
func (c *Client) GetPrices(ctx context.Context, codes []string) (map[string]int64, error) {
	prices := make(map[string]int64, len(codes))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			cents, err := c.GetPrice(ctx, code)
			if err != nil {
				if err != interfaces.ErrPriceUnavailable {
					c.logger.Warn().Err(err).Str("code", code).Msg("Price lookup failed")
				}
				return
			}
			mu.Lock()
			prices[code] = cents
			mu.Unlock()
		}(code)
	}

	wg.Wait()
	return prices, nil
}
