package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"rebalancer/types"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

const (
	DefaultEODHDURL = "https://eodhd.com/api"
	DefaultExchange = "US"
)

var ErrQuoteNotFound = errors.New("no quote returned")

// EODHD prices equities from eodhd.com. Tickers without an exchange suffix
// are looked up on the configured exchange ("SPY" becomes "SPY.US").
type EODHD struct {
	http     *HTTPClient
	baseURL  string
	apiKey   string
	exchange string
	currency string
	now      func() time.Time
}

type EODHDConfig struct {
	BaseURL  string
	APIKey   string
	Exchange string
	// Currency tags the returned prices; EODHD quotes in the exchange's currency.
	Currency string
	Timeout  time.Duration
}

func NewEODHD(cfg EODHDConfig) *EODHD {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultEODHDURL
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &EODHD{
		http:     NewHTTPClient(cfg.Timeout),
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   cfg.APIKey,
		exchange: strings.ToUpper(exchange),
		currency: strings.ToUpper(cfg.Currency),
		now:      time.Now,
	}
}

func (g *EODHD) ticker(symbol string) string {
	if strings.Contains(symbol, ".") {
		return symbol
	}
	return symbol + "." + g.exchange
}

func (g *EODHD) endpoint(path, ticker string, q url.Values) string {
	q.Set("fmt", "json")
	q.Set("api_token", g.apiKey)
	return fmt.Sprintf("%s/%s/%s?%s", g.baseURL, path, url.PathEscape(ticker), q.Encode())
}

type realTimeResponse struct {
	Code      string          `json:"code"`
	Timestamp int64           `json:"timestamp"`
	Close     decimal.Decimal `json:"close"`
}

// LatestQuote calls /real-time/{ticker}.
func (g *EODHD) LatestQuote(ctx context.Context, symbol string) (types.Quote, error) {
	body, err := g.http.Get(ctx, g.endpoint("real-time", g.ticker(symbol), url.Values{}), nil)
	if err != nil {
		return types.Quote{}, fmt.Errorf("get quote for %s: %w", symbol, err)
	}
	var resp realTimeResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return types.Quote{}, fmt.Errorf("unmarshal quote for %s: %w", symbol, err)
	}
	if resp.Code == "" || !resp.Close.IsPositive() {
		return types.Quote{}, fmt.Errorf("%s: %w", symbol, ErrQuoteNotFound)
	}
	return types.Quote{
		Symbol:   symbol,
		Close:    resp.Close,
		Currency: g.currency,
		Time:     time.Unix(resp.Timestamp, 0).UTC(),
	}, nil
}

// LatestPrice is LatestQuote as a Money amount.
func (g *EODHD) LatestPrice(ctx context.Context, symbol string) (types.Money, error) {
	q, err := g.LatestQuote(ctx, symbol)
	if err != nil {
		return types.Money{}, err
	}
	return q.Price(), nil
}

type eodBar struct {
	Date          string          `json:"date"`
	Close         decimal.Decimal `json:"close"`
	AdjustedClose decimal.Decimal `json:"adjusted_close"`
}

// DailyCloses calls /eod/{ticker} and returns the last days split-adjusted
// closes, oldest first. Markets close on weekends, so the requested calendar
// window is twice as long as days.
func (g *EODHD) DailyCloses(ctx context.Context, symbol string, days int) ([]types.DailyClose, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	to := g.now().UTC()
	q := url.Values{}
	q.Set("period", "d")
	q.Set("order", "a")
	q.Set("from", to.AddDate(0, 0, -2*days-7).Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))

	body, err := g.http.Get(ctx, g.endpoint("eod", g.ticker(symbol), q), nil)
	if err != nil {
		return nil, fmt.Errorf("get daily closes for %s: %w", symbol, err)
	}
	var bars []eodBar
	if err := sonic.Unmarshal(body, &bars); err != nil {
		return nil, fmt.Errorf("unmarshal daily closes for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s daily closes: %w", symbol, ErrQuoteNotFound)
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}

	closes := make([]types.DailyClose, 0, len(bars))
	for _, b := range bars {
		day, err := time.Parse(time.DateOnly, b.Date)
		if err != nil {
			return nil, fmt.Errorf("%s close date %q: %w", symbol, b.Date, err)
		}
		price := b.AdjustedClose
		if !price.IsPositive() {
			price = b.Close
		}
		closes = append(closes, types.DailyClose{Date: day, Close: price})
	}
	return closes, nil
}
