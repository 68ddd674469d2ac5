package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"rebalancer/types"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"
)

const DefaultCoinGeckoURL = "https://api.coingecko.com/api/v3"

var (
	ErrPriceNotFound = errors.New("no price returned")
	ErrInvalidDays   = errors.New("days must be positive")
)

// CoinGecko prices crypto assets by CoinGecko coin id ("ethereum") in a
// single quote currency.
type CoinGecko struct {
	http     *HTTPClient
	baseURL  string
	currency string
	apiKey   string
}

type CoinGeckoConfig struct {
	BaseURL string
	// Currency is the ISO code prices are returned in.
	Currency string
	// APIKey is sent as x-cg-demo-api-key when set.
	APIKey  string
	Timeout time.Duration
}

func NewCoinGecko(cfg CoinGeckoConfig) *CoinGecko {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultCoinGeckoURL
	}
	return &CoinGecko{
		http:     NewHTTPClient(cfg.Timeout),
		baseURL:  strings.TrimRight(baseURL, "/"),
		currency: strings.ToUpper(cfg.Currency),
		apiKey:   cfg.APIKey,
	}
}

func (g *CoinGecko) vsCurrency() string { return strings.ToLower(g.currency) }

func (g *CoinGecko) headers() map[string]string {
	h := map[string]string{"Accept": "application/json"}
	if g.apiKey != "" {
		h["x-cg-demo-api-key"] = g.apiKey
	}
	return h
}

// LatestPrice calls /simple/price for a single coin id.
func (g *CoinGecko) LatestPrice(ctx context.Context, id string) (types.Money, error) {
	q := url.Values{}
	q.Set("ids", id)
	q.Set("vs_currencies", g.vsCurrency())
	body, err := g.http.Get(ctx, g.baseURL+"/simple/price?"+q.Encode(), g.headers())
	if err != nil {
		return types.Money{}, fmt.Errorf("get price for %s: %w", id, err)
	}

	var resp map[string]map[string]decimal.Decimal
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return types.Money{}, fmt.Errorf("unmarshal price response for %s: %w", id, err)
	}
	price, ok := resp[id][g.vsCurrency()]
	if !ok {
		return types.Money{}, fmt.Errorf("%s in %s: %w", id, g.currency, ErrPriceNotFound)
	}
	return types.NewMoney(price, g.currency), nil
}

type marketChartResponse struct {
	Prices [][2]decimal.Decimal `json:"prices"`
}

// DailyCloses calls /coins/{id}/market_chart at daily granularity and
// returns the last days points, oldest first.
func (g *CoinGecko) DailyCloses(ctx context.Context, id string, days int) ([]types.DailyClose, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	q := url.Values{}
	q.Set("vs_currency", g.vsCurrency())
	// The series ends with the current price, so days-1 full days yield days points.
	q.Set("days", strconv.Itoa(max(days-1, 1)))
	q.Set("interval", "daily")
	endpoint := fmt.Sprintf("%s/coins/%s/market_chart?%s", g.baseURL, url.PathEscape(id), q.Encode())

	body, err := g.http.Get(ctx, endpoint, g.headers())
	if err != nil {
		return nil, fmt.Errorf("get market chart for %s: %w", id, err)
	}
	var resp marketChartResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal market chart for %s: %w", id, err)
	}
	if len(resp.Prices) == 0 {
		return nil, fmt.Errorf("%s market chart: %w", id, ErrPriceNotFound)
	}

	points := resp.Prices
	if len(points) > days {
		points = points[len(points)-days:]
	}
	closes := make([]types.DailyClose, 0, len(points))
	for _, p := range points {
		closes = append(closes, types.DailyClose{
			Date:  time.UnixMilli(p[0].IntPart()).UTC(),
			Close: p[1],
		})
	}
	return closes, nil
}
