package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *CoinGecko {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewCoinGecko(CoinGeckoConfig{BaseURL: srv.URL + "/", Currency: "usd", APIKey: "k"})
}

func TestCoinGecko_LatestPrice(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{"should return price", http.StatusOK, `{"ethereum":{"usd":3012.45}}`, "3012.45", nil},
		{"should throw ErrPriceNotFound", http.StatusOK, `{}`, "", ErrPriceNotFound},
		{"should throw ErrUnexpectedStatus", http.StatusTooManyRequests, `{"status":{"error_code":429}}`, "", ErrUnexpectedStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/simple/price" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.URL.Query().Get("ids") != "ethereum" || r.URL.Query().Get("vs_currencies") != "usd" {
					t.Errorf("query = %s", r.URL.RawQuery)
				}
				if r.Header.Get("x-cg-demo-api-key") != "k" {
					t.Errorf("api key header missing")
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := g.LatestPrice(context.Background(), "ethereum")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("LatestPrice() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LatestPrice() error = %v", err)
			}
			if !got.Equal(types.NewMoney(decimal.RequireFromString(tt.want), "USD")) {
				t.Errorf("LatestPrice() = %s, want %s USD", got, tt.want)
			}
		})
	}
}

func TestCoinGecko_LatestPriceMalformed(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ethereum":`))
	})
	if _, err := g.LatestPrice(context.Background(), "ethereum"); err == nil {
		t.Error("LatestPrice() error = nil, want decode error")
	}
}

func TestCoinGecko_DailyCloses(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	body := `{"prices":[` +
		`[1704067200000,2300.5],` +
		`[1704153600000,2350],` +
		`[1704240000000,2400.25],` +
		`[1704265000000,2410]` +
		`],"market_caps":[],"total_volumes":[]}`

	var gotDays string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/ethereum/market_chart" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "daily" || r.URL.Query().Get("vs_currency") != "usd" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		gotDays = r.URL.Query().Get("days")
		_, _ = w.Write([]byte(body))
	})

	closes, err := g.DailyCloses(context.Background(), "ethereum", 3)
	if err != nil {
		t.Fatalf("DailyCloses() error = %v", err)
	}
	if gotDays != "2" {
		t.Errorf("days query = %s, want 2", gotDays)
	}
	if len(closes) != 3 {
		t.Fatalf("DailyCloses() returned %d closes, want 3", len(closes))
	}
	if !closes[0].Date.Equal(day.AddDate(0, 0, 1)) || !closes[0].Close.Equal(decimal.NewFromInt(2350)) {
		t.Errorf("first close = %+v", closes[0])
	}
	if !closes[2].Close.Equal(decimal.NewFromInt(2410)) {
		t.Errorf("last close = %+v", closes[2])
	}

	if _, err := g.DailyCloses(context.Background(), "ethereum", 0); !errors.Is(err, ErrInvalidDays) {
		t.Errorf("DailyCloses(0) error = %v, want ErrInvalidDays", err)
	}
}

func TestCoinGecko_DailyClosesEmpty(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[]}`))
	})
	if _, err := g.DailyCloses(context.Background(), "ethereum", 7); !errors.Is(err, ErrPriceNotFound) {
		t.Errorf("DailyCloses() error = %v, want ErrPriceNotFound", err)
	}
}

func TestHTTPClientHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := NewHTTPClient(0).Get(ctx, srv.URL, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Get() error = %v, want context.DeadlineExceeded", err)
	}
}
