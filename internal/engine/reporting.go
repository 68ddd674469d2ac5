package engine

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"rebalancer/types"

	"github.com/shopspring/decimal"
)

var ErrNotEnoughHistory = errors.New("need at least two closes")

// periodsPerYear annualizes daily statistics; crypto markets never close.
const periodsPerYear = 365.0

// HistoryReport summarizes a daily close series of one holding.
type HistoryReport struct {
	Symbol string

	// Meta / period info
	Start time.Time
	End   time.Time
	Days  int

	// Absolute performance
	FirstClose decimal.Decimal
	LastClose  decimal.Decimal
	Return     decimal.Decimal
	CAGR       decimal.Decimal

	// Drawdown metrics
	MaxDrawdown        decimal.Decimal
	MaxDrawdownPercent decimal.Decimal
	MaxDrawdownDays    time.Duration

	// Risk-adjusted metrics
	Volatility  decimal.Decimal
	SharpeRatio decimal.Decimal
}

// NewHistoryReport expects closes in chronological order.
func NewHistoryReport(symbol string, closes []types.DailyClose, annualRiskFree decimal.Decimal) (*HistoryReport, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotEnoughHistory)
	}
	first, last := closes[0], closes[len(closes)-1]
	if !first.Close.IsPositive() {
		return nil, fmt.Errorf("%s first close %s: %w", symbol, first.Close, ErrInvalidPrice)
	}

	report := &HistoryReport{
		Symbol:     symbol,
		Start:      first.Date,
		End:        last.Date,
		Days:       len(closes),
		FirstClose: first.Close,
		LastClose:  last.Close,
		Return:     last.Close.Div(first.Close).Sub(decimal.NewFromInt(1)),
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		report.CAGR = calcCAGR(closes, &wg)
	}()
	go func() {
		report.MaxDrawdown, report.MaxDrawdownPercent, report.MaxDrawdownDays = calcDrawdownMetrics(closes, &wg)
	}()
	go func() {
		report.Volatility, report.SharpeRatio = calcVolatilityAndSharpe(closes, annualRiskFree, &wg)
	}()
	wg.Wait()

	return report, nil
}

func (r *HistoryReport) Print(w io.Writer) {
	fmt.Fprintf(w, "===== %s History =====\n", r.Symbol)
	fmt.Fprintf(w, "Period:                %s to %s\n", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	fmt.Fprintf(w, "Closes:                %d\n", r.Days)

	fmt.Fprintln(w, "\n-- Absolute Performance --")
	fmt.Fprintf(w, "First Close:           %s\n", r.FirstClose)
	fmt.Fprintf(w, "Last Close:            %s\n", r.LastClose)
	fmt.Fprintf(w, "Return:                %s\n", r.Return.StringFixed(4))
	fmt.Fprintf(w, "CAGR:                  %s\n", r.CAGR.StringFixed(4))

	fmt.Fprintln(w, "\n-- Drawdown Metrics --")
	fmt.Fprintf(w, "Max Drawdown:          %s\n", r.MaxDrawdown)
	fmt.Fprintf(w, "Max Drawdown %%:        %s\n", r.MaxDrawdownPercent.StringFixed(4))
	fmt.Fprintf(w, "Max Drawdown Days:     %d\n", r.MaxDrawdownDays/(24*time.Hour))

	fmt.Fprintln(w, "\n-- Risk-Adjusted Metrics --")
	fmt.Fprintf(w, "Volatility (ann.):     %s\n", r.Volatility.StringFixed(4))
	fmt.Fprintf(w, "Sharpe Ratio:          %s\n", r.SharpeRatio.StringFixed(4))
	fmt.Fprintln(w, "==========================")
}

func calcCAGR(closes []types.DailyClose, wg *sync.WaitGroup) decimal.Decimal {
	defer wg.Done()

	first, last := closes[0], closes[len(closes)-1]
	// time difference in years (using 365.25 days to account for leap years)
	duration := last.Date.Sub(first.Date)
	if duration <= 0 {
		return decimal.Zero
	}
	years := duration.Hours() / (24.0 * 365.25)

	ratio := last.Close.Div(first.Close)
	if !ratio.IsPositive() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(math.Pow(ratio.InexactFloat64(), 1.0/years) - 1.0)
}

func calcDrawdownMetrics(closes []types.DailyClose, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal, time.Duration) {
	defer wg.Done()

	peak := closes[0].Close
	peakTime := closes[0].Date

	maxDD := decimal.Zero
	maxDDPct := decimal.Zero
	var maxDDDuration time.Duration

	for _, c := range closes {
		if c.Close.GreaterThan(peak) {
			peak = c.Close
			peakTime = c.Date
			continue
		}
		if dd := peak.Sub(c.Close); dd.GreaterThan(maxDD) {
			maxDD = dd
			maxDDPct = dd.Div(peak)
			maxDDDuration = c.Date.Sub(peakTime)
		}
	}
	return maxDD, maxDDPct, maxDDDuration
}

// calcVolatilityAndSharpe annualizes the sample standard deviation of daily
// returns and the mean daily excess return over it.
func calcVolatilityAndSharpe(closes []types.DailyClose, annualRiskFree decimal.Decimal, wg *sync.WaitGroup) (decimal.Decimal, decimal.Decimal) {
	defer wg.Done()

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		prev := closes[i-1].Close
		if !prev.IsPositive() {
			continue
		}
		returns = append(returns, closes[i].Close.Div(prev).Sub(decimal.NewFromInt(1)).InexactFloat64())
	}
	if len(returns) < 2 {
		return decimal.Zero, decimal.Zero
	}

	// rf_daily = (1 + rf_annual)^(1/365) - 1
	rfDaily := math.Pow(1.0+annualRiskFree.InexactFloat64(), 1.0/periodsPerYear) - 1.0

	var sum, excessSum float64
	for _, r := range returns {
		sum += r
		excessSum += r - rfDaily
	}
	mean := sum / float64(len(returns))
	meanExcess := excessSum / float64(len(returns))

	var varianceSum float64
	for _, r := range returns {
		diff := r - mean
		varianceSum += diff * diff
	}
	std := math.Sqrt(varianceSum / float64(len(returns)-1))
	volatility := decimal.NewFromFloat(std * math.Sqrt(periodsPerYear))
	if std == 0 {
		return volatility, decimal.Zero
	}
	return volatility, decimal.NewFromFloat(meanExcess / std * math.Sqrt(periodsPerYear))
}
