package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"rebalancer/types"

	"github.com/jackc/pgx/v5"
)

// LatestQuote returns the most recent stored close of an equity ticker.
func (db *Database) LatestQuote(ctx context.Context, symbol string) (types.Quote, error) {
	row, err := db.closes.GetLatestClose(ctx, symbol)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Quote{}, fmt.Errorf("symbol %s %w", symbol, ErrSymbolNotFound)
		}
		return types.Quote{}, err
	}
	return types.Quote{
		Symbol:   row.Symbol,
		Close:    row.Close,
		Currency: row.Currency,
		Time:     row.Day,
	}, nil
}

// LatestPrice returns the most recent stored close under a market-data id.
func (db *Database) LatestPrice(ctx context.Context, id string) (types.Money, error) {
	q, err := db.LatestQuote(ctx, id)
	if err != nil {
		return types.Money{}, err
	}
	return q.Price(), nil
}

// DailyCloses returns up to days stored closes, oldest first.
func (db *Database) DailyCloses(ctx context.Context, id string, days int) ([]types.DailyClose, error) {
	if days <= 0 {
		return nil, ErrInvalidDays
	}
	rows, err := db.closes.ListDailyCloses(ctx, ListDailyClosesParams{Symbol: id, Limit: int32(days)})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoCloses
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("symbol %s %w", id, ErrNoCloses)
	}
	return convertCloses(rows), nil
}

// SaveDailyCloses upserts closes of symbol, one row per day.
func (db *Database) SaveDailyCloses(ctx context.Context, symbol, currency string, closes []types.DailyClose) error {
	for _, c := range closes {
		err := db.closes.UpsertDailyClose(ctx, UpsertDailyCloseParams{
			Symbol:   symbol,
			Currency: currency,
			Day:      c.Date,
			Close:    c.Close,
		})
		if err != nil {
			return fmt.Errorf("save %s close %s: %w", symbol, c.Date.Format("2006-01-02"), err)
		}
	}
	return nil
}

func convertCloses(rows []DailyCloseRow) []types.DailyClose {
	closes := make([]types.DailyClose, 0, len(rows))
	for _, row := range rows {
		closes = append(closes, types.DailyClose{
			Date:  row.Day,
			Close: row.Close,
		})
	}
	slices.Reverse(closes)
	return closes
}
