package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Schema creates the daily_closes table. Symbol is an equity ticker or a
// crypto market-data id.
const Schema = `
CREATE TABLE IF NOT EXISTS daily_closes (
    symbol   TEXT    NOT NULL,
    currency TEXT    NOT NULL,
    day      DATE    NOT NULL,
    close    NUMERIC NOT NULL CHECK (close > 0),
    PRIMARY KEY (symbol, day)
);
`

type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type DailyCloseRow struct {
	Symbol   string
	Currency string
	Day      time.Time
	Close    decimal.Decimal
}

const getLatestClose = `
SELECT symbol, currency, day, close FROM daily_closes
WHERE symbol = $1
ORDER BY day DESC
LIMIT 1
`

func (q *Queries) GetLatestClose(ctx context.Context, symbol string) (DailyCloseRow, error) {
	row := q.db.QueryRow(ctx, getLatestClose, symbol)
	var i DailyCloseRow
	err := row.Scan(&i.Symbol, &i.Currency, &i.Day, &i.Close)
	return i, err
}

const listDailyCloses = `
SELECT symbol, currency, day, close FROM daily_closes
WHERE symbol = $1
ORDER BY day DESC
LIMIT $2
`

type ListDailyClosesParams struct {
	Symbol string
	Limit  int32
}

// ListDailyCloses returns the most recent closes first.
func (q *Queries) ListDailyCloses(ctx context.Context, arg ListDailyClosesParams) ([]DailyCloseRow, error) {
	rows, err := q.db.Query(ctx, listDailyCloses, arg.Symbol, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []DailyCloseRow
	for rows.Next() {
		var i DailyCloseRow
		if err := rows.Scan(&i.Symbol, &i.Currency, &i.Day, &i.Close); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertDailyClose = `
INSERT INTO daily_closes (symbol, currency, day, close)
VALUES ($1, $2, $3, $4)
ON CONFLICT (symbol, day) DO UPDATE SET currency = EXCLUDED.currency, close = EXCLUDED.close
`

type UpsertDailyCloseParams struct {
	Symbol   string
	Currency string
	Day      time.Time
	Close    decimal.Decimal
}

func (q *Queries) UpsertDailyClose(ctx context.Context, arg UpsertDailyCloseParams) error {
	_, err := q.db.Exec(ctx, upsertDailyClose, arg.Symbol, arg.Currency, arg.Day, arg.Close)
	return err
}
