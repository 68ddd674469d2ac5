package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Global error declarations.
var (
	ErrSymbolNotFound = errors.New("not found in datasource")
	ErrNoCloses       = errors.New("no closes found in datasource")
	ErrInvalidDays    = errors.New("days must be positive")
)

type closesRepository interface {
	GetLatestClose(ctx context.Context, symbol string) (DailyCloseRow, error)
	ListDailyCloses(ctx context.Context, arg ListDailyClosesParams) ([]DailyCloseRow, error)
	UpsertDailyClose(ctx context.Context, arg UpsertDailyCloseParams) error
}

// Database struct that holds the database connection and queries.
type Database struct {
	closes closesRepository
	conn   *pgxpool.Pool
}

// NewDatabase creates a new Database instance and verifies connectivity.
func NewDatabase(ctx context.Context, dbURL string) (*Database, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// Register shopspring decimal
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	conn, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	// Ensure the connection is established.
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return &Database{
		closes: New(conn),
		conn:   conn}, nil
}

// Migrate creates the tables the repository reads from.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.conn.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (db *Database) Close() {
	if db.conn != nil {
		db.conn.Close()
	}
}
