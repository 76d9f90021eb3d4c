// Package storage provides a reference TradeManager and CostModel for
// the trading system: an in-memory ledger that records each accepted
// fill in a SQLite trade blotter (the ledger_state table is created but
// not written), plus a simple percentage-based cost model built on
// exact decimal arithmetic.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// DB wraps the sqlx database connection used by Ledger.
type DB struct {
	*sqlx.DB
}

// NewDB opens (creating if necessary) a SQLite database at path and
// runs its migrations.
func NewDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Info().Str("path", path).Msg("storage: connected to ledger database")

	db := &DB{conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ledger_state (
		stock_code TEXT PRIMARY KEY,
		cash REAL NOT NULL,
		long_number REAL NOT NULL,
		long_avg_cost REAL NOT NULL,
		long_stoploss REAL NOT NULL,
		long_goal REAL NOT NULL,
		short_number REAL NOT NULL,
		short_avg_cost REAL NOT NULL,
		short_stoploss REAL NOT NULL,
		short_goal REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS trade_blotter (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		datetime TEXT NOT NULL,
		stock_code TEXT NOT NULL,
		business TEXT NOT NULL,
		price REAL NOT NULL,
		number REAL NOT NULL,
		plan_price REAL NOT NULL,
		stoploss REAL NOT NULL,
		goal_price REAL NOT NULL,
		real_price REAL NOT NULL,
		part TEXT NOT NULL,
		cash REAL NOT NULL,
		position REAL NOT NULL,
		commission REAL NOT NULL,
		stamp_tax REAL NOT NULL,
		transfer_fee REAL NOT NULL,
		cost_other REAL NOT NULL,
		cost_total REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trade_blotter_stock ON trade_blotter(stock_code);
	CREATE INDEX IF NOT EXISTS idx_trade_blotter_datetime ON trade_blotter(datetime);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema migration: %w", err)
	}
	log.Info().Msg("storage: ledger schema migrated")
	return nil
}
