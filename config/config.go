// Package config provides configuration management for the backtest
// runner. It loads settings from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// validLogLevels is the set of accepted zerolog log levels.
var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true,
	"warn": true, "error": true, "fatal": true,
	"panic": true, "disabled": true,
}

// ValidationError holds multiple configuration validation errors.
// It aggregates all issues so operators can fix everything in one pass.
type ValidationError struct {
	Errors []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("%d configuration error(s):\n  - %s",
		len(ve.Errors), strings.Join(ve.Errors, "\n  - "))
}

// Config holds all configuration for a backtestd run.
type Config struct {
	// Run parameters
	Symbol      string
	Start       time.Time
	End         time.Time
	Interval    string
	InitialCash float64

	// Cost model, as fractions (e.g. 0.0003 for 3bps)
	CommissionRate float64
	CommissionMin  float64
	StampTaxRate   float64
	TransferRate   float64

	SupportBorrowCash  bool
	SupportBorrowStock bool

	// storage
	DatabasePath string

	// marketdata
	BinanceAPIKey    string
	BinanceAPISecret string

	// timer scheduler
	WorkerPoolSize int

	LogLevel string
}

// Load reads configuration from environment variables and .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	start, err := parseDate(getEnv("BACKTEST_START", ""))
	if err != nil {
		return nil, fmt.Errorf("parse BACKTEST_START: %w", err)
	}
	end, err := parseDate(getEnv("BACKTEST_END", ""))
	if err != nil {
		return nil, fmt.Errorf("parse BACKTEST_END: %w", err)
	}

	cfg := &Config{
		Symbol:      getEnv("BACKTEST_SYMBOL", "BTCUSDT"),
		Start:       start,
		End:         end,
		Interval:    getEnv("BACKTEST_INTERVAL", "1d"),
		InitialCash: getEnvFloat("BACKTEST_INITIAL_CASH", 100000),

		CommissionRate: getEnvFloat("COST_COMMISSION_RATE", 0.0003),
		CommissionMin:  getEnvFloat("COST_COMMISSION_MIN", 5),
		StampTaxRate:   getEnvFloat("COST_STAMP_TAX_RATE", 0.001),
		TransferRate:   getEnvFloat("COST_TRANSFER_RATE", 0.00002),

		SupportBorrowCash:  getEnv("SUPPORT_BORROW_CASH", "false") == "true",
		SupportBorrowStock: getEnv("SUPPORT_BORROW_STOCK", "false") == "true",

		DatabasePath: getEnv("DATABASE_PATH", "./data/backtest.db"),

		BinanceAPIKey:    os.Getenv("BINANCE_API_KEY"),
		BinanceAPISecret: os.Getenv("BINANCE_API_SECRET"),

		WorkerPoolSize: getEnvInt("WORKER_POOL_SIZE", 4),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that the run parameters are internally consistent,
// aggregating every problem found rather than failing on the first.
func (c *Config) Validate() error {
	var errs []string

	if c.Symbol == "" {
		errs = append(errs, "BACKTEST_SYMBOL must not be empty")
	}
	if c.Start.IsZero() {
		errs = append(errs, "BACKTEST_START must be set (YYYY-MM-DD)")
	}
	if c.End.IsZero() {
		errs = append(errs, "BACKTEST_END must be set (YYYY-MM-DD)")
	}
	if !c.Start.IsZero() && !c.End.IsZero() && !c.Start.Before(c.End) {
		errs = append(errs, "BACKTEST_START must be before BACKTEST_END")
	}
	if c.InitialCash <= 0 {
		errs = append(errs, "BACKTEST_INITIAL_CASH must be positive")
	}
	if c.DatabasePath == "" {
		errs = append(errs, "DATABASE_PATH must not be empty")
	}
	if c.WorkerPoolSize < 1 {
		errs = append(errs, "WORKER_POOL_SIZE must be at least 1")
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("invalid LOG_LEVEL '%s'", c.LogLevel))
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return i
}

func getEnvFloat(key string, defaultValue float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultValue
	}
	return f
}
