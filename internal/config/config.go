// Package config defines service configuration structures and loading hooks.
//
// Conventions:
//   - Provide New() to build a Config with defaults; Load layers file and env on top.
//   - Per-mode tables are keyed by the lower-case mode name ("ffa", "2vs2", ...).
//   - Validation errors wrap ErrInvalidConfig; absent rating tables also wrap
//     model.ErrMissingConfig.
package config

import (
	"fmt"
	"runtime"

	"github.com/okian/ltrc/internal/domain/model"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverWorkbook = "workbook"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rating workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submitted event IDs are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// ScaleConstant is the global C of the rating formula.
	ScaleConstant int `koanf:"scale_constant"`

	// KFactors maps a mode key to its K-table, indexed by standing-1.
	KFactors map[string][]int `koanf:"k_factors"`

	Accolades AccoladeConfig  `koanf:"accolades"`
	Store     StoreConfig     `koanf:"store"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
}

// AccoladeConfig holds the accolade tables.
type AccoladeConfig struct {
	// Base maps a mode key to the accolade awarded per standing.
	Base      map[string][]int `koanf:"base"`
	UpsetWin  int              `koanf:"upset_win"`
	UpsetLoss int              `koanf:"upset_loss"`
}

// StoreConfig selects the competitor store.
type StoreConfig struct {
	Driver       string `koanf:"driver"`
	DSN          string `koanf:"dsn"`
	WorkbookPath string `koanf:"workbook_path"`
}

// RateLimitConfig bounds write requests per client IP.
type RateLimitConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		EventQueueSize:      1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          50_000,
		MaxLeaderboardLimit: 100,
		ScaleConstant:       1200,
		KFactors: map[string][]int{
			"ffa":  {400, 450, 500, 550, 600, 650, 700, 750, 800, 850, 900, 950},
			"2vs2": {450, 550, 650, 750, 850, 950},
			"3vs3": {500, 630, 770, 900},
			"4vs4": {550, 700, 850},
			"5vs5": {600, 800},
			"6vs6": {600, 800},
		},
		Accolades: AccoladeConfig{
			Base: map[string][]int{
				"ffa":  {10, 8, 6, 5, 4, 3, 2, 1, 0, 0, 0, 0},
				"2vs2": {6, 4, 3, 2, 1, 0},
				"3vs3": {5, 3, 1, 0},
				"4vs4": {4, 2, 0},
				"5vs5": {3, 0},
				"6vs6": {3, 0},
			},
			UpsetWin:  1,
			UpsetLoss: -1,
		},
		Store:     StoreConfig{Driver: DriverMemory},
		RateLimit: RateLimitConfig{RPS: 5, Burst: 10},
	}
}

// KTable returns the K-table configured for mode.
func (c *Config) KTable(mode model.TeamMode) ([]int, error) {
	table, ok := c.KFactors[mode.Key()]
	if !ok || len(table) < mode.MaxUnits {
		return nil, fmt.Errorf("%w: K-table for %s has %d of %d entries",
			model.ErrMissingConfig, mode, len(table), mode.MaxUnits)
	}
	return table, nil
}

// AccoladeBase returns the base accolade table configured for mode.
func (c *Config) AccoladeBase(mode model.TeamMode) ([]int, error) {
	table, ok := c.Accolades.Base[mode.Key()]
	if !ok || len(table) < mode.MaxUnits {
		return nil, fmt.Errorf("%w: accolade table for %s has %d of %d entries",
			model.ErrMissingConfig, mode, len(table), mode.MaxUnits)
	}
	return table, nil
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.EventQueueSize <= 0 || c.WorkerCount <= 0 {
		return fmt.Errorf("%w: queue_size and worker_count must be positive", ErrInvalidConfig)
	}
	if c.MaxLeaderboardLimit <= 0 {
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	}
	if c.ScaleConstant <= 0 {
		return fmt.Errorf("%w: %w: scale_constant must be positive", ErrInvalidConfig, model.ErrMissingConfig)
	}
	for _, m := range model.Modes() {
		if _, err := c.KTable(m); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		if _, err := c.AccoladeBase(m); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("%w: store.dsn is required for the postgres driver", ErrInvalidConfig)
		}
	case DriverWorkbook:
		if c.Store.WorkbookPath == "" {
			return fmt.Errorf("%w: store.workbook_path is required for the workbook driver", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, c.Store.Driver)
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("%w: rate_limit.rps and rate_limit.burst must be positive", ErrInvalidConfig)
	}
	return nil
}
