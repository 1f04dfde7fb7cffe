// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        // e.g. "8080"
	Env          string        // "development" | "production"
	ReadTimeout  time.Duration // default 10s
	WriteTimeout time.Duration // default 10s
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// Scheme names the payout scheme a deployment runs. Schemes are never mixed
// within one settlement run.
type Scheme string

const (
	// SchemeFixed pays a fixed rate per winning ticket type.
	SchemeFixed Scheme = "fixed"
	// SchemePool distributes a pari-mutuel pool minus the house take.
	SchemePool Scheme = "pool"
)

// GameConfig holds race and payout settings.
type GameConfig struct {
	PlayerCount   int     // entrants per race; result length, default 4
	WinRate       int64   // fixed-scheme multiplier for win tickets, default 4
	ExactaRate    int64   // fixed-scheme multiplier for exacta tickets, default 12
	TrifectaRate  int64   // fixed-scheme multiplier for trifecta tickets, default 28
	TakeRate      float64 // pool-scheme house take, default 0.15
	Scheme        Scheme  // payout scheme, default fixed
	StartingCoins int64   // seed balance for a team's first purchase, default 10
}

// WSConfig holds websocket settings.
type WSConfig struct {
	AllowedOrigins string // comma-separated origins; "" = allow all
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Game   GameConfig
	WS     WSConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// Returns every validation error encountered, joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Game.PlayerCount < 3 {
		errs = append(errs, fmt.Errorf(
			"PLAYER_COUNT must be at least 3 (trifecta needs three finishers), got %d",
			c.Game.PlayerCount,
		))
	}
	if c.Game.WinRate <= 0 || c.Game.ExactaRate <= 0 || c.Game.TrifectaRate <= 0 {
		errs = append(errs, fmt.Errorf(
			"reward rates must be positive (win=%d exacta=%d trifecta=%d)",
			c.Game.WinRate, c.Game.ExactaRate, c.Game.TrifectaRate,
		))
	}
	if c.Game.TakeRate <= 0 || c.Game.TakeRate >= 1 {
		errs = append(errs, fmt.Errorf(
			"TAKE_RATE must be between 0 and 1 (exclusive), got %.4f", c.Game.TakeRate,
		))
	}
	if c.Game.Scheme != SchemeFixed && c.Game.Scheme != SchemePool {
		errs = append(errs, fmt.Errorf(
			"REWARD_SCHEME must be %q or %q, got %q", SchemeFixed, SchemePool, c.Game.Scheme,
		))
	}
	if c.Game.StartingCoins < 0 {
		errs = append(errs, errors.New("STARTING_COINS must not be negative"))
	}

	// In production, DB DSN must be explicit
	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:         getEnv("SERVER_PORT", "8080"),
		Env:          getEnv("ENVIRONMENT", "development"),
		ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "keima"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── Game ──────────────────────────────────────────────────────────────────
	playerCount, err := getInt("PLAYER_COUNT", 4)
	if err != nil {
		return nil, fmt.Errorf("PLAYER_COUNT: %w", err)
	}
	winRate, err := getInt("WIN_RATE", 4)
	if err != nil {
		return nil, fmt.Errorf("WIN_RATE: %w", err)
	}
	exactaRate, err := getInt("EXACTA_RATE", 12)
	if err != nil {
		return nil, fmt.Errorf("EXACTA_RATE: %w", err)
	}
	trifectaRate, err := getInt("TRIFECTA_RATE", 28)
	if err != nil {
		return nil, fmt.Errorf("TRIFECTA_RATE: %w", err)
	}
	takeRate, err := getFloat("TAKE_RATE", 0.15)
	if err != nil {
		return nil, fmt.Errorf("TAKE_RATE: %w", err)
	}
	startingCoins, err := getInt("STARTING_COINS", 10)
	if err != nil {
		return nil, fmt.Errorf("STARTING_COINS: %w", err)
	}

	cfg.Game = GameConfig{
		PlayerCount:   playerCount,
		WinRate:       int64(winRate),
		ExactaRate:    int64(exactaRate),
		TrifectaRate:  int64(trifectaRate),
		TakeRate:      takeRate,
		Scheme:        Scheme(getEnv("REWARD_SCHEME", string(SchemeFixed))),
		StartingCoins: int64(startingCoins),
	}

	// ── WebSocket ─────────────────────────────────────────────────────────────
	cfg.WS = WSConfig{
		AllowedOrigins: getEnv("WS_ALLOWED_ORIGINS", ""),
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", v)
	}
	return f, nil
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
