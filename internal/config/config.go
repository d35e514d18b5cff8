// Package config loads settings shared by the filter service, the booking
// service and the trainctl client.
//
// Settings come from three layers, later ones winning: built-in defaults,
// an optional YAML file (named by --config or TRAINS_CONFIG), and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "TRAINS_CONFIG"

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config is the top-level configuration.
type Config struct {
	Filter  FilterConfig  `yaml:"filter"`
	Booking BookingConfig `yaml:"booking"`
	Client  ClientConfig  `yaml:"client"`
	Store   StoreConfig   `yaml:"store"`
	Log     LogConfig     `yaml:"log"`
}

// FilterConfig configures the search/filter service.
type FilterConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// BookingConfig configures the booking service.
type BookingConfig struct {
	Addr string `yaml:"addr"`

	// FilterURL is the base URL of the filter service.
	FilterURL string `yaml:"filter_url"`

	// ReserveTimeout bounds each reserve call. A timeout stops the
	// booking like any other failure.
	ReserveTimeout time.Duration `yaml:"reserve_timeout"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ClientConfig configures trainctl. It reaches the filter service at
// booking.filter_url.
type ClientConfig struct {
	// BookingURL is the booking service's SOAP endpoint.
	BookingURL string        `yaml:"booking_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// StoreConfig selects and configures the train catalog store.
type StoreConfig struct {
	// Driver is one of file, postgres, sqlite.
	Driver string `yaml:"driver"`

	// Path is the JSON snapshot for the file driver and the database
	// file for the sqlite driver.
	Path string `yaml:"path"`

	// Seed is a JSON snapshot loaded into an empty SQL store on startup.
	Seed string `yaml:"seed"`

	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// DSN builds a libpq-compatible connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Filter: FilterConfig{
			Addr:            ":3000",
			ShutdownTimeout: 10 * time.Second,
		},
		Booking: BookingConfig{
			Addr:            ":3001",
			FilterURL:       "http://localhost:3000",
			ReserveTimeout:  5 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Client: ClientConfig{
			BookingURL: "http://localhost:3001/wsdl",
			Timeout:    10 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   "data/trains.json",
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     "5432",
				User:     "postgres",
				Password: "postgres",
				DBName:   "trains",
				SSLMode:  "disable",
				MaxConns: 20,
				MinConns: 2,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration. An empty path falls back to
// TRAINS_CONFIG; if both are empty only defaults and environment apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v := getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	if v := getenv("FILTER_PORT"); v != "" {
		cfg.Filter.Addr = ":" + v
	}
	if v := getenv("BOOKING_PORT"); v != "" {
		cfg.Booking.Addr = ":" + v
	}
	str("FILTER_URL", &cfg.Booking.FilterURL)
	if err := dur("RESERVE_TIMEOUT", &cfg.Booking.ReserveTimeout); err != nil {
		return err
	}

	str("BOOKING_URL", &cfg.Client.BookingURL)
	if err := dur("CLIENT_TIMEOUT", &cfg.Client.Timeout); err != nil {
		return err
	}

	str("STORE_DRIVER", &cfg.Store.Driver)
	str("DATA_FILE", &cfg.Store.Path)
	str("STORE_SEED", &cfg.Store.Seed)

	pg := &cfg.Store.Postgres
	str("DB_HOST", &pg.Host)
	str("DB_PORT", &pg.Port)
	str("DB_USER", &pg.User)
	str("DB_PASSWORD", &pg.Password)
	str("DB_NAME", &pg.DBName)
	str("DB_SSLMODE", &pg.SSLMode)
	if v := getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("DB_MAX_CONNS: %w", err)
		}
		pg.MaxConns = int32(n)
	}

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	return nil
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for driver %q", c.Store.Driver))
		}
	case DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Booking.FilterURL == "" {
		errs = append(errs, errors.New("booking.filter_url is required"))
	}
	if c.Booking.ReserveTimeout <= 0 {
		errs = append(errs, errors.New("booking.reserve_timeout must be positive"))
	}
	if c.Filter.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("filter.shutdown_timeout must be positive"))
	}
	if c.Booking.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("booking.shutdown_timeout must be positive"))
	}
	if c.Client.Timeout <= 0 {
		errs = append(errs, errors.New("client.timeout must be positive"))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds a slog.Logger writing to w.
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
