// Package config loads service configuration from the environment.
//
// Every variable carries the APP_ prefix, e.g. APP_PORT=8080 or
// APP_AUCTION_MAX_SQUAD=25. A .env file in the working directory is read
// first when present; real environment variables take precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Log      LogConfig
	Auction  AuctionConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP listen port (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// Host is the listen host; empty listens on all interfaces.
	Host string `envconfig:"HOST"`

	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"10s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`

	// AllowedOrigins feeds the CORS middleware (comma separated).
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// DatabaseConfig holds PostgreSQL settings. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string `envconfig:"DATABASE_URL"`

	// Migrate applies the embedded schema at startup (default: true)
	Migrate bool `envconfig:"DATABASE_MIGRATE" default:"true"`
}

// RedisConfig enables the read-through cache in front of Postgres.
type RedisConfig struct {
	URL string        `envconfig:"REDIS_URL"`
	TTL time.Duration `envconfig:"REDIS_TTL" default:"30s"`
}

// NATSConfig enables the JetStream event publisher.
type NATSConfig struct {
	URL           string `envconfig:"NATS_URL"`
	Stream        string `envconfig:"NATS_STREAM" default:"AUCTION_EVENTS"`
	SubjectPrefix string `envconfig:"NATS_SUBJECT_PREFIX" default:"auction.events"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `envconfig:"LOG_LEVEL" default:"info"`

	// Format is json or text (default: json)
	Format string `envconfig:"LOG_FORMAT" default:"json"`
}

// AuctionConfig holds bidding rules.
type AuctionConfig struct {
	// MaxSquad caps players per team; 0 disables the cap.
	MaxSquad int `envconfig:"AUCTION_MAX_SQUAD" default:"25"`

	// MaxOverseas caps players from outside HomeCountry; 0 disables the cap.
	MaxOverseas int    `envconfig:"AUCTION_MAX_OVERSEAS" default:"8"`
	HomeCountry string `envconfig:"AUCTION_HOME_COUNTRY" default:"India"`

	// BidRate is the per-team sustained bid rate per second.
	BidRate  float64 `envconfig:"AUCTION_BID_RATE" default:"5"`
	BidBurst int     `envconfig:"AUCTION_BID_BURST" default:"5"`

	// Increments is the quick-bid menu in lakhs.
	Increments []int64 `envconfig:"AUCTION_INCREMENTS" default:"5,10,25,50"`
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT %d out of range", c.Server.Port))
	}
	if c.Redis.URL != "" && c.Database.URL == "" {
		errs = append(errs, errors.New("APP_REDIS_URL requires APP_DATABASE_URL"))
	}
	if c.Auction.MaxSquad < 0 || c.Auction.MaxOverseas < 0 {
		errs = append(errs, errors.New("squad limits must not be negative"))
	}
	if c.Auction.BidRate <= 0 || c.Auction.BidBurst <= 0 {
		errs = append(errs, errors.New("bid rate and burst must be positive"))
	}
	for _, step := range c.Auction.Increments {
		if step <= 0 {
			errs = append(errs, fmt.Errorf("increment %d must be positive", step))
		}
	}
	return errors.Join(errs...)
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	var cfg Config
	sections := []struct {
		name string
		dst  any
	}{
		{"server", &cfg.Server},
		{"database", &cfg.Database},
		{"redis", &cfg.Redis},
		{"nats", &cfg.NATS},
		{"log", &cfg.Log},
		{"auction", &cfg.Auction},
	}
	// Each section is processed on its own so variables stay flat
	// (APP_PORT rather than APP_SERVER_PORT).
	for _, s := range sections {
		if err := envconfig.Process("APP", s.dst); err != nil {
			return nil, fmt.Errorf("load %s config: %w", s.name, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
