package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/socguard/internal/common"
)

// Backend modes.
const (
	BackendGRPC = "grpc"
	BackendHTTP = "http"
)

// Storage drivers.
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Config holds runtime settings for the socguard CLI.
//
// Storage: every process pointed at the same SQLite file or Redis prefix
// shares one session, one activity record and one set of rate-limit records.
type Config struct {
	ServerEndpointAddr  string
	Backend             string
	BackendURL          string
	OnlineCheckInterval time.Duration

	StorageDriver string
	StorageDSN    string
	RedisAddr     string
	RedisPrefix   string

	TokenTTL             time.Duration
	RateLimitWindow      time.Duration
	RateLimitMaxAttempts int
	RateLimitBlock       time.Duration
	AtomicRateLimit      bool
	IdleTimeout          time.Duration
	SessionCheckInterval time.Duration

	LogLevel    string
	MetricsAddr string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.Backend = BackendGRPC
	c.BackendURL = "http://127.0.0.1:8080"
	c.OnlineCheckInterval = 3 * time.Second

	c.StorageDriver = StorageSQLite
	c.StorageDSN = "socguard.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPrefix = "socguard:"

	c.TokenTTL = common.DefaultTokenTTL
	c.RateLimitWindow = common.DefaultRateLimitWindow
	c.RateLimitMaxAttempts = common.DefaultRateLimitMaxAttempts
	c.RateLimitBlock = common.DefaultRateLimitBlock
	c.AtomicRateLimit = false
	c.IdleTimeout = common.DefaultIdleTimeout
	c.SessionCheckInterval = common.DefaultSessionCheckInterval

	c.LogLevel = "info"
	c.MetricsAddr = ""
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGRPC, BackendHTTP:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.StorageDriver {
	case StorageSQLite, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}

	for name, d := range map[string]time.Duration{
		"token_ttl":              c.TokenTTL,
		"rate_limit_window":      c.RateLimitWindow,
		"rate_limit_block":       c.RateLimitBlock,
		"idle_timeout":           c.IdleTimeout,
		"session_check_interval": c.SessionCheckInterval,
		"online_check_interval":  c.OnlineCheckInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if c.RateLimitMaxAttempts < 1 {
		return fmt.Errorf("rate_limit_max_attempts must be at least 1, got %d", c.RateLimitMaxAttempts)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a config file (if present) and command-line flags (if present). Later
// sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
