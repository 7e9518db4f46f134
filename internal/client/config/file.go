package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dmitrijs2005/socguard/internal/flagx"
	"github.com/dmitrijs2005/socguard/internal/timex"
)

// FileConfig is a DTO used exclusively for file unmarshalling. Durations go
// through timex.Duration so files can specify either strings like "3s" or
// integer nanoseconds. Zero values leave the corresponding setting alone.
type FileConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr" toml:"server_endpoint_addr"`
	Backend             string         `json:"backend" toml:"backend"`
	BackendURL          string         `json:"backend_url" toml:"backend_url"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval" toml:"online_check_interval"`

	StorageDriver string `json:"storage_driver" toml:"storage_driver"`
	StorageDSN    string `json:"storage_dsn" toml:"storage_dsn"`
	RedisAddr     string `json:"redis_addr" toml:"redis_addr"`
	RedisPrefix   string `json:"redis_prefix" toml:"redis_prefix"`

	TokenTTL             timex.Duration `json:"token_ttl" toml:"token_ttl"`
	RateLimitWindow      timex.Duration `json:"rate_limit_window" toml:"rate_limit_window"`
	RateLimitMaxAttempts int            `json:"rate_limit_max_attempts" toml:"rate_limit_max_attempts"`
	RateLimitBlock       timex.Duration `json:"rate_limit_block" toml:"rate_limit_block"`
	AtomicRateLimit      *bool          `json:"atomic_rate_limit" toml:"atomic_rate_limit"`
	IdleTimeout          timex.Duration `json:"idle_timeout" toml:"idle_timeout"`
	SessionCheckInterval timex.Duration `json:"session_check_interval" toml:"session_check_interval"`

	LogLevel    string `json:"log_level" toml:"log_level"`
	MetricsAddr string `json:"metrics_addr" toml:"metrics_addr"`
}

// parseFile overlays Config with values loaded from the file named by -c or
// -config. Files ending in .toml are decoded as TOML, anything else as JSON.
// Panics on read or decode errors.
func parseFile(cfg *Config) {
	path := flagx.ConfigFilePath()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var fc FileConfig
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &fc)
	} else {
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.ServerEndpointAddr, fc.ServerEndpointAddr)
	setString(&cfg.Backend, fc.Backend)
	setString(&cfg.BackendURL, fc.BackendURL)
	setDuration(&cfg.OnlineCheckInterval, fc.OnlineCheckInterval)

	setString(&cfg.StorageDriver, fc.StorageDriver)
	setString(&cfg.StorageDSN, fc.StorageDSN)
	setString(&cfg.RedisAddr, fc.RedisAddr)
	setString(&cfg.RedisPrefix, fc.RedisPrefix)

	setDuration(&cfg.TokenTTL, fc.TokenTTL)
	setDuration(&cfg.RateLimitWindow, fc.RateLimitWindow)
	if fc.RateLimitMaxAttempts != 0 {
		cfg.RateLimitMaxAttempts = fc.RateLimitMaxAttempts
	}
	setDuration(&cfg.RateLimitBlock, fc.RateLimitBlock)
	if fc.AtomicRateLimit != nil {
		cfg.AtomicRateLimit = *fc.AtomicRateLimit
	}
	setDuration(&cfg.IdleTimeout, fc.IdleTimeout)
	setDuration(&cfg.SessionCheckInterval, fc.SessionCheckInterval)

	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.MetricsAddr, fc.MetricsAddr)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
