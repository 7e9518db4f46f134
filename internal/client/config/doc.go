// Package config loads runtime configuration for the socguard CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected via -c or -config. Files ending in
//     .toml are read as TOML, everything else as JSON.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # File schema
//
// Durations use timex.Duration, so values can be either strings like "3s"
// or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "backend": "grpc",
//	  "storage_driver": "sqlite",
//	  "storage_dsn": "socguard.db",
//	  "rate_limit_window": "5m",
//	  "rate_limit_max_attempts": 5,
//	  "rate_limit_block": "15m",
//	  "idle_timeout": "30m",
//	  "session_check_interval": "60s"
//	}
//
// Environment variables are not read.
package config
