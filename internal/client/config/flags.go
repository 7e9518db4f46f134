package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/socguard/internal/flagx"
)

var knownFlags = []string{"-a", "-i", "-b", "-u", "-s", "-d", "-r", "-p", "-t", "-l", "-m", "-atomic"}

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     address and port of the gRPC backend
//	-i int        online check interval in seconds
//	-b string     backend mode, grpc or http
//	-u string     base URL of the HTTP backend
//	-s string     storage driver, sqlite, redis or memory
//	-d string     SQLite DSN
//	-r string     Redis address
//	-p string     Redis key prefix
//	-t duration   idle timeout
//	-l string     log level
//	-m string     address for the metrics endpoint, empty disables it
//	-atomic bool  serialize rate-limit updates through compare-and-swap
//
// Only the flags above are looked at; everything else in os.Args is dropped
// by flagx.FilterArgs before parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "backend mode (grpc|http)")
	fs.StringVar(&cfg.BackendURL, "u", cfg.BackendURL, "HTTP backend base URL")
	fs.StringVar(&cfg.StorageDriver, "s", cfg.StorageDriver, "storage driver (sqlite|redis|memory)")
	fs.StringVar(&cfg.StorageDSN, "d", cfg.StorageDSN, "SQLite DSN")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.RedisPrefix, "p", cfg.RedisPrefix, "Redis key prefix")
	fs.DurationVar(&cfg.IdleTimeout, "t", cfg.IdleTimeout, "idle timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")
	fs.BoolVar(&cfg.AtomicRateLimit, "atomic", cfg.AtomicRateLimit, "compare-and-swap rate-limit updates")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
}
