package config

import (
	"flag"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	oldArgs := os.Args
	t.Cleanup(func() { os.Args = oldArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "address and interval", args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "10"}, expectPanic: false,
			expected: &Config{ServerEndpointAddr: "127.0.0.1:9090", OnlineCheckInterval: 10 * time.Second}},
		{name: "storage and backend", args: []string{"cmd", "-b", "http", "-u", "http://auth:8080", "-s", "redis", "-r", "redis:6379", "-p", "soc:"},
			expected: &Config{Backend: "http", BackendURL: "http://auth:8080", StorageDriver: "redis", RedisAddr: "redis:6379", RedisPrefix: "soc:"}},
		{name: "idle timeout and atomic", args: []string{"cmd", "-t", "90s", "-atomic=true", "-l", "debug", "-m", ":9100"},
			expected: &Config{IdleTimeout: 90 * time.Second, AtomicRateLimit: true, LogLevel: "debug", MetricsAddr: ":9100"}},
		{name: "unknown flags are ignored", args: []string{"cmd", "-z", "x", "-d", "file.db"},
			expected: &Config{StorageDSN: "file.db"}},
		{name: "incorrect check interval", args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "abc"}, expectPanic: true, expected: &Config{}},
		{name: "incorrect idle timeout", args: []string{"cmd", "-t", "soon"}, expectPanic: true, expected: &Config{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.PanicOnError)

			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
