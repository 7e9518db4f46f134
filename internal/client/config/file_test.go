package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"cmd"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestParseFile_JSON(t *testing.T) {
	path := writeConfigFile(t, "cfg.json", `{
		"server_endpoint_addr": "10.0.0.1:50051",
		"online_check_interval": "5s",
		"storage_driver": "memory",
		"rate_limit_max_attempts": 3,
		"rate_limit_block": 60000000000,
		"atomic_rate_limit": true,
		"idle_timeout": "10m"
	}`)
	withArgs(t, "-c", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	want := *cfg
	want.ServerEndpointAddr = "10.0.0.1:50051"
	want.OnlineCheckInterval = 5 * time.Second
	want.StorageDriver = StorageMemory
	want.RateLimitMaxAttempts = 3
	want.RateLimitBlock = time.Minute
	want.AtomicRateLimit = true
	want.IdleTimeout = 10 * time.Minute

	require.NotPanics(t, func() { parseFile(cfg) })
	assert.Empty(t, cmp.Diff(&want, cfg))
}

func TestParseFile_TOML(t *testing.T) {
	path := writeConfigFile(t, "cfg.toml", `
backend = "http"
backend_url = "http://auth.local"
redis_prefix = "soc:"
session_check_interval = "15s"
atomic_rate_limit = false
`)
	withArgs(t, "-config", path)

	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.AtomicRateLimit = true
	want := *cfg
	want.Backend = BackendHTTP
	want.BackendURL = "http://auth.local"
	want.RedisPrefix = "soc:"
	want.SessionCheckInterval = 15 * time.Second
	want.AtomicRateLimit = false

	require.NotPanics(t, func() { parseFile(cfg) })
	assert.Empty(t, cmp.Diff(&want, cfg))
}

func TestParseFile_NoFlagLeavesConfig(t *testing.T) {
	withArgs(t, "-a", "x:1")

	cfg := &Config{}
	cfg.LoadDefaults()
	want := *cfg

	parseFile(cfg)
	assert.Equal(t, want, *cfg)
}

func TestParseFile_Panics(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{name: "missing file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }},
		{name: "bad json", path: func(t *testing.T) string { return writeConfigFile(t, "bad.json", `{"idle_timeout": true}`) }},
		{name: "bad toml", path: func(t *testing.T) string { return writeConfigFile(t, "bad.toml", `idle_timeout = "later"`) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withArgs(t, "-c", tt.path(t))
			cfg := &Config{}
			assert.Panics(t, func() { parseFile(cfg) })
		})
	}
}
