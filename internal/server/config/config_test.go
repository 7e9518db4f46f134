package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	old := os.Args
	os.Args = append([]string{"cmd"}, args...)
	t.Cleanup(func() { os.Args = old })
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "secretKey", c.SecretKey)
	assert.Equal(t, 60*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, "users.json", c.UsersFile)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	withArgs(t)

	c := LoadConfig()

	require.NotNil(t, c, "LoadConfig must not return nil")
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
}

func TestParseJson(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"secret_key":"k1","access_token_validity":"2h","users_file":"/etc/ops.json"}`), 0o600))
	withArgs(t, "-config", path)

	var c Config
	c.LoadDefaults()
	parseJson(&c)

	assert.Equal(t, ":50051", c.EndpointAddrGRPC, "absent keys keep defaults")
	assert.Equal(t, "k1", c.SecretKey)
	assert.Equal(t, 2*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, "/etc/ops.json", c.UsersFile)
}

func TestParseJson_Panics(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"secret_key":`), 0o600))

	for _, path := range []string{bad, filepath.Join(dir, "missing.json")} {
		withArgs(t, "-c", path)
		var c Config
		assert.Panics(t, func() { parseJson(&c) }, path)
	}
}
