package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/socguard/internal/flagx"
	"github.com/dmitrijs2005/socguard/internal/timex"
)

// JsonConfig is the DTO for JSON config files. Durations accept "1h" style
// strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC            string         `json:"endpoint_addr_grpc"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity"`
	UsersFile                   string         `json:"users_file"`
}

// parseJson overlays Config with the JSON file named by -c or -config.
// Keys that are absent or empty keep their current value. Panics if the
// file cannot be read or decoded.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.UsersFile != "" {
		config.UsersFile = c.UsersFile
	}
}
