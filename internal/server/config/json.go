package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/propkeeper/internal/flagx"
	"github.com/dmitrijs2005/propkeeper/internal/timex"
)

// JsonConfig is an intermediate DTO used only for reading JSON configuration
// files. Durations use timex.Duration so both "1m" and integer nanoseconds
// are accepted.
type JsonConfig struct {
	EndpointAddr                string         `json:"endpoint_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	MinPasswordEntropy          float64        `json:"min_password_entropy"`
	Debug                       bool           `json:"debug"`
}

// parseJson loads configuration values from the file named by the -c or
// -config flag. Keys absent from the file keep their current values. If the
// file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		EndpointAddr:                config.EndpointAddr,
		DatabaseDSN:                 config.DatabaseDSN,
		SecretKey:                   config.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: config.AccessTokenValidityDuration},
		MinPasswordEntropy:          config.MinPasswordEntropy,
		Debug:                       config.Debug,
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.MinPasswordEntropy = c.MinPasswordEntropy
	config.Debug = c.Debug
}
