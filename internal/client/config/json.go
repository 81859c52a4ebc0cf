package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/propkeeper/internal/flagx"
	"github.com/dmitrijs2005/propkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Keys missing
// from the file keep their current values.
type JsonConfig struct {
	ServerBaseURL      string         `json:"server_base_url"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	DatabaseDSN        string         `json:"database_dsn"`
	Debug              bool           `json:"debug"`
	VerificationTTL    timex.Duration `json:"verification_ttl"`
	MaxAttempts        int            `json:"max_attempts"`
	MinPasswordEntropy float64        `json:"min_password_entropy"`
	LogBackend         string         `json:"log_backend"`
	LogFormat          string         `json:"log_format"`
	BreakerMaxFailures uint32         `json:"breaker_max_failures"`
	BreakerTimeout     timex.Duration `json:"breaker_timeout"`
}

// parseJson overlays cfg with the file given by -c or -config. It panics on
// read or decode errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	jc := JsonConfig{
		ServerBaseURL:      cfg.ServerBaseURL,
		RequestTimeout:     timex.Duration{Duration: cfg.RequestTimeout},
		DatabaseDSN:        cfg.DatabaseDSN,
		Debug:              cfg.Debug,
		VerificationTTL:    timex.Duration{Duration: cfg.VerificationTTL},
		MaxAttempts:        cfg.MaxAttempts,
		MinPasswordEntropy: cfg.MinPasswordEntropy,
		LogBackend:         cfg.LogBackend,
		LogFormat:          cfg.LogFormat,
		BreakerMaxFailures: cfg.BreakerMaxFailures,
		BreakerTimeout:     timex.Duration{Duration: cfg.BreakerTimeout},
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerBaseURL = jc.ServerBaseURL
	cfg.RequestTimeout = jc.RequestTimeout.Duration
	cfg.DatabaseDSN = jc.DatabaseDSN
	cfg.Debug = jc.Debug
	cfg.VerificationTTL = jc.VerificationTTL.Duration
	cfg.MaxAttempts = jc.MaxAttempts
	cfg.MinPasswordEntropy = jc.MinPasswordEntropy
	cfg.LogBackend = jc.LogBackend
	cfg.LogFormat = jc.LogFormat
	cfg.BreakerMaxFailures = jc.BreakerMaxFailures
	cfg.BreakerTimeout = jc.BreakerTimeout.Duration
}
