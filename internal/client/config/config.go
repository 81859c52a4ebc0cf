package config

import (
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/envx"
)

// Config holds runtime settings for the propkeeper CLI.
type Config struct {
	ServerBaseURL      string
	RequestTimeout     time.Duration
	DatabaseDSN        string
	Debug              bool
	VerificationTTL    time.Duration
	MaxAttempts        int
	MinPasswordEntropy float64
	LogBackend         string
	LogFormat          string
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerBaseURL = "http://localhost:8080"
	c.RequestTimeout = 10 * time.Second
	c.DatabaseDSN = "propkeeper.db"
	c.Debug = false
	c.VerificationTTL = 10 * time.Minute
	c.MaxAttempts = models.DefaultMaxAttempts
	c.MinPasswordEntropy = 0
	c.LogBackend = "slog"
	c.LogFormat = "text"
	c.BreakerMaxFailures = 5
	c.BreakerTimeout = 30 * time.Second
}

// LoadConfig constructs a Config from defaults, JSON, environment and flags.
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

const envPrefix = "PROPKEEPER_"

func parseEnv(cfg *Config) {
	envx.LoadDotenv()

	envx.String(envPrefix+"SERVER_URL", &cfg.ServerBaseURL)
	envx.Duration(envPrefix+"REQUEST_TIMEOUT", &cfg.RequestTimeout)
	envx.String(envPrefix+"DATABASE_DSN", &cfg.DatabaseDSN)
	envx.Bool(envPrefix+"DEBUG", &cfg.Debug)
	envx.Duration(envPrefix+"VERIFICATION_TTL", &cfg.VerificationTTL)
	envx.Int(envPrefix+"MAX_ATTEMPTS", &cfg.MaxAttempts)
	envx.Float(envPrefix+"MIN_PASSWORD_ENTROPY", &cfg.MinPasswordEntropy)
	envx.String(envPrefix+"LOG_BACKEND", &cfg.LogBackend)
	envx.String(envPrefix+"LOG_FORMAT", &cfg.LogFormat)
	envx.Uint32(envPrefix+"BREAKER_MAX_FAILURES", &cfg.BreakerMaxFailures)
	envx.Duration(envPrefix+"BREAKER_TIMEOUT", &cfg.BreakerTimeout)
}
