package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeConfigFile(t, `{
		"server_base_url": "https://api.example.com",
		"request_timeout": "5s",
		"verification_ttl": 120000000000,
		"max_attempts": 5,
		"log_backend": "zap",
		"breaker_timeout": "45s",
		"debug": true
	}`)

	for _, args := range [][]string{
		{"pk", "-config", path},
		{"pk", "-c", path},
	} {
		os.Args = args
		cfg := defaults()
		parseJson(cfg)

		assert.Equal(t, "https://api.example.com", cfg.ServerBaseURL)
		assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
		assert.Equal(t, 2*time.Minute, cfg.VerificationTTL)
		assert.Equal(t, 5, cfg.MaxAttempts)
		assert.Equal(t, "zap", cfg.LogBackend)
		assert.Equal(t, 45*time.Second, cfg.BreakerTimeout)
		assert.True(t, cfg.Debug)

		// untouched keys
		assert.Equal(t, "propkeeper.db", cfg.DatabaseDSN)
		assert.Equal(t, "text", cfg.LogFormat)
	}
}

func Test_parseJson_NoFile(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"pk", "-ttl", "1m"}

	cfg := &Config{ServerBaseURL: "http://localhost:8080", RequestTimeout: 42 * time.Second}
	parseJson(cfg)

	assert.Equal(t, &Config{ServerBaseURL: "http://localhost:8080", RequestTimeout: 42 * time.Second}, cfg)
}

func Test_parseJson_Panics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	for name, path := range map[string]string{
		"malformed": writeConfigFile(t, `{"server_base_url": `),
		"missing":   filepath.Join(t.TempDir(), "absent.json"),
	} {
		t.Run(name, func(t *testing.T) {
			os.Args = []string{"pk", "-config", path}
			assert.Panics(t, func() { parseJson(defaults()) })
		})
	}
}
