package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/propkeeper/internal/flagx"
)

// parseFlags overrides Config fields from command-line flags. Only the
// flags listed here are considered; see flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-t", "-ttl", "-attempts", "-entropy", "-log", "-debug"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the remote authority, empty for offline mode")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local SQLite database")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "remote request timeout")
	fs.DurationVar(&cfg.VerificationTTL, "ttl", cfg.VerificationTTL, "verification code lifetime")
	fs.IntVar(&cfg.MaxAttempts, "attempts", cfg.MaxAttempts, "verify attempts per code")
	fs.Float64Var(&cfg.MinPasswordEntropy, "entropy", cfg.MinPasswordEntropy, "minimum password entropy in bits, 0 disables the check")
	fs.StringVar(&cfg.LogBackend, "log", cfg.LogBackend, "log backend: slog or zap")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug mode")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
