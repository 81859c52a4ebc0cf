package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string    HTTP bind address (e.g., ":8080")
//	-d string    PostgreSQL DSN
//	-s string    JWT HMAC secret key
//	-t int       token validity, minutes
//	-entropy f   minimum password entropy in bits
//	-debug       debug logging
//
// Duration flags are accepted as integers in minutes.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-entropy", "-debug"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.Float64Var(&config.MinPasswordEntropy, "entropy", config.MinPasswordEntropy, "minimum password entropy in bits")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "debug logging")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
}
