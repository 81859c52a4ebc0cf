// Package config loads runtime configuration for the propkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: a .env file (-env, or ./.env when present) and
//     PROPKEEPER_* variables.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string     base URL of the remote authority ("" runs offline)
//	-d string     SQLite DSN of the local database
//	-t duration   remote request timeout
//	-ttl duration verification code lifetime
//	-attempts int verify attempts per code
//	-entropy n    minimum password entropy on register (0 disables)
//	-log string   log backend: slog or zap
//	-debug        debug mode: verification codes are shown and logged
//
// # JSON schema
//
// Durations accept strings like "10s" or integer nanoseconds:
//
//	{
//	  "server_base_url": "http://localhost:8080",
//	  "request_timeout": "10s",
//	  "database_dsn": "propkeeper.db",
//	  "verification_ttl": "10m",
//	  "debug": false
//	}
package config
