// Package envx loads .env files and reads typed environment variables for
// the config loaders. Like the flag parsers, invalid values panic.
package envx

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/flagx"
	"github.com/joho/godotenv"
)

// LoadDotenv loads the file named by -env, or ./.env when it exists.
// Variables already present in the environment are not overwritten.
func LoadDotenv() {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
		return
	}
	_ = godotenv.Load()
}

func String(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

func Duration(name string, dst *time.Duration) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		*dst = d
	}
}

func Bool(name string, dst *bool) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		*dst = b
	}
}

func Int(name string, dst *int) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		*dst = n
	}
}

func Uint32(name string, dst *uint32) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			panic(err)
		}
		*dst = uint32(n)
	}
}

func Float(name string, dst *float64) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			panic(err)
		}
		*dst = f
	}
}
