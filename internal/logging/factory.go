package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	BackendSlog = "slog"
	BackendZap  = "zap"

	FormatText = "text"
	FormatJSON = "json"
)

// Options selects a Logger implementation. Format applies to slog only;
// zap picks console or JSON output from Debug.
type Options struct {
	Backend string
	Format  string
	Debug   bool
	Output  io.Writer
}

// New returns the configured logger and a flush func to run on shutdown.
func New(o Options) (Logger, func() error, error) {
	if o.Output == nil {
		o.Output = os.Stderr
	}

	switch strings.ToLower(o.Backend) {
	case "", BackendSlog:
		switch f := strings.ToLower(o.Format); f {
		case "", FormatText, FormatJSON:
			return NewSlog(o.Output, f, o.Debug), func() error { return nil }, nil
		default:
			return nil, nil, fmt.Errorf("unknown log format %q", o.Format)
		}
	case BackendZap:
		z, err := NewZap(o.Debug)
		if err != nil {
			return nil, nil, err
		}
		return z, z.Sync, nil
	default:
		return nil, nil, fmt.Errorf("unknown log backend %q", o.Backend)
	}
}

// MaskPhone keeps the last four digits of a phone number so log lines can
// be correlated without recording the full number.
func MaskPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-4:])
}
