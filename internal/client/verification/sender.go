package verification

import (
	"context"

	"github.com/dmitrijs2005/propkeeper/internal/logging"
)

// Sender delivers a code to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// LogSender is the default Sender. It has no carrier integration and only
// records the dispatch; the code itself is logged at debug level.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &LogSender{log: log.With("module", "sms")}
}

func (s *LogSender) Send(ctx context.Context, phone, code string) error {
	s.log.Info(ctx, "verification code dispatched", "phone", logging.MaskPhone(phone))
	s.log.Debug(ctx, "verification code", "phone", logging.MaskPhone(phone), "code", code)
	return nil
}
