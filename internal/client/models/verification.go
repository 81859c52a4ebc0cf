package models

import "time"

// DefaultMaxAttempts is the number of verify calls allowed per record.
const DefaultMaxAttempts = 3

// Verification is one outstanding phone-verification challenge. The code is
// kept only as a verifier.
type Verification struct {
	ID           string
	Phone        string
	CodeVerifier []byte
	CreatedAt    time.Time
	Attempts     int
	MaxAttempts  int
}

// Remaining reports how many verify calls are left.
func (v *Verification) Remaining() int {
	if v.Attempts >= v.MaxAttempts {
		return 0
	}
	return v.MaxAttempts - v.Attempts
}
