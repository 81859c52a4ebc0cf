package models

import "time"

// RevokedToken records a logged-out access token until it would have
// expired anyway.
type RevokedToken struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}
