// Package revokedtokens declares the repository contract for access tokens
// revoked by logout.
package revokedtokens

import (
	"context"
	"time"
)

// Repository stores revoked token ids (jti) until their natural expiry.
type Repository interface {
	// Create revokes token id of userID. Revoking twice is not an error.
	Create(ctx context.Context, id, userID string, expiresAt time.Time) error

	// Exists reports whether id has been revoked.
	Exists(ctx context.Context, id string) (bool, error)

	// DeleteExpired drops rows whose tokens expired before t and returns
	// how many were removed.
	DeleteExpired(ctx context.Context, t time.Time) (int64, error)
}
