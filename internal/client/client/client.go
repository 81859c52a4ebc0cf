package client

import (
	"context"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
)

// AuthResult is what the authority returns from login-like calls.
type AuthResult struct {
	Token string          `json:"token"`
	User  *models.Account `json:"user"`
}

// Client is the remote authority contract used by the session engine.
// Calls that act on behalf of a session take its bearer token explicitly.
type Client interface {
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
	Register(ctx context.Context, in models.RegisterInput) (*AuthResult, error)
	Logout(ctx context.Context, token string) error
	// VerifyToken reports whether token is still accepted. A rejected token
	// is not an error.
	VerifyToken(ctx context.Context, token string) (*models.Account, bool, error)
	GetProfile(ctx context.Context, token string) (*models.Account, error)
	UpdateProfile(ctx context.Context, token string, upd models.ProfileUpdate) (*models.Account, error)
	DeleteProfile(ctx context.Context, token string) error
	GetStats(ctx context.Context, token string) (models.Stats, error)
	OAuthLogin(ctx context.Context, provider, code string) (*AuthResult, error)
	Close() error
}
