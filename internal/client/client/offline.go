package client

import (
	"context"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
)

// Offline is the Client used when no server is configured. Every call fails
// with ErrUnavailable, which sends the session engine to its local paths.
type Offline struct{}

var _ Client = Offline{}

func (Offline) Login(context.Context, string, string) (*AuthResult, error) {
	return nil, ErrUnavailable
}

func (Offline) Register(context.Context, models.RegisterInput) (*AuthResult, error) {
	return nil, ErrUnavailable
}

func (Offline) Logout(context.Context, string) error { return ErrUnavailable }

func (Offline) VerifyToken(context.Context, string) (*models.Account, bool, error) {
	return nil, false, ErrUnavailable
}

func (Offline) GetProfile(context.Context, string) (*models.Account, error) {
	return nil, ErrUnavailable
}

func (Offline) UpdateProfile(context.Context, string, models.ProfileUpdate) (*models.Account, error) {
	return nil, ErrUnavailable
}

func (Offline) DeleteProfile(context.Context, string) error { return ErrUnavailable }

func (Offline) GetStats(context.Context, string) (models.Stats, error) {
	return models.Stats{}, ErrUnavailable
}

func (Offline) OAuthLogin(context.Context, string, string) (*AuthResult, error) {
	return nil, ErrUnavailable
}

func (Offline) Close() error { return nil }
