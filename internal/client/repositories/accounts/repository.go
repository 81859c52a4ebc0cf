// Package accounts persists local account records in SQLite.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
)

// Repository stores accounts with their salt and verifier. Lookups return
// common.ErrorNotFound on miss; unique violations surface as
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, acc *models.StoredAccount) error
	GetByID(ctx context.Context, id string) (*models.StoredAccount, error)
	GetByUsername(ctx context.Context, username string) (*models.StoredAccount, error)
	GetByIdentifier(ctx context.Context, identifier string) (*models.StoredAccount, error)
	Exists(ctx context.Context, username, email string) (bool, error)
	Update(ctx context.Context, acc *models.StoredAccount) error
	Delete(ctx context.Context, id string) error
}
