// Package verifications is the namespaced sub-store holding outstanding
// phone-verification records, keyed by verification id.
package verifications

import (
	"context"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
)

type Repository interface {
	Create(ctx context.Context, v *models.Verification) error
	Get(ctx context.Context, id string) (*models.Verification, error)
	// IncrementAttempts durably bumps the attempt counter, never past
	// MaxAttempts, and returns the new value.
	IncrementAttempts(ctx context.Context, id string) (int, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*models.Verification, error)
}
