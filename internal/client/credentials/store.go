// Package credentials is the local credential store: account registration,
// secret verification, profile updates and usage counters, all backed by the
// client SQLite database.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/client/repositories/accounts"
	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/cryptox"
	"github.com/dmitrijs2005/propkeeper/internal/dbx"
	"github.com/dmitrijs2005/propkeeper/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrDuplicate = common.ErrorAlreadyExists
	ErrNotFound  = common.ErrorNotFound
)

// Store owns local accounts. Secrets are kept only as an argon2id-derived
// verifier next to a random salt.
type Store struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time
}

func NewStore(db *sql.DB, log logging.Logger) *Store {
	if log == nil {
		log = logging.NopLogger{}
	}
	return &Store{db: db, log: log.With("module", "credentials"), now: time.Now}
}

func (s *Store) repo(db dbx.DBTX) accounts.Repository {
	return accounts.NewSQLiteRepository(db)
}

// Register creates an account from in. It returns ErrDuplicate when the
// username or the email is already taken, and common.ErrorValidation for an
// identity reserved to phone accounts.
func (s *Store) Register(ctx context.Context, in models.RegisterInput) (*models.Account, error) {
	return s.register(ctx, in, models.ProviderLocal)
}

// RegisterWithProvider is Register for accounts created on behalf of another
// authority, such as phone verification.
func (s *Store) RegisterWithProvider(ctx context.Context, in models.RegisterInput, provider string) (*models.Account, error) {
	return s.register(ctx, in, provider)
}

func (s *Store) register(ctx context.Context, in models.RegisterInput, provider string) (*models.Account, error) {
	if err := models.ValidateIdentity(in.Username, in.Email, provider); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate account id: %w", err)
	}

	salt := common.GenerateRandByteArray(cryptox.SaltSize)
	key := cryptox.DeriveMasterKey([]byte(in.Password), salt)
	defer common.WipeByteArray(key)

	stored := &models.StoredAccount{
		Account: models.Account{
			ID:        id.String(),
			Username:  in.Username,
			Email:     in.Email,
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Phone:     in.Phone,
			Provider:  provider,
			CreatedAt: s.now().UTC(),
			IsActive:  true,
		},
		Salt:     salt,
		Verifier: cryptox.MakeVerifier(key),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repo(tx)
		exists, err := repo.Exists(ctx, in.Username, in.Email)
		if err != nil {
			return err
		}
		if exists {
			return ErrDuplicate
		}
		return repo.Create(ctx, stored)
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to register account: %w", err)
	}

	s.log.Info(ctx, "account registered", "user_id", stored.ID, "provider", provider)
	acc := stored.Account
	return &acc, nil
}

// Authenticate matches identifier against usernames and emails and checks
// secret. It returns (nil, nil) when nothing matches.
func (s *Store) Authenticate(ctx context.Context, identifier, secret string) (*models.Account, error) {
	stored, err := s.repo(s.db).GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if !cryptox.CheckPassword([]byte(secret), stored.Salt, stored.Verifier) {
		return nil, nil
	}
	acc := stored.Account
	return &acc, nil
}

// Lookup returns the account with id, or (nil, nil) when there is none.
func (s *Store) Lookup(ctx context.Context, id string) (*models.Account, error) {
	return s.lookup(ctx, func(repo accounts.Repository) (*models.StoredAccount, error) {
		return repo.GetByID(ctx, id)
	})
}

// FindByUsername returns the account named username, or (nil, nil).
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.lookup(ctx, func(repo accounts.Repository) (*models.StoredAccount, error) {
		return repo.GetByUsername(ctx, username)
	})
}

func (s *Store) lookup(ctx context.Context, get func(accounts.Repository) (*models.StoredAccount, error)) (*models.Account, error) {
	stored, err := get(s.repo(s.db))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	acc := stored.Account
	return &acc, nil
}

func (s *Store) Exists(ctx context.Context, username, email string) (bool, error) {
	return s.repo(s.db).Exists(ctx, username, email)
}

// Update merges upd into the stored account and returns the result.
func (s *Store) Update(ctx context.Context, id string, upd models.ProfileUpdate) (*models.Account, error) {
	return s.modify(ctx, id, func(acc models.Account) models.Account {
		return upd.ApplyTo(acc)
	})
}

// IncrementCounters adds delta to the account's usage counters. Counters
// never drop below zero.
func (s *Store) IncrementCounters(ctx context.Context, id string, delta models.StatsDelta) (*models.Account, error) {
	return s.modify(ctx, id, func(acc models.Account) models.Account {
		acc.Stats = acc.Stats.Apply(delta)
		return acc
	})
}

func (s *Store) modify(ctx context.Context, id string, fn func(models.Account) models.Account) (*models.Account, error) {
	acc, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.Account, error) {
		repo := s.repo(tx)
		stored, err := repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		stored.Account = fn(stored.Account)
		stored.ID = id
		if err := models.ValidateIdentity(stored.Username, stored.Email, stored.Provider); err != nil {
			return nil, err
		}
		if err := repo.Update(ctx, stored); err != nil {
			return nil, err
		}
		acc := stored.Account
		return &acc, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			return nil, ErrNotFound
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, ErrDuplicate
		case errors.Is(err, common.ErrorValidation):
			return nil, err
		}
		return nil, fmt.Errorf("failed to update account %s: %w", id, err)
	}
	return acc, nil
}

// Delete removes the account permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.repo(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrNotFound
		}
		return err
	}
	s.log.Info(ctx, "account deleted", "user_id", id)
	return nil
}

// GenerateToken mints a local session token of the form
// local_<id>_<unix-millis>. It identifies the account but is not a secure
// bearer credential.
func (s *Store) GenerateToken(id string) string {
	return common.LocalTokenPrefix + id + "_" + strconv.FormatInt(s.now().UnixMilli(), 10)
}
