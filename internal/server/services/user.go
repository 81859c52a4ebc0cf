// Package services contains server-side business logic. UserService handles
// registration, login, token verification and revocation, and the profile
// operations of the authority API.
package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/dbx"
	"github.com/dmitrijs2005/propkeeper/internal/server/auth"
	"github.com/dmitrijs2005/propkeeper/internal/server/config"
	"github.com/dmitrijs2005/propkeeper/internal/server/models"
	"github.com/dmitrijs2005/propkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/propkeeper/internal/server/repositories/users"
	"github.com/google/uuid"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

// AuthResult is a freshly issued token and the account it belongs to.
type AuthResult struct {
	Token string
	User  *models.User
}

type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	minPasswordEntropy          float64
	bcryptCost                  int
	now                         func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		minPasswordEntropy:          cfg.MinPasswordEntropy,
		bcryptCost:                  bcrypt.DefaultCost,
		now:                         time.Now,
	}
}

// Register creates a local account and signs it in.
func (s *UserService) Register(ctx context.Context, in models.RegisterInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", common.ErrMissingArguments)
	}
	if !strings.Contains(in.Email, "@") {
		return nil, fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	// Login matches either column, so a username must never look like an email.
	if strings.Contains(in.Username, "@") {
		return nil, fmt.Errorf("%w: username must not contain '@'", common.ErrorValidation)
	}
	if s.minPasswordEntropy > 0 {
		if err := passwordvalidator.Validate(in.Password, s.minPasswordEntropy); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrWeakPassword, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Provider:     models.ProviderLocal,
		PasswordHash: hash,
		IsActive:     true,
	}

	user, err = s.create(ctx, s.repomanager.Users(s.db), user)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login checks identifier (username or email) and password. Unknown users,
// wrong passwords and deactivated accounts all yield common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	if identifier == "" || password == "" {
		return nil, fmt.Errorf("%w: identifier and password are required", common.ErrMissingArguments)
	}

	user, err := s.repomanager.Users(s.db).GetByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if len(user.PasswordHash) == 0 || !user.IsActive {
		return nil, common.ErrorUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.issue(user)
}

// OAuthLogin signs in the account bound to an authorization code, creating
// it on first use. No provider is contacted: the code itself identifies the
// account, which is enough for a reference authority.
func (s *UserService) OAuthLogin(ctx context.Context, provider, code string) (*AuthResult, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" || code == "" {
		return nil, fmt.Errorf("%w: provider and code are required", common.ErrMissingArguments)
	}

	sum := sha256.Sum256([]byte(provider + ":" + code))
	subject := hex.EncodeToString(sum[:])[:16]

	user, err := dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		username := provider + "_" + subject
		u, err := repo.GetByLogin(ctx, username)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}

		return s.create(ctx, repo, &models.User{
			Username: username,
			Email:    subject + "@" + provider + ".oauth",
			Provider: provider,
			IsActive: true,
		})
	})
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	return s.issue(user)
}

// Authenticate parses token and rejects revoked ones.
func (s *UserService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.repomanager.RevokedTokens(s.db).Exists(ctx, claims.ID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if revoked {
		return nil, common.ErrorUnauthorized
	}

	return claims, nil
}

// Verify returns the active account that token belongs to.
func (s *UserService) Verify(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}
	return user, nil
}

// Logout revokes the token described by claims and drops revocations
// that have outlived their tokens.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	expiresAt := s.now().Add(s.accessTokenValidityDuration)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.RevokedTokens(tx)
		if err := repo.Create(ctx, claims.ID, claims.UserID, expiresAt); err != nil {
			return fmt.Errorf("error revoking token: %w", err)
		}
		if _, err := repo.DeleteExpired(ctx, s.now()); err != nil {
			return fmt.Errorf("error purging revoked tokens: %w", err)
		}
		return nil
	})
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// UpdateProfile applies upd to the stored account in one transaction.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	return dbx.WithTxValue(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) (*models.User, error) {
		repo := s.repomanager.Users(tx)

		current, err := repo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}

		updated := upd.ApplyTo(*current)
		if strings.TrimSpace(updated.Username) == "" || !strings.Contains(updated.Email, "@") {
			return nil, fmt.Errorf("%w: username and a valid email are required", common.ErrorValidation)
		}
		if strings.Contains(updated.Username, "@") {
			return nil, fmt.Errorf("%w: username must not contain '@'", common.ErrorValidation)
		}

		if err := repo.Update(ctx, &updated); err != nil {
			return nil, err
		}
		return &updated, nil
	})
}

func (s *UserService) DeleteProfile(ctx context.Context, userID string) error {
	return s.repomanager.Users(s.db).Delete(ctx, userID)
}

func (s *UserService) GetStats(ctx context.Context, userID string) (models.Stats, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return models.Stats{}, err
	}
	return user.Stats, nil
}

// --- helpers below ---

func (s *UserService) create(ctx context.Context, repo users.Repository, user *models.User) (*models.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, common.ErrorInternal
	}
	user.ID = id.String()

	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

func (s *UserService) issue(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{Token: token, User: user}, nil
}
