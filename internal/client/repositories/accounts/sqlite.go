package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/dbx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const selectColumns = `id, username, email, salt, verifier, first_name, last_name, phone, provider,
	created_at, is_active, properties_listed, favorites, views, inquiries, saved_searches`

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, acc *models.StoredAccount) error {
	s := acc.Stats
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, salt, verifier, first_name, last_name, phone, provider,
			created_at, is_active, properties_listed, favorites, views, inquiries, saved_searches)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.Username, acc.Email, acc.Salt, acc.Verifier, acc.FirstName, acc.LastName, acc.Phone, acc.Provider,
		acc.CreatedAt.UnixNano(), acc.IsActive, s.PropertiesListed, s.Favorites, s.Views, s.Inquiries, s.SavedSearches)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.StoredAccount, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByUsername(ctx context.Context, username string) (*models.StoredAccount, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE username = ?`, username)
}

// GetByIdentifier matches identifier against the username first, then the
// email.
func (r *SQLiteRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.StoredAccount, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM accounts
		WHERE username = ? OR email = ?
		ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
		LIMIT 1`, identifier, identifier, identifier)
}

func (r *SQLiteRepository) Exists(ctx context.Context, username, email string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE username = ? OR email = ?`, username, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return n > 0, nil
}

// Update rewrites every mutable column. Salt and verifier are left alone.
func (r *SQLiteRepository) Update(ctx context.Context, acc *models.StoredAccount) error {
	s := acc.Stats
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts SET
			username = ?, email = ?, first_name = ?, last_name = ?, phone = ?, provider = ?, is_active = ?,
			properties_listed = ?, favorites = ?, views = ?, inquiries = ?, saved_searches = ?
		WHERE id = ?`,
		acc.Username, acc.Email, acc.FirstName, acc.LastName, acc.Phone, acc.Provider, acc.IsActive,
		s.PropertiesListed, s.Favorites, s.Views, s.Inquiries, s.SavedSearches, acc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("failed to update account %s: %w", acc.ID, err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, args ...any) (*models.StoredAccount, error) {
	var (
		acc       models.StoredAccount
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&acc.ID, &acc.Username, &acc.Email, &acc.Salt, &acc.Verifier,
		&acc.FirstName, &acc.LastName, &acc.Phone, &acc.Provider,
		&createdAt, &acc.IsActive,
		&acc.Stats.PropertiesListed, &acc.Stats.Favorites, &acc.Stats.Views,
		&acc.Stats.Inquiries, &acc.Stats.SavedSearches,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	acc.CreatedAt = time.Unix(0, createdAt).UTC()
	return &acc, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
