package verifications

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/propkeeper/internal/client/models"
	"github.com/dmitrijs2005/propkeeper/internal/common"
	"github.com/dmitrijs2005/propkeeper/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, v *models.Verification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verifications (id, phone, code_verifier, created_at, attempts, max_attempts)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.Phone, v.CodeVerifier, v.CreatedAt.UnixNano(), v.Attempts, v.MaxAttempts)
	if err != nil {
		return fmt.Errorf("failed to insert verification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Verification, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, phone, code_verifier, created_at, attempts, max_attempts
		FROM verifications WHERE id = ?`, id)

	v, err := scanVerification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to get verification[%s]: %w", id, err)
	}
	return v, nil
}

func (r *SQLiteRepository) IncrementAttempts(ctx context.Context, id string) (int, error) {
	var attempts int
	err := r.db.QueryRowContext(ctx, `
		UPDATE verifications SET attempts = attempts + 1
		WHERE id = ? AND attempts < max_attempts
		RETURNING attempts`, id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("failed to increment attempts[%s]: %w", id, err)
	}
	return attempts, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM verifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete verification[%s]: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]*models.Verification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, phone, code_verifier, created_at, attempts, max_attempts
		FROM verifications ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list verifications: %w", err)
	}
	defer rows.Close()

	var result []*models.Verification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification row: %w", err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate verification rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVerification(s scanner) (*models.Verification, error) {
	var (
		v         models.Verification
		createdAt int64
	)
	if err := s.Scan(&v.ID, &v.Phone, &v.CodeVerifier, &createdAt, &v.Attempts, &v.MaxAttempts); err != nil {
		return nil, err
	}
	v.CreatedAt = time.Unix(0, createdAt).UTC()
	return &v, nil
}
