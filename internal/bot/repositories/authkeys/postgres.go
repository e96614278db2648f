// Package authkeys persists single-use authorization tokens.
package authkeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetForUpdate fetches a key row and takes a row lock on it. Run it inside a
// transaction; the lock serializes concurrent redemptions of the same token.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, token string) (*models.AuthKey, error) {
	query :=
		`SELECT id, is_used FROM auth_keys
		 WHERE token = $1
		 FOR UPDATE
		 `

	key := &models.AuthKey{Token: token}
	err := r.db.QueryRowContext(ctx, query, token).Scan(&key.ID, &key.IsUsed)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return key, nil
}

// MarkUsed flips the used flag. Exactly one row must be affected.
func (r *PostgresRepository) MarkUsed(ctx context.Context, token string) error {
	query :=
		`UPDATE auth_keys SET is_used = TRUE
		 WHERE token = $1
		 `

	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("wrong rows affected count: %d", n)
	}

	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	query := `SELECT COUNT(*) FROM auth_keys`

	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return n, nil
}

// Seed inserts the given tokens as unused keys.
func (r *PostgresRepository) Seed(ctx context.Context, tokens []string) error {
	query := `INSERT INTO auth_keys (token) VALUES ($1)`

	for _, token := range tokens {
		if _, err := r.db.ExecContext(ctx, query, token); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}
