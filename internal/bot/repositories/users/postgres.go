package users

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

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (user_id, display_name)
         VALUES ($1, $2)
		 RETURNING id, registered_at
		 `

	displayName := sql.NullString{String: user.DisplayName, Valid: user.DisplayName != ""}

	err := r.db.QueryRowContext(ctx, query,
		user.UserID, displayName).Scan(&user.ID, &user.RegisteredAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByUserID(ctx context.Context, userID int64) (*models.User, error) {
	query :=
		`SELECT id, user_id, display_name, registered_at, is_authorized FROM users
		 WHERE user_id = $1
		 `

	user := &models.User{}
	var displayName sql.NullString
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.UserID, &displayName, &user.RegisteredAt, &user.IsAuthorized)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.DisplayName = displayName.String
	return user, nil
}

// SetAuthorized flips the authorization flag and reports the number of rows
// affected, so callers can tell an unknown user (0) from a real update (1).
func (r *PostgresRepository) SetAuthorized(ctx context.Context, userID int64, authorized bool) (int64, error) {
	query :=
		`UPDATE users SET is_authorized = $1
		 WHERE user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, authorized, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}

	return n, nil
}
