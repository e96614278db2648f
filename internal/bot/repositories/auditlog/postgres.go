// Package auditlog appends user action records to the logs table.
package auditlog

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Record(ctx context.Context, userID int64, description string) error {
	query :=
		`INSERT INTO logs (user_id, description)
         VALUES ($1, $2)
		 `

	if _, err := r.db.ExecContext(ctx, query, userID, description); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
