// Package files persists ledger rows for stored blobs.
package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
)

// PostgresRepository implements the file ledger over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.StoredFile) (*models.StoredFile, error) {

	query :=
		`INSERT INTO storage (user_id, storage_handle, original_filename, kind)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, uploaded_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.UserID, file.StorageHandle, file.OriginalFilename, string(file.Kind)).
		Scan(&file.ID, &file.UploadedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.StoredFile, error) {
	query :=
		`SELECT id, user_id, storage_handle, original_filename, kind, uploaded_at FROM storage
		 WHERE id = $1
		 `

	file := &models.StoredFile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&file.ID, &file.UserID, &file.StorageHandle, &file.OriginalFilename, &file.Kind, &file.UploadedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

// Delete removes the ledger row. Exactly one row must be affected; a missing
// row reports common.ErrorNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query :=
		`DELETE FROM storage
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

// ListByUser returns the user's files newest first, joined with the owner's
// display name.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.StoredFile, error) {
	query :=
		`SELECT s.id, s.user_id, s.storage_handle, s.original_filename, s.kind, s.uploaded_at, u.display_name
		 FROM storage s
		 JOIN users u ON s.user_id = u.user_id
		 WHERE s.user_id = $1
		 ORDER BY s.uploaded_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.StoredFile
	for rows.Next() {
		var item models.StoredFile
		var ownerName sql.NullString
		if err := rows.Scan(&item.ID, &item.UserID, &item.StorageHandle, &item.OriginalFilename,
			&item.Kind, &item.UploadedAt, &ownerName); err != nil {
			return nil, err
		}
		item.OwnerName = ownerName.String
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
