package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/filekeeper/internal/bot/blobstore"
	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/bot/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

// Outcome reports how a delete request ended. It is meaningful only when the
// accompanying error is nil.
type Outcome int

const (
	// OutcomeDeleted means the ledger row is gone and blob removal was attempted.
	OutcomeDeleted Outcome = iota
	// OutcomeNotFound means no ledger row exists for the id.
	OutcomeNotFound
	// OutcomeForbidden means the file belongs to another user; nothing changed.
	OutcomeForbidden
)

// FileService coordinates the blob vault and the database ledger. Uploads
// write the blob first and insert the row second; deletes remove the row
// first and the blob second. A failure between the two steps can only leave
// an orphaned blob, never a ledger row pointing at nothing; orphans are
// logged with their handle.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	vault       blobstore.Vault
	logger      logging.Logger
}

// NewFileService constructs a FileService over the given vault and ledger.
func NewFileService(db *sql.DB, m repomanager.RepositoryManager, vault blobstore.Vault, logger logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, vault: vault, logger: logger}
}

// StorageName generates the blob name for an upload. The caller's file name
// never reaches storage; only its extension survives, and only for documents.
func StorageName(originalName string, kind models.Kind) (string, error) {
	switch kind {
	case models.KindDocument:
		ext := strings.ToLower(filepath.Ext(originalName))
		return fmt.Sprintf("%v%s", uuid.New(), ext), nil
	case models.KindPhoto:
		return fmt.Sprintf("photo_%v_%d.jpg", uuid.New(), time.Now().Unix()), nil
	default:
		return "", common.ErrUnknownKind
	}
}

// StoreUpload saves the content under a generated name and records it in the
// ledger. The original file name is kept verbatim in the record for display.
// Photos carry no caller-supplied name; their generated name doubles as the
// display name.
func (s *FileService) StoreUpload(ctx context.Context, userID int64, r io.Reader, originalName string, kind models.Kind) (*models.StoredFile, error) {
	name, err := StorageName(originalName, kind)
	if err != nil {
		return nil, err
	}
	if kind == models.KindPhoto {
		originalName = name
	}

	handle, err := s.vault.Save(ctx, userID, name, r)
	if err != nil {
		return nil, fmt.Errorf("error saving blob: %v", err)
	}

	file := &models.StoredFile{
		UserID:           userID,
		StorageHandle:    handle,
		OriginalFilename: originalName,
		Kind:             kind,
	}

	repo := s.repomanager.Files(s.db)
	created, err := repo.Create(ctx, file)
	if err != nil {
		s.logger.Error(ctx, "ledger insert failed after blob write, blob orphaned",
			"user_id", userID, "handle", handle, "error", err.Error())
		return nil, fmt.Errorf("error creating file record: %v", err)
	}

	s.logger.Info(ctx, "stored file", "user_id", userID, "file_id", created.ID, "kind", string(kind))
	return created, nil
}

// Delete removes the file with the given id on behalf of requestingUserID.
// Ownership is checked against the ledger; a mismatch changes nothing. The
// ledger row goes first, then the blob, so a blob removal failure leaves an
// orphan rather than a dangling row, and still counts as deleted.
func (s *FileService) Delete(ctx context.Context, fileID int64, requestingUserID int64) (Outcome, error) {
	repo := s.repomanager.Files(s.db)

	file, err := repo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return OutcomeNotFound, nil
		}
		return OutcomeNotFound, fmt.Errorf("error getting file: %v", err)
	}

	if file.UserID != requestingUserID {
		s.logger.Warn(ctx, "delete refused, file owned by another user",
			"file_id", fileID, "owner", file.UserID, "requested_by", requestingUserID)
		return OutcomeForbidden, nil
	}

	if err := repo.Delete(ctx, fileID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return OutcomeNotFound, nil
		}
		return OutcomeNotFound, fmt.Errorf("error deleting file record: %v", err)
	}

	if err := s.vault.Remove(ctx, file.StorageHandle); err != nil {
		s.logger.Error(ctx, "blob removal failed after ledger delete, blob orphaned",
			"file_id", fileID, "handle", file.StorageHandle, "error", err.Error())
	}

	s.logger.Info(ctx, "deleted file", "user_id", requestingUserID, "file_id", fileID)
	return OutcomeDeleted, nil
}

// List returns the user's files, newest first.
func (s *FileService) List(ctx context.Context, userID int64) ([]*models.StoredFile, error) {
	repo := s.repomanager.Files(s.db)
	list, err := repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing files: %v", err)
	}
	return list, nil
}
