package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filekeeper/internal/bot/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
)

// Auditor writes the action trail. Recording is best effort: a failed insert
// is logged and swallowed so an audit problem never breaks the user-facing
// operation it describes.
type Auditor struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewAuditor constructs an Auditor over the given database and repositories.
func NewAuditor(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *Auditor {
	return &Auditor{db: db, repomanager: m, logger: logger}
}

// Record stores one audit entry for the user.
func (a *Auditor) Record(ctx context.Context, userID int64, description string) {
	repo := a.repomanager.AuditLog(a.db)
	if err := repo.Record(ctx, userID, description); err != nil {
		a.logger.Error(ctx, "error recording audit entry",
			"user_id", userID, "description", description, "error", err.Error())
	}
}
