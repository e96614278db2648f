package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/filekeeper/internal/bot/repositories/auditlog"
	"github.com/dmitrijs2005/filekeeper/internal/bot/repositories/authkeys"
	"github.com/dmitrijs2005/filekeeper/internal/bot/repositories/files"
	"github.com/dmitrijs2005/filekeeper/internal/bot/repositories/users"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	AuthKeys(db dbx.DBTX) authkeys.Repository
	Files(db dbx.DBTX) files.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
}
