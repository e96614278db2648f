package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
)

func newAuditFixture(t *testing.T) (*Auditor, *fakeRepoManager, *fakeLogger) {
	t.Helper()

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := &fakeRepoManager{
		users:    &fakeUsersRepo{},
		authKeys: &fakeKeysRepo{keys: map[string]*models.AuthKey{}},
		files:    &fakeFilesRepo{},
		auditLog: &fakeAuditRepo{},
	}
	logger := &fakeLogger{}
	return NewAuditor(db, m, logger), m, logger
}

func TestAuditorRecord(t *testing.T) {
	a, m, logger := newAuditFixture(t)

	a.Record(context.Background(), 42, "User authorized successfully.")

	if len(m.auditLog.recordGot) != 1 || m.auditLog.recordGot[0] != "User authorized successfully." {
		t.Errorf("unexpected audit rows: %v", m.auditLog.recordGot)
	}
	if logger.has("error", `.`) {
		t.Error("unexpected error log on success")
	}
}

func TestAuditorRecordFailureIsSwallowed(t *testing.T) {
	a, m, logger := newAuditFixture(t)
	m.auditLog.recordErr = &errBoom{}

	a.Record(context.Background(), 42, "File uploaded.")

	if !logger.has("error", `error recording audit entry`) {
		t.Error("expected the failure to be logged")
	}
}
