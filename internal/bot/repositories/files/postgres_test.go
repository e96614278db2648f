package files

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/filekeeper/internal/bot/models"
	"github.com/dmitrijs2005/filekeeper/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+storage\s*\(user_id,\s*storage_handle,\s*original_filename,\s*kind\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*uploaded_at\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "uploaded_at"}).AddRow(int64(11), now)
	mock.ExpectQuery(q).
		WithArgs(int64(100500), "/files/100500/abc.pdf", "report.pdf", "document").
		WillReturnRows(rows)

	f := &models.StoredFile{
		UserID:           100500,
		StorageHandle:    "/files/100500/abc.pdf",
		OriginalFilename: "report.pdf",
		Kind:             models.KindDocument,
	}
	got, err := repo.Create(context.Background(), f)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 11 || !got.UploadedAt.Equal(now) {
		t.Fatalf("unexpected file: %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+storage\s*\(user_id,\s*storage_handle,\s*original_filename,\s*kind\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*uploaded_at\s*$`

	mock.ExpectQuery(q).
		WithArgs(int64(100500), "/x", "report.pdf", "document").
		WillReturnError(errors.New("constraint violation"))

	f := &models.StoredFile{UserID: 100500, StorageHandle: "/x", OriginalFilename: "report.pdf", Kind: models.KindDocument}
	_, err := repo.Create(context.Background(), f)
	if err == nil || !regexp.MustCompile(`db error: .*constraint violation`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*storage_handle,\s*original_filename,\s*kind,\s*uploaded_at\s+FROM\s+storage\s+WHERE\s+id\s*=\s*\$1\s*$`

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "storage_handle", "original_filename", "kind", "uploaded_at"}).
		AddRow(int64(11), int64(100500), "/files/100500/abc.pdf", "report.pdf", "document", now)
	mock.ExpectQuery(q).
		WithArgs(int64(11)).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), 11)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.ID != 11 || got.UserID != 100500 || got.Kind != models.KindDocument {
		t.Fatalf("unexpected file: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*user_id,\s*storage_handle,\s*original_filename,\s*kind,\s*uploaded_at\s+FROM\s+storage\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+storage\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 11); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
}

func TestDelete_MissingRowNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^DELETE\s+FROM\s+storage\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectExec(q).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 404)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestListByUser_NewestFirstWithOwnerName(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+s\.id,\s*s\.user_id,\s*s\.storage_handle,\s*s\.original_filename,\s*s\.kind,\s*s\.uploaded_at,\s*u\.display_name\s+FROM\s+storage\s+s\s+JOIN\s+users\s+u\s+ON\s+s\.user_id\s*=\s*u\.user_id\s+WHERE\s+s\.user_id\s*=\s*\$1\s+ORDER\s+BY\s+s\.uploaded_at\s+DESC\s*$`

	newer := time.Now()
	older := newer.Add(-time.Hour)
	rows := sqlmock.NewRows([]string{"id", "user_id", "storage_handle", "original_filename", "kind", "uploaded_at", "display_name"}).
		AddRow(int64(12), int64(100500), "/files/100500/b.jpg", "photo_b.jpg", "photo", newer, "Alice A").
		AddRow(int64(11), int64(100500), "/files/100500/a.pdf", "report.pdf", "document", older, "Alice A")
	mock.ExpectQuery(q).
		WithArgs(int64(100500)).
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), 100500)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected count: %d", len(got))
	}
	if got[0].ID != 12 || got[1].ID != 11 {
		t.Fatalf("unexpected order: %d, %d", got[0].ID, got[1].ID)
	}
	if got[0].OwnerName != "Alice A" || got[0].Kind != models.KindPhoto {
		t.Fatalf("unexpected row: %+v", got[0])
	}
}

func TestListByUser_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+s\.id,.*FROM\s+storage\s+s\s+JOIN\s+users\s+u.*$`

	rows := sqlmock.NewRows([]string{"id", "user_id", "storage_handle", "original_filename", "kind", "uploaded_at", "display_name"})
	mock.ExpectQuery(q).
		WithArgs(int64(100500)).
		WillReturnRows(rows)

	got, err := repo.ListByUser(context.Background(), 100500)
	if err != nil {
		t.Fatalf("ListByUser error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %d", len(got))
	}
}

func TestListByUser_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+s\.id,.*FROM\s+storage\s+s\s+JOIN\s+users\s+u.*$`

	mock.ExpectQuery(q).
		WithArgs(int64(100500)).
		WillReturnError(errors.New("db down"))

	_, err := repo.ListByUser(context.Background(), 100500)
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
