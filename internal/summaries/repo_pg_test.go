package summaries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
)

var summaryCols = []string{"id", "user_id", "type", "upload_type", "title", "initial_data", "file_name", "file_content_type", "file_blob_id", "output_data", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateWithFile(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	s := Summary{
		ID:         "s1",
		UserID:     "u1",
		Type:       "code",
		UploadType: UploadFile,
		Title:      "T",
		File:       &FileData{FileName: "a.py", ContentType: "text/plain", BlobID: "b1"},
		OutputData: "out",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	mock.ExpectExec("INSERT INTO summaries").
		WithArgs("s1", "u1", "code", UploadFile, "T", nil, "a.py", "text/plain", "b1", "out", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDScansFile(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, user_id, type").WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(summaryCols).
			AddRow("s1", "u1", "code", "upload", "T", nil, "a.py", "text/plain", "b1", "out", now, now))

	s, err := repo.GetByID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if s.File == nil || s.File.BlobID != "b1" || s.InitialData != "" || s.OutputData != "out" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestPGRepoGetByIDTextHasNoFile(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, type").WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(summaryCols).
			AddRow("s1", "u1", "research", "text", "T", "paper", nil, nil, nil, "out", now, now))

	s, err := repo.GetByID(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if s.File != nil || s.InitialData != "paper" {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT id, user_id, type").WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(summaryCols))
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoListByUserOrdersNewestFirst(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery("ORDER BY created_at DESC").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(summaryCols).
			AddRow("s2", "u1", "code", "text", "B", "x", nil, nil, nil, "o", now, now).
			AddRow("s1", "u1", "code", "text", "A", "y", nil, nil, nil, "o", now.Add(-time.Hour), now))

	list, err := repo.ListByUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != "s2" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestPGRepoUpdateOutputMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE summaries").
		WithArgs("T", "out", sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	if err := repo.UpdateOutput(context.Background(), "missing", "T", "out", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoDelete(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM summaries").WithArgs("s1").WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.Delete(context.Background(), "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoCreateShareDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO shared_summaries").
		WithArgs("sh1", "s1", "u1", "u2", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := repo.CreateShare(context.Background(), Share{ID: "sh1", SummaryID: "s1", SenderID: "u1", RecipientID: "u2", SharedAt: time.Now()})
	if !errors.Is(err, ErrAlreadyShared) {
		t.Fatalf("expected ErrAlreadyShared, got %v", err)
	}
}

func TestPGRepoHasShare(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT EXISTS").WithArgs("s1", "u2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	ok, err := repo.HasShare(context.Background(), "s1", "u2")
	if err != nil || !ok {
		t.Fatalf("HasShare = %v, %v", ok, err)
	}
}

func TestPGRepoListSharesForRecipient(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery("FROM shared_summaries").WithArgs("u2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "summary_id", "sender_id", "recipient_id", "shared_at"}).
			AddRow("sh2", "s2", "u1", "u2", now).
			AddRow("sh1", "s1", "u1", "u2", now.Add(-time.Minute)))
	shares, err := repo.ListSharesForRecipient(context.Background(), "u2")
	if err != nil {
		t.Fatalf("ListSharesForRecipient: %v", err)
	}
	if len(shares) != 2 || shares[0].ID != "sh2" {
		t.Fatalf("unexpected shares %+v", shares)
	}
}

func TestPGRepoReferencedBlobIDs(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT file_blob_id FROM summaries").
		WillReturnRows(sqlmock.NewRows([]string{"file_blob_id"}).AddRow("b1").AddRow("b2"))
	refs, err := repo.ReferencedBlobIDs(context.Background())
	if err != nil {
		t.Fatalf("ReferencedBlobIDs: %v", err)
	}
	if _, ok := refs["b2"]; !ok || len(refs) != 2 {
		t.Fatalf("unexpected refs %v", refs)
	}
}
