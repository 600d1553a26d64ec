package summaries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// PGRepo implements Repo and ShareRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const summaryColumns = `id, user_id, type, upload_type, title, initial_data, file_name, file_content_type, file_blob_id, output_data, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, s Summary) error {
	const query = `
INSERT INTO summaries (
    id,
    user_id,
    type,
    upload_type,
    title,
    initial_data,
    file_name,
    file_content_type,
    file_blob_id,
    output_data,
    created_at,
    updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	var fileName, fileType, blobID sql.NullString
	if s.File != nil {
		fileName = nullableString(s.File.FileName)
		fileType = nullableString(s.File.ContentType)
		blobID = nullableString(s.File.BlobID)
	}
	_, err := r.DB.ExecContext(ctx, query,
		s.ID,
		s.UserID,
		s.Type,
		s.UploadType,
		nullableString(s.Title),
		nullableString(s.InitialData),
		fileName,
		fileType,
		blobID,
		nullableString(s.OutputData),
		s.CreatedAt,
		s.UpdatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Summary, error) {
	query := `SELECT ` + summaryColumns + `
FROM summaries
WHERE id = $1
LIMIT 1`
	return scanSummary(r.DB.QueryRowContext(ctx, query, id))
}

func (r *PGRepo) GetByBlobID(ctx context.Context, blobID string) (Summary, error) {
	query := `SELECT ` + summaryColumns + `
FROM summaries
WHERE file_blob_id = $1
LIMIT 1`
	return scanSummary(r.DB.QueryRowContext(ctx, query, blobID))
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Summary, error) {
	query := `SELECT ` + summaryColumns + `
FROM summaries
WHERE user_id = $1
ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateOutput(ctx context.Context, id, title, output string, updatedAt time.Time) error {
	const query = `
UPDATE summaries
SET title = $1, output_data = $2, updated_at = $3
WHERE id = $4`
	res, err := r.DB.ExecContext(ctx, query, nullableString(title), nullableString(output), updatedAt, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete relies on ON DELETE CASCADE to remove shares.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM summaries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *PGRepo) ReferencedBlobIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT file_blob_id FROM summaries WHERE file_blob_id IS NOT NULL`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (r *PGRepo) CreateShare(ctx context.Context, sh Share) error {
	const query = `
INSERT INTO shared_summaries (id, summary_id, sender_id, recipient_id, shared_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, sh.ID, sh.SummaryID, sh.SenderID, sh.RecipientID, sh.SharedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyShared
	}
	return err
}

func (r *PGRepo) HasShare(ctx context.Context, summaryID, recipientID string) (bool, error) {
	const query = `
SELECT EXISTS (
    SELECT 1 FROM shared_summaries WHERE summary_id = $1 AND recipient_id = $2
)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, summaryID, recipientID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PGRepo) ListSharesForRecipient(ctx context.Context, recipientID string) ([]Share, error) {
	const query = `
SELECT id, summary_id, sender_id, recipient_id, shared_at
FROM shared_summaries
WHERE recipient_id = $1
ORDER BY shared_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, recipientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Share, 0)
	for rows.Next() {
		var sh Share
		if err := rows.Scan(&sh.ID, &sh.SummaryID, &sh.SenderID, &sh.RecipientID, &sh.SharedAt); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (Summary, error) {
	var s Summary
	var title, initialData, fileName, fileType, blobID, output sql.NullString
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Type,
		&s.UploadType,
		&title,
		&initialData,
		&fileName,
		&fileType,
		&blobID,
		&output,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Summary{}, ErrNotFound
		}
		return Summary{}, err
	}
	s.Title = title.String
	s.InitialData = initialData.String
	s.OutputData = output.String
	if fileName.Valid || blobID.Valid {
		s.File = &FileData{
			FileName:    fileName.String,
			ContentType: fileType.String,
			BlobID:      blobID.String,
		}
	}
	return s, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: val, Valid: true}
}

var (
	_ Repo      = (*PGRepo)(nil)
	_ ShareRepo = (*PGRepo)(nil)
)
