package summaries

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"briefly-backend/internal/extract"
	"briefly-backend/internal/llm"
	"briefly-backend/internal/llm/parse"
	"briefly-backend/internal/shared/apperr"
	"briefly-backend/internal/shared/metrics"
	"briefly-backend/internal/shared/storage/object"
	"briefly-backend/internal/shared/telemetry"
	"briefly-backend/internal/users"
)

// Pipeline generates a summary for new input.
type Pipeline interface {
	Summarize(ctx context.Context, contentType, text string) (parse.Result, error)
}

// Reworker regenerates a stored summary from feedback.
type Reworker interface {
	Regenerate(ctx context.Context, stored Summary, feedback string) (parse.Result, error)
}

// Directory looks up registered users.
type Directory interface {
	GetByID(ctx context.Context, userID string) (users.User, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

// Service owns the summary lifecycle.
type Service struct {
	Repo        Repo
	Shares      ShareRepo
	Blobs       object.BlobStore
	Users       Directory
	Pipeline    Pipeline
	Regenerator Reworker
	Now         func() time.Time
}

// CreateFromText summarizes text and stores the finished record. Nothing
// is stored when the pipeline fails.
func (s *Service) CreateFromText(ctx context.Context, userID, contentType, text string) (Summary, error) {
	if !llm.ValidContentType(contentType) {
		return Summary{}, ErrInvalidType
	}
	if strings.TrimSpace(text) == "" {
		return Summary{}, ErrEmptyInput
	}

	res, err := s.Pipeline.Summarize(ctx, contentType, text)
	if err != nil {
		metrics.IncSummaryOp("create", "error")
		return Summary{}, err
	}

	now := s.now()
	summary := Summary{
		ID:          uuid.NewString(),
		UserID:      userID,
		Type:        contentType,
		UploadType:  UploadText,
		Title:       res.Title,
		InitialData: text,
		OutputData:  res.Summary,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Create(ctx, summary); err != nil {
		metrics.IncSummaryOp("create", "error")
		return Summary{}, fmt.Errorf("store summary: %w", err)
	}
	metrics.IncSummaryOp("create", "ok")
	telemetry.Info("summary.created", map[string]any{"summary_id": summary.ID, "user_id": userID, "type": contentType})
	return summary, nil
}

// CreateFromFile stores the upload, extracts its text and summarizes it.
// The blob is written first and survives a later failure; the failure is
// logged with the blob id for reconciliation.
func (s *Service) CreateFromFile(ctx context.Context, userID, contentType, uploadType string, file FileUpload) (Summary, error) {
	if !llm.ValidContentType(contentType) {
		return Summary{}, ErrInvalidType
	}
	if strings.TrimSpace(file.FileName) == "" {
		return Summary{}, apperr.Validation("file is required")
	}
	if uploadType == "" {
		uploadType = UploadFile
	}
	if (file.ContentType == "" || file.ContentType == "application/octet-stream") && extract.IsPlainText(file.FileName) {
		file.ContentType = "text/plain; charset=utf-8"
	}

	blob, err := s.Blobs.Put(ctx, file.FileName, file.ContentType, bytes.NewReader(file.Data))
	if err != nil {
		metrics.IncSummaryOp("upload", "error")
		return Summary{}, apperr.Service("file storage unavailable", err)
	}

	summary, err := s.summarizeUpload(ctx, userID, contentType, uploadType, file, blob)
	if err != nil {
		metrics.IncSummaryOp("upload", "error")
		telemetry.Warn("summary.orphan_blob", map[string]any{"blob_id": blob.ID, "user_id": userID, "err": err})
		return Summary{}, err
	}
	metrics.IncSummaryOp("upload", "ok")
	telemetry.Info("summary.created", map[string]any{"summary_id": summary.ID, "user_id": userID, "type": contentType, "blob_id": blob.ID})
	return summary, nil
}

func (s *Service) summarizeUpload(ctx context.Context, userID, contentType, uploadType string, file FileUpload, blob object.Blob) (Summary, error) {
	text, err := extract.Text(extract.Source{FileName: file.FileName, Data: file.Data})
	if err != nil {
		return Summary{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Summary{}, ErrEmptyFile
	}

	res, err := s.Pipeline.Summarize(ctx, contentType, text)
	if err != nil {
		return Summary{}, err
	}

	now := s.now()
	summary := Summary{
		ID:         uuid.NewString(),
		UserID:     userID,
		Type:       contentType,
		UploadType: uploadType,
		Title:      res.Title,
		File: &FileData{
			FileName:    file.FileName,
			ContentType: blob.ContentType,
			BlobID:      blob.ID,
		},
		OutputData: res.Summary,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, summary); err != nil {
		return Summary{}, fmt.Errorf("store summary: %w", err)
	}
	return summary, nil
}

// Get returns a summary readable by requesterID: its owner or a share
// recipient. Anyone else sees ErrNotFound.
func (s *Service) Get(ctx context.Context, requesterID, id string) (Summary, error) {
	summary, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	if summary.UserID == requesterID {
		return summary, nil
	}
	shared, err := s.Shares.HasShare(ctx, id, requesterID)
	if err != nil {
		return Summary{}, err
	}
	if !shared {
		return Summary{}, ErrNotFound
	}
	return summary, nil
}

// ListByUser returns the user's summaries, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Summary, error) {
	return s.Repo.ListByUser(ctx, userID)
}

// Delete removes the owner's summary and its uploaded file. A file that is
// already gone does not block the delete.
func (s *Service) Delete(ctx context.Context, requesterID, id string) error {
	summary, err := s.owned(ctx, requesterID, id)
	if err != nil {
		return err
	}
	if blobID := summary.BlobID(); blobID != "" {
		if err := s.Blobs.Delete(ctx, blobID); err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return apperr.Service("file storage unavailable", err)
		}
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	metrics.IncSummaryOp("delete", "ok")
	telemetry.Info("summary.deleted", map[string]any{"summary_id": id, "user_id": requesterID})
	return nil
}

// Regenerate replaces the owner's summary output using feedback.
func (s *Service) Regenerate(ctx context.Context, requesterID, id, feedback string) (Summary, error) {
	if strings.TrimSpace(feedback) == "" {
		return Summary{}, ErrEmptyFeedback
	}
	summary, err := s.owned(ctx, requesterID, id)
	if err != nil {
		return Summary{}, err
	}

	res, err := s.Regenerator.Regenerate(ctx, summary, feedback)
	if err != nil {
		metrics.IncSummaryOp("regenerate", "error")
		return Summary{}, err
	}

	now := s.now()
	if err := s.Repo.UpdateOutput(ctx, id, res.Title, res.Summary, now); err != nil {
		metrics.IncSummaryOp("regenerate", "error")
		return Summary{}, err
	}
	summary.Title = res.Title
	summary.OutputData = res.Summary
	summary.UpdatedAt = now
	metrics.IncSummaryOp("regenerate", "ok")
	return summary, nil
}

// AuthorizeBlob checks that requesterID may download blobID.
func (s *Service) AuthorizeBlob(ctx context.Context, requesterID, blobID string) error {
	summary, err := s.Repo.GetByBlobID(ctx, blobID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return object.ErrNotFound
		}
		return err
	}
	if _, err := s.Get(ctx, requesterID, summary.ID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return object.ErrNotFound
		}
		return err
	}
	return nil
}

// ReferencedBlobIDs lists blob ids that a summary points at.
func (s *Service) ReferencedBlobIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.Repo.ReferencedBlobIDs(ctx)
}

func (s *Service) owned(ctx context.Context, requesterID, id string) (Summary, error) {
	summary, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	if summary.UserID != requesterID {
		return Summary{}, ErrNotFound
	}
	return summary, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
