package summaries

import (
	"context"
	"errors"
	"fmt"
	"io"

	"briefly-backend/internal/extract"
	"briefly-backend/internal/llm"
	"briefly-backend/internal/llm/parse"
	"briefly-backend/internal/shared/apperr"
	"briefly-backend/internal/shared/metrics"
	"briefly-backend/internal/shared/storage/object"
)

// Regenerator rewrites a stored summary according to user feedback.
type Regenerator struct {
	Client   llm.ChatClient
	Models   Models
	Blobs    object.BlobStore
	MaxBytes int64
}

// Regenerate asks the provider for a new summary of the stored input. The
// stored title is kept.
func (r *Regenerator) Regenerate(ctx context.Context, stored Summary, feedback string) (parse.Result, error) {
	prompt, ok := llm.SystemPrompt(stored.Type)
	if !ok {
		return parse.Result{}, ErrInvalidType
	}
	input, err := r.input(ctx, stored)
	if err != nil {
		return parse.Result{}, err
	}

	// No few-shot example here: regeneration works from the stored input and feedback only.
	messages := []llm.Message{
		llm.System(prompt),
		llm.User(input),
		llm.User(feedback),
	}
	raw, err := r.Client.Complete(ctx, r.Models.ForType(stored.Type), messages, llm.FormatText)
	if err != nil {
		return parse.Result{}, apperr.Service("regeneration failed", err)
	}

	res, outcome := parse.Parse(raw)
	metrics.IncParseOutcome(string(outcome))
	res.Title = stored.Title
	return res, nil
}

// input is the stored text, or the text re-extracted from the uploaded file.
func (r *Regenerator) input(ctx context.Context, stored Summary) (string, error) {
	if stored.InitialData != "" {
		return stored.InitialData, nil
	}
	if stored.BlobID() == "" || r.Blobs == nil {
		return "", ErrNoInput
	}

	rc, blob, err := r.Blobs.Get(ctx, stored.File.BlobID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", ErrNoInput
		}
		return "", apperr.Service("file storage unavailable", err)
	}
	defer rc.Close()

	if r.MaxBytes > 0 && blob.Size > r.MaxBytes {
		return "", ErrFileTooLarge
	}
	name := stored.File.FileName
	if name == "" {
		name = blob.FileName
	}

	// Local files support random access, so PDF and Word readers work on
	// them directly. Streamed bodies (S3) are buffered up to MaxBytes.
	if ra, ok := rc.(io.ReaderAt); ok && blob.Size > 0 {
		return extract.FromReaderAt(name, ra, blob.Size)
	}

	reader := io.Reader(rc)
	if r.MaxBytes > 0 {
		reader = io.LimitReader(rc, r.MaxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", apperr.Service("file storage unavailable", fmt.Errorf("read blob %s: %w", blob.ID, err))
	}
	if r.MaxBytes > 0 && int64(len(data)) > r.MaxBytes {
		return "", ErrFileTooLarge
	}
	return extract.Text(extract.Source{FileName: name, Data: data})
}
