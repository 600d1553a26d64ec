package summaries

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"briefly-backend/internal/llm"
	"briefly-backend/internal/shared/apperr"
	"briefly-backend/internal/shared/storage/object"
	"briefly-backend/internal/shared/storage/object/local"
)

func TestRegenerateFromInitialData(t *testing.T) {
	chat := &fakeChat{}
	r := &Regenerator{Client: chat, Models: DefaultModels}
	stored := Summary{Type: llm.ContentResearch, Title: "Kept Title", InitialData: "the paper"}

	res, err := r.Regenerate(context.Background(), stored, "shorter please")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if res.Title != "Kept Title" || res.Summary != "Regenerated summary" {
		t.Fatalf("unexpected result %+v", res)
	}

	calls := chat.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one call, got %d", len(calls))
	}
	prompt, _ := llm.SystemPrompt(llm.ContentResearch)
	want := []llm.Message{llm.System(prompt), llm.User("the paper"), llm.User("shorter please")}
	for i := range want {
		if calls[0].messages[i] != want[i] {
			t.Fatalf("message %d = %+v, want %+v", i, calls[0].messages[i], want[i])
		}
	}
	if calls[0].format != llm.FormatText || calls[0].model != "open-mistral-nemo" {
		t.Fatalf("unexpected call %s/%s", calls[0].model, calls[0].format)
	}
}

func TestRegenerateKeepsTitleFromJSONAnswer(t *testing.T) {
	chat := &fakeChat{respond: func(chatCall) (string, error) {
		return `{"Title": "Model Title", "Summary": "new body"}`, nil
	}}
	r := &Regenerator{Client: chat, Models: DefaultModels}
	res, err := r.Regenerate(context.Background(), Summary{Type: llm.ContentCode, Title: "Stored", InitialData: "x"}, "fb")
	if err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if res.Title != "Stored" || res.Summary != "new body" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestRegenerateFromBlob(t *testing.T) {
	store := local.New(t.TempDir())
	blob, err := store.Put(context.Background(), "notes.txt", "", strings.NewReader("text from the file"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	chat := &fakeChat{}
	r := &Regenerator{Client: chat, Models: DefaultModels, Blobs: store, MaxBytes: 1024}
	stored := Summary{
		Type:  llm.ContentDocumentation,
		Title: "Notes",
		File:  &FileData{FileName: "notes.txt", BlobID: blob.ID},
	}
	if _, err := r.Regenerate(context.Background(), stored, "fb"); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if got := chat.Calls()[0].messages[1].Content; got != "text from the file" {
		t.Fatalf("expected extracted text, got %q", got)
	}
}

func TestRegenerateInputErrors(t *testing.T) {
	store := local.New(t.TempDir())
	big, err := store.Put(context.Background(), "big.txt", "", bytes.NewReader(bytes.Repeat([]byte("a"), 64)))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	tests := []struct {
		name   string
		stored Summary
		want   error
	}{
		{"no input", Summary{Type: llm.ContentCode}, ErrNoInput},
		{"missing blob", Summary{Type: llm.ContentCode, File: &FileData{FileName: "a.txt", BlobID: "00000000-0000-0000-0000-000000000000"}}, ErrNoInput},
		{"too large", Summary{Type: llm.ContentCode, File: &FileData{FileName: "big.txt", BlobID: big.ID}}, ErrFileTooLarge},
		{"bad type", Summary{Type: "poetry", InitialData: "x"}, ErrInvalidType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{}
			r := &Regenerator{Client: chat, Models: DefaultModels, Blobs: store, MaxBytes: 16}
			_, err := r.Regenerate(context.Background(), tt.stored, "fb")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if len(chat.Calls()) != 0 {
				t.Fatalf("expected no provider calls")
			}
		})
	}
}

func TestRegenerateProviderFailure(t *testing.T) {
	chat := &fakeChat{respond: func(chatCall) (string, error) { return "", errProvider }}
	r := &Regenerator{Client: chat, Models: DefaultModels}
	_, err := r.Regenerate(context.Background(), Summary{Type: llm.ContentCode, InitialData: "x"}, "fb")
	var se *apperr.ServiceError
	if !errors.As(err, &se) || se.Detail != "regeneration failed" {
		t.Fatalf("expected ServiceError, got %v", err)
	}
}

// streamingStore hides random access the way an S3 body does.
type streamingStore struct {
	*local.Store
}

func (s streamingStore) Get(ctx context.Context, id string) (io.ReadCloser, object.Blob, error) {
	rc, blob, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, object.Blob{}, err
	}
	return struct {
		io.Reader
		io.Closer
	}{rc, rc}, blob, nil
}

func TestRegenerateFromStreamedBlob(t *testing.T) {
	store := streamingStore{local.New(t.TempDir())}
	small, err := store.Put(context.Background(), "notes.txt", "", strings.NewReader("streamed text"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	big, err := store.Put(context.Background(), "big.txt", "", bytes.NewReader(bytes.Repeat([]byte("a"), 64)))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	chat := &fakeChat{}
	r := &Regenerator{Client: chat, Models: DefaultModels, Blobs: store, MaxBytes: 32}
	stored := Summary{Type: llm.ContentDocumentation, Title: "Notes", File: &FileData{FileName: "notes.txt", BlobID: small.ID}}
	if _, err := r.Regenerate(context.Background(), stored, "fb"); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}
	if got := chat.Calls()[0].messages[1].Content; got != "streamed text" {
		t.Fatalf("expected extracted text, got %q", got)
	}

	stored.File = &FileData{FileName: "big.txt", BlobID: big.ID}
	if _, err := r.Regenerate(context.Background(), stored, "fb"); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}
