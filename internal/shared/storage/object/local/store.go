package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"briefly-backend/internal/shared/storage/object"
)

const metaSuffix = ".meta.json"

// Store implements BlobStore on the local filesystem. Each blob is a data
// file plus a JSON metadata sidecar.
type Store struct {
	baseDir string
	now     func() time.Time
}

// New creates a new local blob store rooted at baseDir.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

// Put writes r to disk under a fresh id.
func (s *Store) Put(ctx context.Context, fileName, contentType string, r io.Reader) (object.Blob, error) {
	if err := ctx.Err(); err != nil {
		return object.Blob{}, err
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return object.Blob{}, fmt.Errorf("mkdir: %w", err)
	}

	contentType, body, err := object.SniffContentType(contentType, r)
	if err != nil {
		return object.Blob{}, err
	}

	id := uuid.NewString()
	f, err := os.OpenFile(s.dataPath(id), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return object.Blob{}, fmt.Errorf("open file: %w", err)
	}
	written, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(s.dataPath(id))
		return object.Blob{}, fmt.Errorf("write body: %w", err)
	}

	blob := object.Blob{
		ID:          id,
		FileName:    fileName,
		ContentType: contentType,
		Size:        written,
		CreatedAt:   s.now().UTC(),
	}
	meta, err := json.Marshal(blob)
	if err != nil {
		return object.Blob{}, err
	}
	if err := os.WriteFile(s.metaPath(id), meta, 0o644); err != nil {
		_ = os.Remove(s.dataPath(id))
		return object.Blob{}, fmt.Errorf("write metadata: %w", err)
	}
	return blob, nil
}

// Get opens a stored blob for reading.
func (s *Store) Get(ctx context.Context, id string) (io.ReadCloser, object.Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, object.Blob{}, err
	}
	if !validID(id) {
		return nil, object.Blob{}, object.ErrNotFound
	}
	blob, err := s.readMeta(id)
	if err != nil {
		return nil, object.Blob{}, err
	}
	f, err := os.Open(s.dataPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, object.Blob{}, object.ErrNotFound
	}
	if err != nil {
		return nil, object.Blob{}, err
	}
	return f, blob, nil
}

// Delete removes the blob and its metadata.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !validID(id) {
		return nil
	}
	for _, p := range []string{s.dataPath(id), s.metaPath(id)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", filepath.Base(p), err)
		}
	}
	return nil
}

// List returns metadata for every stored blob.
func (s *Store) List(ctx context.Context) ([]object.Blob, error) {
	entries, err := os.ReadDir(s.baseDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out []object.Blob
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, metaSuffix) {
			continue
		}
		blob, err := s.readMeta(strings.TrimSuffix(name, metaSuffix))
		if err != nil {
			continue
		}
		out = append(out, blob)
	}
	return out, nil
}

func (s *Store) readMeta(id string) (object.Blob, error) {
	raw, err := os.ReadFile(s.metaPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return object.Blob{}, object.ErrNotFound
	}
	if err != nil {
		return object.Blob{}, err
	}
	var blob object.Blob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return object.Blob{}, fmt.Errorf("decode metadata %s: %w", id, err)
	}
	return blob, nil
}

func (s *Store) dataPath(id string) string {
	return filepath.Join(s.baseDir, id)
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.baseDir, id+metaSuffix)
}

// validID rejects anything that is not one of our generated ids, which also
// rules out path traversal.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

var _ object.BlobStore = (*Store)(nil)
