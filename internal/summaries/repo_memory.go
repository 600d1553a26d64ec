package summaries

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo and ShareRepo.
type MemoryRepo struct {
	mu        sync.RWMutex
	summaries map[string]Summary
	shares    map[string]Share // summaryID|recipientID -> share
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		summaries: make(map[string]Summary),
		shares:    make(map[string]Share),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, s Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries[s.ID] = cloneSummary(s)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.summaries[id]
	if !ok {
		return Summary{}, ErrNotFound
	}
	return cloneSummary(s), nil
}

func (r *MemoryRepo) GetByBlobID(ctx context.Context, blobID string) (Summary, error) {
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.summaries {
		if blobID != "" && s.BlobID() == blobID {
			return cloneSummary(s), nil
		}
	}
	return Summary{}, ErrNotFound
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Summary, 0)
	for _, s := range r.summaries {
		if s.UserID == userID {
			out = append(out, cloneSummary(s))
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) UpdateOutput(ctx context.Context, id, title, output string, updatedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.summaries[id]
	if !ok {
		return ErrNotFound
	}
	s.Title = title
	s.OutputData = output
	s.UpdatedAt = updatedAt
	r.summaries[id] = s
	return nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.summaries[id]; !ok {
		return ErrNotFound
	}
	delete(r.summaries, id)
	for key, sh := range r.shares {
		if sh.SummaryID == id {
			delete(r.shares, key)
		}
	}
	return nil
}

func (r *MemoryRepo) ReferencedBlobIDs(ctx context.Context) (map[string]struct{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{})
	for _, s := range r.summaries {
		if id := s.BlobID(); id != "" {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// CreateShare checks and inserts under one lock so concurrent duplicates
// produce exactly one record.
func (r *MemoryRepo) CreateShare(ctx context.Context, sh Share) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := shareKey(sh.SummaryID, sh.RecipientID)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.shares[key]; exists {
		return ErrAlreadyShared
	}
	r.shares[key] = sh
	return nil
}

func (r *MemoryRepo) HasShare(ctx context.Context, summaryID, recipientID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.shares[shareKey(summaryID, recipientID)]
	return ok, nil
}

func (r *MemoryRepo) ListSharesForRecipient(ctx context.Context, recipientID string) ([]Share, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Share, 0)
	for _, sh := range r.shares {
		if sh.RecipientID == recipientID {
			out = append(out, sh)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return out[i].SharedAt.After(out[j].SharedAt)
	})
	return out, nil
}

func shareKey(summaryID, recipientID string) string {
	return summaryID + "|" + recipientID
}

func cloneSummary(s Summary) Summary {
	if s.File != nil {
		f := *s.File
		s.File = &f
	}
	return s
}

var (
	_ Repo      = (*MemoryRepo)(nil)
	_ ShareRepo = (*MemoryRepo)(nil)
)
