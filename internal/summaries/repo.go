package summaries

import (
	"context"
	"time"
)

// Repo persists summaries.
type Repo interface {
	Create(ctx context.Context, s Summary) error
	GetByID(ctx context.Context, id string) (Summary, error)
	GetByBlobID(ctx context.Context, blobID string) (Summary, error)
	// ListByUser returns a user's summaries, newest first.
	ListByUser(ctx context.Context, userID string) ([]Summary, error)
	UpdateOutput(ctx context.Context, id, title, output string, updatedAt time.Time) error
	// Delete removes a summary and every share of it.
	Delete(ctx context.Context, id string) error
	ReferencedBlobIDs(ctx context.Context) (map[string]struct{}, error)
}

// ShareRepo persists share records. (SummaryID, RecipientID) is unique.
type ShareRepo interface {
	// CreateShare returns ErrAlreadyShared on a duplicate pair.
	CreateShare(ctx context.Context, sh Share) error
	HasShare(ctx context.Context, summaryID, recipientID string) (bool, error)
	// ListSharesForRecipient returns shares newest first.
	ListSharesForRecipient(ctx context.Context, recipientID string) ([]Share, error)
}
