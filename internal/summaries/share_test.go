package summaries

import (
	"context"
	"errors"
	"sync"
	"testing"

	"briefly-backend/internal/llm"
	"briefly-backend/internal/shared/apperr"
)

func TestShareOutcomes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice@example.com")
	bob := env.addUser(t, "bob@example.com")
	created, err := env.svc.CreateFromText(ctx, alice.ID, llm.ContentCode, "x")
	if err != nil {
		t.Fatalf("CreateFromText: %v", err)
	}

	tests := []struct {
		name      string
		sender    string
		summaryID string
		recipient string
		outcome   ShareOutcome
		err       error
	}{
		{"first share", alice.ID, created.ID, "bob@example.com", ShareCreated, nil},
		{"repeat share", alice.ID, created.ID, "bob@example.com", ShareAlreadyShared, nil},
		{"self share", alice.ID, created.ID, "alice@example.com", "", ErrSelfShare},
		{"unknown recipient", alice.ID, created.ID, "nobody@example.com", "", ErrRecipientNotRegistered},
		{"unknown summary", alice.ID, "missing", "bob@example.com", "", ErrNotFound},
		{"not the owner", bob.ID, created.ID, "alice@example.com", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := env.svc.Share(ctx, tt.sender, tt.summaryID, tt.recipient)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Share: %v", err)
			}
			if outcome != tt.outcome {
				t.Fatalf("outcome = %s, want %s", outcome, tt.outcome)
			}
		})
	}

	if !errors.Is(ErrRecipientNotRegistered, apperr.ErrNotFound) || !errors.Is(ErrSelfShare, apperr.ErrValidation) {
		t.Fatalf("unexpected error kinds")
	}
}

func TestConcurrentSharesCreateOneRecord(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice@example.com")
	bob := env.addUser(t, "bob@example.com")
	created, err := env.svc.CreateFromText(ctx, alice.ID, llm.ContentCode, "x")
	if err != nil {
		t.Fatalf("CreateFromText: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	counts := map[ShareOutcome]int{}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := env.svc.Share(ctx, alice.ID, created.ID, "bob@example.com")
			if err != nil {
				t.Errorf("Share: %v", err)
				return
			}
			mu.Lock()
			counts[outcome]++
			mu.Unlock()
		}()
	}
	wg.Wait()
	if counts[ShareCreated] != 1 || counts[ShareAlreadyShared] != n-1 {
		t.Fatalf("unexpected outcomes %v", counts)
	}
	shares, err := env.repo.ListSharesForRecipient(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListSharesForRecipient: %v", err)
	}
	if len(shares) != 1 {
		t.Fatalf("expected one share record, got %d", len(shares))
	}
}

func TestListSharedWith(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice@example.com")
	carol := env.addUser(t, "carol@example.com")
	bob := env.addUser(t, "bob@example.com")

	first, err := env.svc.CreateFromText(ctx, alice.ID, llm.ContentCode, "one")
	if err != nil {
		t.Fatalf("CreateFromText: %v", err)
	}
	second, err := env.svc.CreateFromText(ctx, carol.ID, llm.ContentResearch, "two")
	if err != nil {
		t.Fatalf("CreateFromText: %v", err)
	}
	if _, err := env.svc.Share(ctx, alice.ID, first.ID, "bob@example.com"); err != nil {
		t.Fatalf("Share: %v", err)
	}
	if _, err := env.svc.Share(ctx, carol.ID, second.ID, "bob@example.com"); err != nil {
		t.Fatalf("Share: %v", err)
	}

	list, err := env.svc.ListSharedWith(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListSharedWith: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 shared summaries, got %d", len(list))
	}
	if list[0].Summary.ID != second.ID || list[0].SenderEmail != "carol@example.com" {
		t.Fatalf("expected newest share first, got %+v", list[0])
	}
	if list[1].Summary.ID != first.ID || list[1].SenderEmail != "alice@example.com" {
		t.Fatalf("unexpected second entry %+v", list[1])
	}
}

func TestListSharedWithSkipsDanglingRecords(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	bob := env.addUser(t, "bob@example.com")
	alice := env.addUser(t, "alice@example.com")
	created, err := env.svc.CreateFromText(ctx, alice.ID, llm.ContentCode, "x")
	if err != nil {
		t.Fatalf("CreateFromText: %v", err)
	}

	// A share pointing at a summary that no longer exists and one whose
	// sender is unknown.
	if err := env.repo.CreateShare(ctx, Share{ID: "s1", SummaryID: "gone", SenderID: alice.ID, RecipientID: bob.ID}); err != nil {
		t.Fatalf("CreateShare: %v", err)
	}
	if err := env.repo.CreateShare(ctx, Share{ID: "s2", SummaryID: created.ID, SenderID: "ghost", RecipientID: bob.ID}); err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	list, err := env.svc.ListSharedWith(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListSharedWith: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected dangling shares to be skipped, got %d", len(list))
	}
}

func TestAuthorizeBlob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.addUser(t, "alice@example.com")
	bob := env.addUser(t, "bob@example.com")
	eve := env.addUser(t, "eve@example.com")
	created, err := env.svc.CreateFromFile(ctx, alice.ID, llm.ContentDocumentation, "", FileUpload{FileName: "a.txt", Data: []byte("hello")})
	if err != nil {
		t.Fatalf("CreateFromFile: %v", err)
	}
	if _, err := env.svc.Share(ctx, alice.ID, created.ID, bob.Email); err != nil {
		t.Fatalf("Share: %v", err)
	}

	blobID := created.File.BlobID
	if err := env.svc.AuthorizeBlob(ctx, alice.ID, blobID); err != nil {
		t.Fatalf("owner: %v", err)
	}
	if err := env.svc.AuthorizeBlob(ctx, bob.ID, blobID); err != nil {
		t.Fatalf("recipient: %v", err)
	}
	if err := env.svc.AuthorizeBlob(ctx, eve.ID, blobID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for stranger, got %v", err)
	}
	if err := env.svc.AuthorizeBlob(ctx, alice.ID, "unknown"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for unknown blob, got %v", err)
	}
}
