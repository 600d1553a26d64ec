package summaries

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"briefly-backend/internal/shared/apperr"
	"briefly-backend/internal/shared/metrics"
	"briefly-backend/internal/shared/telemetry"
)

// Share grants a registered user read access to the sender's summary.
// Sharing twice with the same recipient is not an error.
func (s *Service) Share(ctx context.Context, senderID, summaryID, recipientEmail string) (ShareOutcome, error) {
	summary, err := s.owned(ctx, senderID, summaryID)
	if err != nil {
		return "", err
	}

	recipient, err := s.Users.GetByEmail(ctx, strings.TrimSpace(recipientEmail))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", ErrRecipientNotRegistered
		}
		return "", fmt.Errorf("lookup recipient: %w", err)
	}
	if recipient.ID == summary.UserID {
		return "", ErrSelfShare
	}

	err = s.Shares.CreateShare(ctx, Share{
		ID:          uuid.NewString(),
		SummaryID:   summary.ID,
		SenderID:    summary.UserID,
		RecipientID: recipient.ID,
		SharedAt:    s.now(),
	})
	switch {
	case errors.Is(err, ErrAlreadyShared):
		metrics.IncSummaryOp("share", string(ShareAlreadyShared))
		return ShareAlreadyShared, nil
	case err != nil:
		metrics.IncSummaryOp("share", "error")
		return "", fmt.Errorf("store share: %w", err)
	}
	metrics.IncSummaryOp("share", string(ShareCreated))
	telemetry.Info("summary.shared", map[string]any{"summary_id": summary.ID, "sender_id": summary.UserID, "recipient_id": recipient.ID})
	return ShareCreated, nil
}

// ListSharedWith returns summaries shared with recipientID, newest share
// first. Shares whose summary or sender no longer exists are skipped.
func (s *Service) ListSharedWith(ctx context.Context, recipientID string) ([]SharedSummary, error) {
	shares, err := s.Shares.ListSharesForRecipient(ctx, recipientID)
	if err != nil {
		return nil, err
	}

	out := make([]SharedSummary, 0, len(shares))
	for _, sh := range shares {
		summary, err := s.Repo.GetByID(ctx, sh.SummaryID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, err
		}
		sender, err := s.Users.GetByID(ctx, sh.SenderID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, SharedSummary{Summary: summary, SenderEmail: sender.Email, SharedAt: sh.SharedAt})
	}
	return out, nil
}
