package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindsSurviveWrapping(t *testing.T) {
	summaryMissing := NotFound("Summary not found")
	wrapped := fmt.Errorf("regenerate: %w", summaryMissing)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected ErrNotFound kind")
	}
	if !errors.Is(wrapped, summaryMissing) {
		t.Fatalf("expected sentinel identity")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatalf("unexpected validation kind")
	}
	if got := Message(wrapped, "x"); got != "Summary not found" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestServiceError(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Service("summarization failed", cause)

	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServiceError")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	if got := Message(err, "x"); got != "summarization failed" {
		t.Fatalf("unexpected message %q", got)
	}
	if Service("again", err) != err {
		t.Fatalf("expected existing ServiceError to pass through")
	}
	if Service("nil", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
	if got := Message(errors.New("secret internals"), "internal error"); got != "internal error" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
