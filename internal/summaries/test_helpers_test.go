package summaries

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"briefly-backend/internal/llm"
	"briefly-backend/internal/shared/storage/object/local"
	"briefly-backend/internal/users"
)

type chatCall struct {
	model    string
	messages []llm.Message
	format   llm.Format
}

// fakeChat answers detection with Python, summarization with a JSON object
// and regeneration with a text summary unless respond is set.
type fakeChat struct {
	mu      sync.Mutex
	calls   []chatCall
	respond func(chatCall) (string, error)
}

func (f *fakeChat) Complete(ctx context.Context, model string, messages []llm.Message, format llm.Format) (string, error) {
	call := chatCall{model: model, messages: append([]llm.Message(nil), messages...), format: format}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	if f.respond != nil {
		return f.respond(call)
	}
	switch {
	case len(messages) > 0 && messages[0].Content == llm.DetectLanguagePrompt:
		return "Python", nil
	case format == llm.FormatJSON:
		return `{"Title": "Generated Title", "Summary": "Generated summary."}`, nil
	default:
		return "Summary: Regenerated summary.", nil
	}
}

func (f *fakeChat) Calls() []chatCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]chatCall(nil), f.calls...)
}

var errProvider = errors.New("provider unavailable")

type testEnv struct {
	svc   *Service
	repo  *MemoryRepo
	users *users.Service
	chat  *fakeChat
	blobs *local.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	chat := &fakeChat{}
	repo := NewMemoryRepo()
	blobs := local.New(t.TempDir())
	userSvc := users.NewService(users.NewMemoryRepo(), stubTokens{})

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	svc := &Service{
		Repo:     repo,
		Shares:   repo,
		Blobs:    blobs,
		Users:    userSvc,
		Pipeline: NewSummarizer(chat, DefaultModels, SummarizerOptions{}),
		Regenerator: &Regenerator{
			Client:   chat,
			Models:   DefaultModels,
			Blobs:    blobs,
			MaxBytes: 1 << 20,
		},
		Now: now,
	}
	return &testEnv{svc: svc, repo: repo, users: userSvc, chat: chat, blobs: blobs}
}

func (e *testEnv) addUser(t *testing.T, email string) users.User {
	t.Helper()
	u, err := e.users.Create(context.Background(), users.NewUser{Email: email, Phone: strings.Split(email, "@")[0]})
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

type stubTokens struct{}

func (stubTokens) Issue(subject, email string) (string, error) { return "token-" + subject, nil }
