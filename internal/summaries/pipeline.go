package summaries

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"briefly-backend/internal/llm"
	"briefly-backend/internal/llm/examples"
	"briefly-backend/internal/llm/parse"
	"briefly-backend/internal/shared/apperr"
	"briefly-backend/internal/shared/metrics"
	"briefly-backend/internal/shared/telemetry"
	"briefly-backend/internal/shared/util"
)

// Models names the provider model used for each purpose.
type Models struct {
	Code    string
	General string
	Detect  string
}

// DefaultModels are the Mistral models the prompts were tuned on.
var DefaultModels = Models{
	Code:    "open-codestral-mamba",
	General: "open-mistral-nemo",
	Detect:  "open-mistral-nemo",
}

// ForType picks the summarization model for a content type.
func (m Models) ForType(contentType string) string {
	if contentType == llm.ContentCode {
		return m.Code
	}
	return m.General
}

// SummarizerOptions tunes pacing and the language cache.
type SummarizerOptions struct {
	// MinInterval is the gap between one request's detection call and its
	// summarization call. Zero disables it.
	MinInterval time.Duration
	// ProviderRate caps provider calls per second across all requests.
	// Zero leaves calls uncapped.
	ProviderRate  float64
	ProviderBurst int
	CacheSize     int
	CacheTTL      time.Duration
}

// Summarizer turns raw text into a title and summary in two provider calls:
// language detection, then summarization with a matching few-shot example.
type Summarizer struct {
	Client llm.ChatClient
	Models Models

	minInterval time.Duration
	provider    *rate.Limiter
	langs       *expirable.LRU[string, string]
}

func NewSummarizer(client llm.ChatClient, models Models, opts SummarizerOptions) *Summarizer {
	s := &Summarizer{Client: client, Models: models, minInterval: opts.MinInterval}
	if opts.ProviderRate > 0 {
		burst := opts.ProviderBurst
		if burst < 1 {
			burst = 1
		}
		s.provider = rate.NewLimiter(rate.Limit(opts.ProviderRate), burst)
	}
	if opts.CacheSize > 0 {
		s.langs = expirable.NewLRU[string, string](opts.CacheSize, nil, opts.CacheTTL)
	}
	return s
}

// Summarize runs the pipeline. Provider failures come back as
// *apperr.ServiceError.
func (s *Summarizer) Summarize(ctx context.Context, contentType, text string) (parse.Result, error) {
	prompt, ok := llm.SystemPrompt(contentType)
	if !ok {
		return parse.Result{}, ErrInvalidType
	}

	lang, called, err := s.detect(ctx, text)
	if err != nil {
		return parse.Result{}, apperr.Service("language detection failed", err)
	}

	if called {
		if err := s.pause(ctx); err != nil {
			return parse.Result{}, err
		}
	}
	if err := s.admit(ctx); err != nil {
		return parse.Result{}, err
	}
	messages := []llm.Message{
		llm.System(prompt),
		llm.System(examples.Primary(lang)),
		llm.User(text),
		llm.System(llm.JSONInstruction),
	}
	raw, err := s.Client.Complete(ctx, s.Models.ForType(contentType), messages, llm.FormatJSON)
	if err != nil {
		return parse.Result{}, apperr.Service("summarization failed", err)
	}

	res, outcome := parse.Parse(raw)
	metrics.IncParseOutcome(string(outcome))
	if outcome == parse.OutcomeText {
		telemetry.Warn("summary.parse_fallback", map[string]any{"content_type": contentType, "raw_len": len(raw)})
	}
	return res, nil
}

// DetectLanguage classifies text into a free-form language label. Results
// are cached by content digest.
func (s *Summarizer) DetectLanguage(ctx context.Context, text string) (string, error) {
	lang, _, err := s.detect(ctx, text)
	return lang, err
}

// detect also reports whether the provider was called, as opposed to a
// cache hit.
func (s *Summarizer) detect(ctx context.Context, text string) (string, bool, error) {
	key := util.Digest(text)
	if s.langs != nil {
		if lang, ok := s.langs.Get(key); ok {
			return lang, false, nil
		}
	}
	if err := s.admit(ctx); err != nil {
		return "", false, err
	}
	messages := []llm.Message{
		llm.System(llm.DetectLanguagePrompt),
		llm.User(text),
	}
	raw, err := s.Client.Complete(ctx, s.Models.Detect, messages, llm.FormatText)
	if err != nil {
		return "", true, err
	}
	lang := strings.TrimSpace(raw)
	if s.langs != nil {
		s.langs.Add(key, lang)
	}
	return lang, true, nil
}

// pause delays only the calling request.
func (s *Summarizer) pause(ctx context.Context) error {
	if s.minInterval <= 0 {
		return nil
	}
	timer := time.NewTimer(s.minInterval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Summarizer) admit(ctx context.Context) error {
	if s.provider == nil {
		return nil
	}
	return s.provider.Wait(ctx)
}
