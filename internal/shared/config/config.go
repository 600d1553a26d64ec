package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration. It is loaded and validated once at
// startup and passed explicitly to the components that need it.
type Config struct {
	Port            string
	Env             string
	LogLevel        string
	CORSAllowOrigin []string
	DatabaseURL     string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	MaxUploadBytes  int64

	JWTSecret string
	JWTTTL    time.Duration

	LLMProvider     string
	LLMAPIKey       string
	LLMBaseURL      string
	LLMCodeModel    string
	LLMGeneralModel string
	LLMDetectModel  string
	LLMTimeout      time.Duration
	LLMMinInterval  time.Duration
	LLMProviderRPS  float64
	LLMMaxAttempts  int
	LLMRetryBackoff time.Duration
	DetectCacheSize int
	DetectCacheTTL  time.Duration
	LLMRatePerMin   int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string

	ReconcileSchedule string
	ReconcileGrace    time.Duration
	ReconcileDelete   bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (Config, error) {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	p := &parser{}
	cfg := Config{
		Port:            getEnv("PORT", "8000"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),
		MaxUploadBytes:  int64(p.int("MAX_UPLOAD_BYTES", 20<<20)),

		JWTSecret: os.Getenv("JWT_SECRET"),
		JWTTTL:    p.duration("JWT_TTL", 30*24*time.Hour),

		LLMProvider:     normalizeProvider(getEnv("LLM_PROVIDER", "mistral")),
		LLMAPIKey:       os.Getenv("LLM_API_KEY"),
		LLMBaseURL:      getEnv("LLM_BASE_URL", "https://api.mistral.ai/v1"),
		LLMCodeModel:    getEnv("LLM_CODE_MODEL", "open-codestral-mamba"),
		LLMGeneralModel: getEnv("LLM_GENERAL_MODEL", "open-mistral-nemo"),
		LLMDetectModel:  getEnv("LLM_DETECT_MODEL", "open-mistral-nemo"),
		LLMTimeout:      p.duration("LLM_TIMEOUT", 60*time.Second),
		LLMMinInterval:  p.duration("LLM_MIN_INTERVAL", 2*time.Second),
		LLMProviderRPS:  p.float("LLM_PROVIDER_RPS", 0),
		LLMMaxAttempts:  p.int("LLM_MAX_ATTEMPTS", 3),
		LLMRetryBackoff: p.duration("LLM_RETRY_BACKOFF", 2*time.Second),
		DetectCacheSize: p.int("DETECT_CACHE_SIZE", 512),
		DetectCacheTTL:  p.duration("DETECT_CACHE_TTL", time.Hour),
		LLMRatePerMin:   p.int("LLM_RATE_PER_MIN", 20),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", ""),

		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", "@hourly"),
		ReconcileGrace:    p.duration("RECONCILE_GRACE", 24*time.Hour),
		ReconcileDelete:   p.bool("RECONCILE_DELETE", false),
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if cfg.Env != "production" && cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret"
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks invariants that depend on more than one setting.
func (c Config) Validate() error {
	var errs []error
	if c.Env == "production" {
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required in production"))
		}
		if c.JWTSecret == "" {
			errs = append(errs, errors.New("JWT_SECRET is required in production"))
		}
		if c.LLMProvider == "placeholder" {
			errs = append(errs, errors.New("LLM_PROVIDER=placeholder is not allowed in production"))
		}
	}
	if c.LLMProvider == "mistral" && c.LLMAPIKey == "" && c.Env == "production" {
		errs = append(errs, errors.New("LLM_API_KEY is required"))
	}
	if c.ObjectStoreType == "s3" && c.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required when OBJECT_STORE=s3"))
	}
	if c.LLMMaxAttempts < 1 {
		errs = append(errs, errors.New("LLM_MAX_ATTEMPTS must be at least 1"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// GoogleEnabled reports whether Google sign-in is configured.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

type parser struct {
	err error
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return d
}

func (p *parser) int(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return n
}

func (p *parser) float(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return f
}

func (p *parser) bool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, raw, err)
		return def
	}
	return b
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s=%q: %w", key, raw, err)
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "placeholder", "fake":
		return "placeholder"
	default:
		return "mistral"
	}
}
