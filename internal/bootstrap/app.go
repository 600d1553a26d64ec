package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "briefly-backend/internal/auth"
	"briefly-backend/internal/files"
	"briefly-backend/internal/llm"
	openai "briefly-backend/internal/llm/openai"
	"briefly-backend/internal/reconcile"
	"briefly-backend/internal/shared/auth"
	"briefly-backend/internal/shared/config"
	"briefly-backend/internal/shared/server"
	"briefly-backend/internal/shared/storage/db"
	"briefly-backend/internal/shared/storage/object"
	localstore "briefly-backend/internal/shared/storage/object/local"
	s3store "briefly-backend/internal/shared/storage/object/s3"
	"briefly-backend/internal/shared/telemetry"
	"briefly-backend/internal/summaries"
	"briefly-backend/internal/users"
)

// App holds the process-wide dependencies.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Blobs            object.BlobStore
	LLM              llm.ChatClient
	Tokens           *auth.Tokens
	UsersService     *users.Service
	SummariesService *summaries.Service
	Reconciler       *reconcile.Job
}

// Build connects storage, wires services and registers routes. It does not
// start the reconciliation schedule.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	chat, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Blobs:  blobs,
		LLM:    chat,
		Tokens: tokens,
	}
	if err := buildServices(app); err != nil {
		return nil, err
	}
	return app, nil
}

// Close releases the database pool and stops background jobs.
func (a *App) Close() error {
	if a.Reconciler != nil {
		a.Reconciler.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "err": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.BlobStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildLLM(cfg config.Config) (llm.ChatClient, error) {
	if cfg.LLMProvider == "placeholder" {
		return llm.PlaceholderClient{}, nil
	}
	if strings.TrimSpace(cfg.LLMAPIKey) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"reason": "LLM_API_KEY empty"})
			return llm.PlaceholderClient{}, nil
		}
		return nil, errors.New("LLM_API_KEY is required")
	}
	client, err := openai.NewClient(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMTimeout)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	return llm.NewRetryingClient(client, cfg.LLMMaxAttempts, cfg.LLMRetryBackoff), nil
}

func buildServices(app *App) error {
	cfg := app.Config

	var userRepo users.Repo
	var summaryRepo summaries.Repo
	var shareRepo summaries.ShareRepo
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		pg := &summaries.PGRepo{DB: app.DB}
		summaryRepo, shareRepo = pg, pg
	} else {
		userRepo = users.NewMemoryRepo()
		mem := summaries.NewMemoryRepo()
		summaryRepo, shareRepo = mem, mem
	}

	models := summaries.Models{
		Code:    cfg.LLMCodeModel,
		General: cfg.LLMGeneralModel,
		Detect:  cfg.LLMDetectModel,
	}
	summarizer := summaries.NewSummarizer(app.LLM, models, summaries.SummarizerOptions{
		MinInterval:   cfg.LLMMinInterval,
		ProviderRate:  cfg.LLMProviderRPS,
		ProviderBurst: 1,
		CacheSize:     cfg.DetectCacheSize,
		CacheTTL:      cfg.DetectCacheTTL,
	})
	regenerator := &summaries.Regenerator{
		Client:   app.LLM,
		Models:   models,
		Blobs:    app.Blobs,
		MaxBytes: cfg.MaxUploadBytes,
	}

	userSvc := users.NewService(userRepo, app.Tokens)
	summarySvc := &summaries.Service{
		Repo:        summaryRepo,
		Shares:      shareRepo,
		Blobs:       app.Blobs,
		Users:       userSvc,
		Pipeline:    summarizer,
		Regenerator: regenerator,
	}

	var google server.RouteRegistrar
	if cfg.GoogleEnabled() {
		google = googleauth.NewGoogleService(
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
			cfg.UIRedirectURL,
			userSvc,
		)
	}

	app.UsersService = userSvc
	app.SummariesService = summarySvc
	app.Reconciler = reconcile.NewJob(app.Blobs, summarySvc, cfg.ReconcileGrace, cfg.ReconcileDelete)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:         cfg,
		DB:             app.DB,
		Tokens:         app.Tokens,
		UserHandler:    users.NewHandler(userSvc),
		GoogleAuth:     google,
		SummaryHandler: summaries.NewHandler(summarySvc, cfg.MaxUploadBytes),
		FileHandler:    files.NewHandler(app.Blobs, summarySvc),
	})
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
