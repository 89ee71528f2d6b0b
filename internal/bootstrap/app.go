package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"leakscan-backend/internal/analysis"
	"leakscan-backend/internal/llm"
	openai "leakscan-backend/internal/llm/openai"
	"leakscan-backend/internal/photos"
	"leakscan-backend/internal/shared/config"
	"leakscan-backend/internal/shared/server"
	"leakscan-backend/internal/shared/storage/db"
)

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB

	PhotosRepo  photos.Repo
	ReportsRepo analysis.Repo

	Gateway   *llm.Gateway
	Extractor *analysis.Extractor

	AnalysisService *analysis.Service
	PhotosHandler   *photos.Handler
	AnalysisHandler *analysis.Handler
}

// Build prepares shared dependencies and wires the router. Outside of
// production a missing or unreachable database falls back to in-memory
// repositories so the service still comes up.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	app := &App{Config: cfg}

	conn, err := connectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	app.DB = conn

	if app.DB != nil {
		app.PhotosRepo = &photos.PGRepo{DB: app.DB}
		app.ReportsRepo = &analysis.PGRepo{DB: app.DB}
	} else {
		app.PhotosRepo = photos.NewMemoryRepo()
		app.ReportsRepo = analysis.NewMemoryRepo()
	}

	app.Gateway = &llm.Gateway{Inner: buildLLMClient(cfg), Model: cfg.LLMModel}

	signalCfg, err := analysis.LoadSignalConfig(cfg.SignalsConfig)
	if err != nil {
		return nil, fmt.Errorf("load signal config: %w", err)
	}
	app.Extractor = analysis.NewExtractor(signalCfg)

	var nameFilter analysis.NameFilter = analysis.IdentityNameFilter{}
	if cfg.NameFilter == "llm" {
		nameFilter = &analysis.LLMNameFilter{Client: app.Gateway}
	}

	app.AnalysisService = analysis.NewService(app.PhotosRepo, app.ReportsRepo, app.Gateway, app.Extractor, nameFilter)
	app.PhotosHandler = photos.NewHandler(app.PhotosRepo)
	app.AnalysisHandler = analysis.NewHandler(app.AnalysisService)

	app.Router = server.NewRouter(cfg, server.RouterDeps{
		Photos:   app.PhotosHandler,
		Analysis: app.AnalysisHandler,
	})
	return app, nil
}

func connectDatabase(cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("DATABASE_URL is required in production")
		}
		return nil, nil
	}

	conn, err := db.Connect(context.Background(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if cfg.Env == "production" {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		log.Printf("failed to connect database, falling back to memory: %v", err)
		return nil, nil
	}
	if err := db.RunMigrations(context.Background(), conn); err != nil {
		conn.Close()
		if cfg.Env == "production" {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		log.Printf("failed to run migrations, falling back to memory: %v", err)
		return nil, nil
	}
	return conn, nil
}

func buildLLMClient(cfg config.Config) llm.Client {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "openai":
		client, err := openai.NewClient(
			os.Getenv("OPENAI_API_KEY"),
			cfg.LLMModel,
			time.Duration(cfg.LLMTimeoutSeconds)*time.Second,
		)
		if err != nil {
			log.Printf("openai client unavailable, summaries will use fallback: %v", err)
			return llm.PlaceholderClient{}
		}
		return client
	default:
		log.Printf("unknown LLM provider %q, summaries will use fallback", cfg.LLMProvider)
		return llm.PlaceholderClient{}
	}
}
