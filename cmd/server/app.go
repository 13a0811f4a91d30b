package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/flashforge/internal/config"
	"github.com/phrazzld/flashforge/internal/generation"
	"github.com/phrazzld/flashforge/internal/platform/gemini"
	"github.com/phrazzld/flashforge/internal/platform/openrouter"
	"github.com/phrazzld/flashforge/internal/platform/postgres"
	"github.com/phrazzld/flashforge/internal/service"
	"github.com/phrazzld/flashforge/internal/service/auth"
	"github.com/phrazzld/flashforge/internal/store"
)

// application holds the shared dependencies of the server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	userStore store.UserStore

	jwtService        auth.JWTService
	passwords         auth.PasswordService
	generationService service.GenerationService
	flashcardService  service.FlashcardService
}

// newApplication wires stores, the model client and the services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:    cfg,
		logger:    logger,
		db:        db,
		passwords: auth.NewBcryptVerifier(),
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	client, err := newModelClient(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize model client: %w", err)
	}
	logger.Info("model client initialized",
		slog.String("provider", cfg.LLM.Provider),
		slog.String("model", client.DefaultModel()))

	app.userStore = postgres.NewPostgresUserStore(db)
	generationStore := postgres.NewPostgresGenerationStore(db, logger)
	errorLogStore := postgres.NewPostgresGenerationErrorLogStore(db, logger)
	flashcardStore := postgres.NewPostgresFlashcardStore(db, logger)

	app.generationService, err = service.NewGenerationService(
		client,
		generationStore,
		errorLogStore,
		flashcardStore,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation service: %w", err)
	}

	app.flashcardService, err = service.NewFlashcardService(db, flashcardStore, generationStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create flashcard service: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// newModelClient builds the client for the configured provider.
func newModelClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (generation.ModelClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenRouter:
		client, err := openrouter.NewClient(cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unsupported provider %q", generation.ErrConfiguration, cfg.Provider)
	}
}

// Run serves HTTP until ctx is canceled or a termination signal arrives.
func (app *application) Run(ctx context.Context) error {
	defer app.cleanup()
	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}
	app.logger.Info("application shutdown completed")
}
