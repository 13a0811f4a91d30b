package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/flashforge/internal/api"
	apiMiddleware "github.com/phrazzld/flashforge/internal/api/middleware"
)

// setupRouter registers every route with its middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.Trace(app.logger))
	r.Use(middleware.Recoverer)

	authHandler := api.NewAuthHandler(app.userStore, app.jwtService, app.passwords, app.logger)
	generationHandler := api.NewGenerationHandler(app.generationService, app.logger)
	flashcardHandler := api.NewFlashcardHandler(app.flashcardService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/generations", generationHandler.Generate)
			r.Get("/generations", generationHandler.List)
			r.Get("/generations/{id}", generationHandler.Get)
			r.Get("/generation-errors", generationHandler.ListErrors)

			r.Post("/flashcards", flashcardHandler.Create)
			r.Get("/flashcards", flashcardHandler.List)
			r.Get("/flashcards/{id}", flashcardHandler.Get)
			r.Put("/flashcards/{id}", flashcardHandler.Update)
			r.Delete("/flashcards/{id}", flashcardHandler.Delete)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
