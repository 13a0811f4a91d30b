package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/flashforge/internal/api/shared"
	"github.com/phrazzld/flashforge/internal/platform/logger"
	"github.com/phrazzld/flashforge/internal/service"
)

// GenerationHandler exposes flashcard generation and the generation history.
type GenerationHandler struct {
	generations service.GenerationService
	logger      *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(generations service.GenerationService, logger *slog.Logger) *GenerationHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for GenerationHandler")
	}
	return &GenerationHandler{
		generations: generations,
		logger:      logger.With(slog.String("component", "generation_handler")),
	}
}

// Generate handles POST /api/generations.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req GenerateFlashcardsRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.generations.GenerateFlashcards(r.Context(), req.SourceText, userID)
	if err != nil {
		HandleAPIError(w, r, err, msgGenerationFailed)
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).DebugContext(r.Context(), "generation completed",
		slog.Int64("generation_id", result.GenerationID),
		slog.Int("generated_count", result.GeneratedCount))
	shared.RespondWithJSON(w, r, http.StatusCreated, result)
}

// List handles GET /api/generations.
func (h *GenerationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	page, err := parsePageRequest(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.generations.ListGenerations(r.Context(), userID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list generations")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Get handles GET /api/generations/{id}.
func (h *GenerationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	detail, err := h.generations.GetGeneration(r.Context(), userID, id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get generation")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, detail)
}

// ListErrors handles GET /api/generation-errors.
func (h *GenerationHandler) ListErrors(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	page, err := parsePageRequest(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.generations.ListGenerationErrors(r.Context(), userID, page)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list generation errors")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}
