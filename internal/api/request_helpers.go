package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/flashforge/internal/api/shared"
	"github.com/phrazzld/flashforge/internal/domain"
)

// requireUserID returns the authenticated user's ID, writing a 401 response
// when the auth middleware did not set one.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return uuid.Nil, false
	}
	return userID, true
}

// pathID parses a positive integer ID from the URL path parameter name.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrInvalidID, name, raw)
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; a missing value is 0.
func queryInt(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return n, nil
}

// parsePageRequest reads page and limit from the query string. Defaults and
// range checks are applied by the services.
func parsePageRequest(q url.Values) (domain.PageRequest, error) {
	page, err := queryInt(q, "page")
	if err != nil {
		return domain.PageRequest{}, err
	}
	limit, err := queryInt(q, "limit")
	if err != nil {
		return domain.PageRequest{}, err
	}
	if (q.Has("page") && page == 0) || (q.Has("limit") && limit == 0) {
		return domain.PageRequest{}, fmt.Errorf("%w: page and limit must be positive", domain.ErrValidation)
	}
	return domain.PageRequest{Page: page, Limit: limit}, nil
}

// parseFlashcardFilter reads the flashcard listing query:
// page, limit, sort, order, source and generation_id.
func parseFlashcardFilter(q url.Values) (domain.FlashcardFilter, error) {
	page, err := parsePageRequest(q)
	if err != nil {
		return domain.FlashcardFilter{}, err
	}
	filter := domain.FlashcardFilter{
		PageRequest: page,
		Sort:        q.Get("sort"),
		Order:       q.Get("order"),
	}
	if raw := q.Get("source"); raw != "" {
		source := domain.FlashcardSource(raw)
		filter.Source = &source
	}
	if raw := q.Get("generation_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return domain.FlashcardFilter{}, fmt.Errorf("%w: generation_id must be a positive integer", domain.ErrValidation)
		}
		filter.GenerationID = &id
	}
	return filter, nil
}
