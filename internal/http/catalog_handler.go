package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pusit-hanp/capstone-image-store/internal/catalog"
	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"go.uber.org/zap"
)

const defaultPerPage = 24

type CatalogHandler struct {
	catalog  catalog.Provider
	sessions Sessions
	logger   *zap.Logger
}

func NewCatalogHandler(provider catalog.Provider, sessions Sessions, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog:  provider,
		sessions: sessions,
		logger:   logger,
	}
}

type CardsResponse struct {
	Cards   []domain.Card `json:"cards"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
	Total   int           `json:"total"`
}

func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil || page < 1 {
		respondError(w, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
		return
	}
	perPage, err := queryInt(r, "per_page", defaultPerPage)
	if err != nil || perPage < 1 {
		respondError(w, http.StatusBadRequest, "invalid_per_page", "per_page must be a positive integer")
		return
	}

	items, err := h.catalog.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	if limit := max(len(items), 1); perPage > limit {
		respondError(w, http.StatusBadRequest, "invalid_per_page", fmt.Sprintf("per_page must be between 1 and %d", limit))
		return
	}
	user, err := currentUser(r.Context(), h.sessions)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, CardsResponse{
		Cards:   domain.NewCards(catalog.Page(items, page, perPage), user),
		Page:    page,
		PerPage: perPage,
		Total:   len(items),
	})
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "id must be a positive integer")
		return
	}

	item, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	user, err := currentUser(r.Context(), h.sessions)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusOK, domain.NewCard(*item, user))
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
