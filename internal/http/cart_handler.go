package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pusit-hanp/capstone-image-store/internal/service"
	"go.uber.org/zap"
)

type CartHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

func NewCartHandler(sessions Sessions, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		sessions: sessions,
		logger:   logger,
	}
}

type AddItemRequestDTO struct {
	ID int64 `json:"id"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	state, err := currentState(r.Context(), h.sessions)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "id must be positive")
		return
	}

	err = state.AddToCart(r.Context(), req.ID)
	respondMutation(w, h.logger, state, err)
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	state, err := currentState(r.Context(), h.sessions)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	user, ok := state.GetUser()
	if !ok {
		handleServiceError(w, h.logger, service.ErrNoSession)
		return
	}
	respondJSON(w, http.StatusOK, ItemsResponse{Items: user.Cart})
}

// respondMutation writes the snapshot after a mutation. A failed save still reports
// the in-memory snapshot, flagged as not persisted.
func respondMutation(w http.ResponseWriter, logger *zap.Logger, state *service.UserState, err error) {
	persisted := true
	if errors.Is(err, service.ErrPersist) {
		persisted = false
	} else if err != nil {
		handleServiceError(w, logger, err)
		return
	}

	user, ok := state.GetUser()
	if !ok {
		handleServiceError(w, logger, service.ErrNoSession)
		return
	}
	respondJSON(w, http.StatusOK, SnapshotResponse{User: user, Persisted: persisted})
}
