package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pusit-hanp/capstone-image-store/internal/service"
	"go.uber.org/zap"
)

type LikesHandler struct {
	sessions Sessions
	logger   *zap.Logger
}

func NewLikesHandler(sessions Sessions, logger *zap.Logger) *LikesHandler {
	return &LikesHandler{
		sessions: sessions,
		logger:   logger,
	}
}

func (h *LikesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	state, err := currentState(r.Context(), h.sessions)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_item_id", "id must be a positive integer")
		return
	}

	err = state.ToggleLike(r.Context(), id)
	respondMutation(w, h.logger, state, err)
}

func (h *LikesHandler) List(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, ItemsResponse{Items: user.Likes})
}
