package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pusit-hanp/capstone-image-store/internal/auth"
	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/pusit-hanp/capstone-image-store/internal/service"
	"go.uber.org/zap"
)

const homeRoute = "/home"

type Authenticator interface {
	SignIn(ctx context.Context, creds auth.Credentials) (*domain.UserSnapshot, error)
}

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

type AuthHandler struct {
	authn         Authenticator
	tokens        TokenIssuer
	sessions      Sessions
	tokenTTL      time.Duration
	secureCookies bool
	logger        *zap.Logger
}

func NewAuthHandler(authn Authenticator, tokens TokenIssuer, sessions Sessions, tokenTTL time.Duration, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authn:         authn,
		tokens:        tokens,
		sessions:      sessions,
		tokenTTL:      tokenTTL,
		secureCookies: secureCookies,
		logger:        logger,
	}
}

type SignInResponse struct {
	Redirect string               `json:"redirect"`
	Token    string               `json:"token"`
	User     *domain.UserSnapshot `json:"user"`
}

// SignIn validates the credentials locally, forwards them to the authentication
// endpoint and starts a session on success.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var creds auth.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := creds.Validate(); err != nil {
		var fields auth.FieldErrors
		if errors.As(err, &fields) {
			respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:  "validation failed",
				Code:   "validation_failed",
				Fields: fields,
			})
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	profile, err := h.authn.SignIn(r.Context(), creds)
	if err != nil {
		h.handleAuthError(w, err)
		return
	}

	state, err := h.sessions.SignIn(r.Context(), profile)
	if err != nil {
		h.logger.Error("failed to start session", zap.String("user_id", profile.ID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "could not start session")
		return
	}
	user, ok := state.GetUser()
	if !ok {
		// a concurrent sign-in for the same user replaced this state
		user, err = h.latestUser(r.Context(), profile.ID)
		if err != nil {
			h.logger.Error("failed to start session", zap.String("user_id", profile.ID), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal_error", "could not start session")
			return
		}
	}

	token, err := h.tokens.Issue(profile.ID)
	if err != nil {
		h.logger.Error("failed to issue token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal_error", "could not start session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, SignInResponse{
		Redirect: homeRoute,
		Token:    token,
		User:     user,
	})
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		handleServiceError(w, h.logger, service.ErrNoSession)
		return
	}

	if err := h.sessions.SignOut(r.Context(), userID); err != nil {
		// the in-memory session is gone either way
		h.logger.Warn("sign-out did not delete snapshot", zap.String("user_id", userID), zap.Error(err))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
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
	respondJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) latestUser(ctx context.Context, userID string) (*domain.UserSnapshot, error) {
	state, err := h.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	user, ok := state.GetUser()
	if !ok {
		return nil, service.ErrNoSession
	}
	return user, nil
}

func (h *AuthHandler) handleAuthError(w http.ResponseWriter, err error) {
	var authErr *auth.Error
	switch {
	case errors.As(err, &authErr):
		respondError(w, http.StatusUnauthorized, "authentication_failed", authErr.Message)
	case errors.Is(err, auth.ErrUnavailable):
		h.logger.Warn("authentication service unavailable", zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", auth.ErrUnavailable.Error())
	default:
		h.logger.Error("sign-in failed", zap.Error(err))
		respondError(w, http.StatusBadGateway, "bad_gateway", "sign-in failed")
	}
}
