package http

import (
	"context"
	"errors"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/pusit-hanp/capstone-image-store/internal/service"
)

// Sessions is the part of service.Registry the handlers depend on.
type Sessions interface {
	Get(ctx context.Context, userID string) (*service.UserState, error)
	SignIn(ctx context.Context, profile *domain.UserSnapshot) (*service.UserState, error)
	SignOut(ctx context.Context, userID string) error
}

type SnapshotResponse struct {
	User      *domain.UserSnapshot `json:"user"`
	Persisted bool                 `json:"persisted"`
}

type ItemsResponse struct {
	Items []domain.CatalogItem `json:"items"`
}

// currentState returns the caller's state, or service.ErrNoSession.
func currentState(ctx context.Context, sessions Sessions) (*service.UserState, error) {
	userID := getUserIDFromContext(ctx)
	if userID == "" {
		return nil, service.ErrNoSession
	}
	return sessions.Get(ctx, userID)
}

// currentUser is like currentState but treats a missing session as a nil snapshot.
func currentUser(ctx context.Context, sessions Sessions) (*domain.UserSnapshot, error) {
	state, err := currentState(ctx, sessions)
	if errors.Is(err, service.ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user, _ := state.GetUser()
	return user, nil
}
