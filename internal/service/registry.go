package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pusit-hanp/capstone-image-store/internal/catalog"
	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/pusit-hanp/capstone-image-store/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Registry hands out the UserState of each signed-in user. States are loaded
// lazily from the session repository the first time a user is seen.
type Registry struct {
	mu     sync.RWMutex
	states map[string]*UserState
	epochs map[string]uint64 // bumped by SignOut; a load started in an older epoch is discarded
	sfg    singleflight.Group // coalesces concurrent first loads of the same user

	catalog catalog.Provider
	repo    session.Repository
	logger  *zap.Logger

	lmu       sync.RWMutex
	listeners []Listener
}

func NewRegistry(provider catalog.Provider, repo session.Repository, logger *zap.Logger) *Registry {
	return &Registry{
		states:  make(map[string]*UserState),
		epochs:  make(map[string]uint64),
		catalog: provider,
		repo:    repo,
		logger:  logger,
	}
}

// Subscribe registers fn for changes of every user handed out by the registry.
func (r *Registry) Subscribe(fn Listener) {
	r.lmu.Lock()
	defer r.lmu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// SignIn starts a session for profile. When the profile carries cart or likes
// collections they replace the persisted snapshot; otherwise the persisted snapshot
// is loaded, and a new empty one is created when none exists.
func (r *Registry) SignIn(ctx context.Context, profile *domain.UserSnapshot) (*UserState, error) {
	if profile == nil || profile.ID == "" {
		return nil, errors.New("profile id is required")
	}

	snapshot, err := r.resolveSnapshot(ctx, profile)
	if err != nil {
		return nil, err
	}

	state := r.newState(snapshot)
	r.mu.Lock()
	old := r.states[snapshot.ID]
	r.states[snapshot.ID] = state
	r.mu.Unlock()
	if old != nil {
		old.clear()
	}

	r.logger.Info("session started", zap.String("user_id", snapshot.ID))
	r.broadcast(Change{
		Kind:     ChangeSessionStarted,
		UserID:   snapshot.ID,
		Snapshot: snapshot.Clone(),
		At:       time.Now(),
	})
	return state, nil
}

// Get returns the state for userID, loading it from the repository when needed.
// A user without a persisted snapshot has no session.
func (r *Registry) Get(ctx context.Context, userID string) (*UserState, error) {
	r.mu.RLock()
	state, ok := r.states[userID]
	r.mu.RUnlock()
	if ok {
		return state, nil
	}

	// every coalesced waiter shares this load, not just the first caller
	loadCtx := context.WithoutCancel(ctx)
	v, err, _ := r.sfg.Do(userID, func() (interface{}, error) {
		r.mu.RLock()
		epoch := r.epochs[userID]
		r.mu.RUnlock()

		snapshot, err := r.repo.Load(loadCtx, userID)
		if errors.Is(err, session.ErrSnapshotNotFound) {
			return nil, ErrNoSession
		}
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if existing, ok := r.states[userID]; ok {
			return existing, nil
		}
		if r.epochs[userID] != epoch {
			// signed out while loading
			return nil, ErrNoSession
		}
		state := r.newState(snapshot)
		r.states[userID] = state
		return state, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*UserState), nil
}

// SignOut clears the user's state and deletes the persisted snapshot.
func (r *Registry) SignOut(ctx context.Context, userID string) error {
	r.mu.Lock()
	state := r.states[userID]
	delete(r.states, userID)
	r.epochs[userID]++
	r.mu.Unlock()

	if state != nil {
		state.clear()
	}

	err := r.repo.Delete(ctx, userID)

	// loads that started before the delete finished may still hold the document
	r.mu.Lock()
	r.epochs[userID]++
	r.mu.Unlock()

	if err != nil && !errors.Is(err, session.ErrSnapshotNotFound) {
		r.logger.Warn("snapshot delete failed", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	r.logger.Info("session ended", zap.String("user_id", userID))
	r.broadcast(Change{
		Kind:   ChangeSessionEnded,
		UserID: userID,
		At:     time.Now(),
	})
	return nil
}

func (r *Registry) resolveSnapshot(ctx context.Context, profile *domain.UserSnapshot) (*domain.UserSnapshot, error) {
	if profile.Cart != nil || profile.Likes != nil {
		cart, err := r.resolveItems(ctx, profile.Cart)
		if err != nil {
			return nil, err
		}
		likes, err := r.resolveItems(ctx, profile.Likes)
		if err != nil {
			return nil, err
		}
		snapshot := &domain.UserSnapshot{ID: profile.ID, Email: profile.Email, Cart: cart, Likes: likes}
		snapshot.Normalize()
		if err := r.repo.Save(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPersist, err)
		}
		return snapshot, nil
	}

	snapshot, err := r.repo.Load(ctx, profile.ID)
	if err == nil {
		if snapshot.Email == "" {
			snapshot.Email = profile.Email
		}
		return snapshot, nil
	}
	if !errors.Is(err, session.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	snapshot = domain.NewUserSnapshot(profile.ID, profile.Email)
	if err := r.repo.Save(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return snapshot, nil
}

// resolveItems replaces profile entries with the catalog records of the same id.
// Ids the catalog does not know are dropped.
func (r *Registry) resolveItems(ctx context.Context, items []domain.CatalogItem) ([]domain.CatalogItem, error) {
	out := make([]domain.CatalogItem, 0, len(items))
	for _, entry := range items {
		item, err := r.catalog.Get(ctx, entry.ID)
		if errors.Is(err, catalog.ErrItemNotFound) {
			r.logger.Debug("dropping unknown item from profile", zap.Int64("item_id", entry.ID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve item %d: %w", entry.ID, err)
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *Registry) newState(snapshot *domain.UserSnapshot) *UserState {
	state := NewUserState(snapshot, r.catalog, r.repo, r.logger)
	state.Subscribe(r.broadcast)
	return state
}

func (r *Registry) broadcast(change Change) {
	r.lmu.RLock()
	listeners := append([]Listener(nil), r.listeners...)
	r.lmu.RUnlock()
	notify(listeners, change)
}
