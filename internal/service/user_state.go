package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pusit-hanp/capstone-image-store/internal/catalog"
	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/pusit-hanp/capstone-image-store/internal/session"
	"go.uber.org/zap"
)

// UserState is the single source of truth for one user's cart and likes.
// Every effective mutation rewrites the persisted snapshot in full and then
// notifies subscribers, outside the lock.
type UserState struct {
	mu   sync.Mutex
	user *domain.UserSnapshot

	catalog catalog.Provider
	repo    session.Repository
	logger  *zap.Logger
	now     func() time.Time

	listeners  map[int]Listener
	nextListen int
}

func NewUserState(user *domain.UserSnapshot, provider catalog.Provider, repo session.Repository, logger *zap.Logger) *UserState {
	u := user.Clone()
	if u != nil {
		u.Normalize()
	}
	return &UserState{
		user:      u,
		catalog:   provider,
		repo:      repo,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
}

// GetUser returns a copy of the current snapshot, or false when there is no session.
func (s *UserState) GetUser() (*domain.UserSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil, false
	}
	return s.user.Clone(), true
}

// AddToCart appends the item to the cart. Adding an item already in the cart is a no-op.
func (s *UserState) AddToCart(ctx context.Context, itemID int64) error {
	item, err := s.lookup(ctx, itemID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	if !s.user.AddToCart(*item) {
		s.mu.Unlock()
		return nil
	}
	change := s.changeLocked(ChangeCartAdded, itemID)
	errSave := s.persistLocked(ctx)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, change)
	return errSave
}

// ToggleLike removes the item from likes when present and inserts it otherwise.
func (s *UserState) ToggleLike(ctx context.Context, itemID int64) error {
	item, err := s.lookup(ctx, itemID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNoSession
	}
	liked := s.user.ToggleLike(*item)
	change := s.changeLocked(ChangeLikeToggled, itemID)
	change.Liked = liked
	errSave := s.persistLocked(ctx)
	listeners := s.listenersLocked()
	s.mu.Unlock()

	notify(listeners, change)
	return errSave
}

// Subscribe registers fn for every effective mutation and returns a function that removes it.
func (s *UserState) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListen
	s.nextListen++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// clear drops the in-memory snapshot; later mutations are inert.
func (s *UserState) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

func (s *UserState) lookup(ctx context.Context, itemID int64) (*domain.CatalogItem, error) {
	if _, ok := s.GetUser(); !ok {
		return nil, ErrNoSession
	}
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("lookup item %d: %w", itemID, err)
	}
	return item, nil
}

func (s *UserState) persistLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.user.Clone()); err != nil {
		s.logger.Warn("snapshot save failed",
			zap.String("user_id", s.user.ID),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *UserState) changeLocked(kind ChangeKind, itemID int64) Change {
	return Change{
		Kind:     kind,
		UserID:   s.user.ID,
		ItemID:   itemID,
		Snapshot: s.user.Clone(),
		At:       s.now(),
	}
}

func (s *UserState) listenersLocked() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextListen; id++ {
		if fn, ok := s.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func notify(listeners []Listener, change Change) {
	for _, fn := range listeners {
		fn(change)
	}
}
