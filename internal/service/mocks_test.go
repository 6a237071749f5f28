package service

import (
	"context"
	"sync"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/pusit-hanp/capstone-image-store/internal/session"
)

type mockRepository struct {
	m         sync.Mutex
	snapshots map[string]*domain.UserSnapshot
	saves     int
	loads     int
	saveErr   error
	loadErr   error
	deleteErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{snapshots: make(map[string]*domain.UserSnapshot)}
}

func (m *mockRepository) Load(_ context.Context, userID string) (*domain.UserSnapshot, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	s, ok := m.snapshots[userID]
	if !ok {
		return nil, session.ErrSnapshotNotFound
	}
	return s.Clone(), nil
}

func (m *mockRepository) Save(_ context.Context, s *domain.UserSnapshot) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.snapshots[s.ID] = s.Clone()
	return nil
}

func (m *mockRepository) Delete(_ context.Context, userID string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.snapshots[userID]; !ok {
		return session.ErrSnapshotNotFound
	}
	delete(m.snapshots, userID)
	return nil
}

func (m *mockRepository) stored(userID string) *domain.UserSnapshot {
	m.m.Lock()
	defer m.m.Unlock()
	return m.snapshots[userID].Clone()
}

func (m *mockRepository) saveCount() int {
	m.m.Lock()
	defer m.m.Unlock()
	return m.saves
}

func (m *mockRepository) setSaveErr(err error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.saveErr = err
}

// blockingRepository holds the first Load after it has read the snapshot until
// release is closed.
type blockingRepository struct {
	*mockRepository
	loaded  chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingRepository(inner *mockRepository) *blockingRepository {
	return &blockingRepository{
		mockRepository: inner,
		loaded:         make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (b *blockingRepository) Load(ctx context.Context, userID string) (*domain.UserSnapshot, error) {
	s, err := b.mockRepository.Load(ctx, userID)
	b.once.Do(func() { close(b.loaded) })
	<-b.release
	return s, err
}

// ctxRepository fails loads whose context is already done.
type ctxRepository struct {
	*mockRepository
}

func (c ctxRepository) Load(ctx context.Context, userID string) (*domain.UserSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.mockRepository.Load(ctx, userID)
}
