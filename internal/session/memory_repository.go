package session

import (
	"context"
	"errors"
	"sync"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
)

// MemoryRepository keeps snapshots in process memory.
type MemoryRepository struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.UserSnapshot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		snapshots: make(map[string]*domain.UserSnapshot),
	}
}

func (m *MemoryRepository) Load(_ context.Context, userID string) (*domain.UserSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.snapshots[userID]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryRepository) Save(_ context.Context, snapshot *domain.UserSnapshot) error {
	if snapshot == nil || snapshot.ID == "" {
		return errors.New("snapshot id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snapshot.ID] = snapshot.Clone()
	return nil
}

func (m *MemoryRepository) Delete(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[userID]; !ok {
		return ErrSnapshotNotFound
	}
	delete(m.snapshots, userID)
	return nil
}
