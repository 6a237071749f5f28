package session

import (
	"context"
	"errors"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
)

var ErrSnapshotNotFound = errors.New("session snapshot not found")

// Repository persists one UserSnapshot document per user.
// Save always overwrites the whole document.
type Repository interface {
	Load(ctx context.Context, userID string) (*domain.UserSnapshot, error)
	Save(ctx context.Context, snapshot *domain.UserSnapshot) error
	Delete(ctx context.Context, userID string) error
}
