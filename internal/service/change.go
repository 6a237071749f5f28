package service

import (
	"time"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
)

type ChangeKind string

const (
	ChangeCartAdded      ChangeKind = "cart.added"
	ChangeLikeToggled    ChangeKind = "like.toggled"
	ChangeSessionStarted ChangeKind = "session.started"
	ChangeSessionEnded   ChangeKind = "session.ended"
)

// Change describes one effective mutation of a user's session.
// Snapshot is a copy taken right after the mutation, shared read-only by all listeners.
// It is nil for ChangeSessionEnded.
type Change struct {
	Kind     ChangeKind
	UserID   string
	ItemID   int64
	Liked    bool
	Snapshot *domain.UserSnapshot
	At       time.Time
}

type Listener func(Change)
