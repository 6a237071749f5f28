package events

import (
	"context"
	"time"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/pusit-hanp/capstone-image-store/internal/service"
)

type Event struct {
	Type     string               `json:"type"`
	UserID   string               `json:"user_id"`
	ItemID   int64                `json:"item_id,omitempty"`
	Liked    *bool                `json:"liked,omitempty"`
	Snapshot *domain.UserSnapshot `json:"snapshot,omitempty"`
	At       time.Time            `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

func FromChange(c service.Change) Event {
	e := Event{
		Type:     string(c.Kind),
		UserID:   c.UserID,
		ItemID:   c.ItemID,
		Snapshot: c.Snapshot,
		At:       c.At,
	}
	if c.Kind == service.ChangeLikeToggled {
		liked := c.Liked
		e.Liked = &liked
	}
	return e
}
