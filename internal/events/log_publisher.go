package events

import (
	"context"

	"go.uber.org/zap"
)

type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, e Event) error {
	fields := []zap.Field{
		zap.String("type", e.Type),
		zap.String("user_id", e.UserID),
	}
	if e.ItemID != 0 {
		fields = append(fields, zap.Int64("item_id", e.ItemID))
	}
	if e.Liked != nil {
		fields = append(fields, zap.Bool("liked", *e.Liked))
	}
	if e.Snapshot != nil {
		fields = append(fields,
			zap.Int("cart_size", len(e.Snapshot.Cart)),
			zap.Int("likes_size", len(e.Snapshot.Likes)))
	}
	p.logger.Info("session event", fields...)
	return nil
}
