package events

import (
	"context"
	"time"

	"github.com/pusit-hanp/capstone-image-store/internal/service"
	"go.uber.org/zap"
)

const (
	defaultBuffer  = 256
	publishTimeout = 5 * time.Second
)

// Dispatcher moves session changes off the request path and fans them out to publishers.
// When the buffer is full new events are dropped and logged.
type Dispatcher struct {
	queue      chan Event
	publishers []Publisher
	logger     *zap.Logger
}

func NewDispatcher(logger *zap.Logger, publishers ...Publisher) *Dispatcher {
	return &Dispatcher{
		queue:      make(chan Event, defaultBuffer),
		publishers: publishers,
		logger:     logger,
	}
}

// Listener returns a service.Listener feeding the dispatcher.
func (d *Dispatcher) Listener() service.Listener {
	return func(c service.Change) {
		e := FromChange(c)
		select {
		case d.queue <- e:
		default:
			d.logger.Warn("event queue full, dropping event",
				zap.String("type", e.Type),
				zap.String("user_id", e.UserID))
		}
	}
}

// Run publishes queued events until ctx is done, then drains what is left.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case e := <-d.queue:
			d.publish(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-d.queue:
					d.publish(e)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) publish(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	for _, p := range d.publishers {
		if err := p.Publish(ctx, e); err != nil {
			d.logger.Warn("failed to publish event",
				zap.String("type", e.Type),
				zap.String("user_id", e.UserID),
				zap.Error(err))
		}
	}
}
