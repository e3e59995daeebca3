package eventbus

import (
	"context"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

// Publisher is one outbound event sink.
type Publisher interface {
	Publish(ctx context.Context, channel string, event types.EventName, payload any) error
}

// Fanout duplicates every event to all configured sinks (broker plus
// the in-process WebSocket bridge). A failing sink does not stop the
// others; callers treat publishing as at-least-once.
type Fanout struct {
	sinks []Publisher
}

func NewFanout(sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Publish(ctx context.Context, channel string, event types.EventName, payload any) error {
	var firstErr error
	for _, sink := range f.sinks {
		if err := sink.Publish(ctx, channel, event, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
