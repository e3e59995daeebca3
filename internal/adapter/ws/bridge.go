package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	"github.com/nurkan-dev/ride-dispatch/pkg/wshub"
)

const (
	riderPrefix  = "rider:"
	driverPrefix = "driver:private:"
)

// Bridge delivers realtime events to WebSocket clients connected to
// this process. It mirrors the broker path so locally connected apps
// get events without a broker round-trip.
type Bridge struct {
	riders  *wshub.Hub
	drivers *wshub.Hub

	l logger.Logger
}

func NewBridge(riders, drivers *wshub.Hub, l logger.Logger) *Bridge {
	return &Bridge{
		riders:  riders,
		drivers: drivers,
		l:       l,
	}
}

// wsEvent is the frame pushed to a connected client.
type wsEvent struct {
	Event types.EventName `json:"event"`
	Data  any             `json:"data"`
}

// Publish routes a channel name to the matching local hub. A client
// that is not connected here is not an error: the broker path covers
// remotely connected apps.
func (b *Bridge) Publish(ctx context.Context, channel string, event types.EventName, payload any) error {
	var (
		hub *wshub.Hub
		id  string
	)
	switch {
	case strings.HasPrefix(channel, driverPrefix):
		hub, id = b.drivers, strings.TrimPrefix(channel, driverPrefix)
	case strings.HasPrefix(channel, riderPrefix):
		hub, id = b.riders, strings.TrimPrefix(channel, riderPrefix)
	default:
		return fmt.Errorf("unroutable channel %q", channel)
	}

	entityID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("channel %q carries a bad entity id: %w", channel, err)
	}

	if err := hub.SendTo(entityID, wsEvent{Event: event, Data: payload}); err != nil {
		if errors.Is(err, wshub.ErrConnIsNotFound) {
			b.l.Debug(ctx, "no local ws connection for event", "channel", channel, "event", event)
			return nil
		}
		return err
	}
	return nil
}
