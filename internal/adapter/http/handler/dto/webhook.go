package dto

import (
	"time"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
)

// PresenceSource marks webhook items carrying presence messages; other
// sources are skipped silently.
const PresenceSource = "channel.presence"

// PresenceWebhookRequest is the Ably webhook batch envelope.
type PresenceWebhookRequest struct {
	Items []PresenceWebhookItem `json:"items"`
}

type PresenceWebhookItem struct {
	Source    string              `json:"source"`
	Name      string              `json:"name,omitempty"`
	Timestamp int64               `json:"timestamp,omitempty"`
	Data      PresenceWebhookData `json:"data"`
}

type PresenceWebhookData struct {
	ChannelID string            `json:"channelId,omitempty"`
	Presence  []PresenceMessage `json:"presence"`
}

type PresenceMessage struct {
	ClientID  string `json:"clientId"`
	Action    int    `json:"action"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Data      string `json:"data,omitempty"`
}

// ToEvents flattens the batch into presence events, keeping only
// presence-sourced items for the driver availability channel and
// preserving message order. Messages without their own timestamp
// inherit the item's.
func (r *PresenceWebhookRequest) ToEvents() []models.PresenceEvent {
	var events []models.PresenceEvent
	for _, item := range r.Items {
		if item.Source != PresenceSource {
			continue
		}
		// older broker rules omit channelId; only a mismatch is skipped
		if item.Data.ChannelID != "" && item.Data.ChannelID != types.PresenceChannel {
			continue
		}
		for _, msg := range item.Data.Presence {
			if msg.ClientID == "" {
				continue
			}
			ts := msg.Timestamp
			if ts == 0 {
				ts = item.Timestamp
			}
			events = append(events, models.PresenceEvent{
				ClientID:  msg.ClientID,
				Action:    models.PresenceAction(msg.Action),
				Timestamp: time.UnixMilli(ts),
			})
		}
	}
	return events
}
