package driverstate

import (
	"context"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/metrics"
)

// ApplyPresence folds a webhook batch of presence messages into driver
// availability and returns how many were applied. The sink never
// errors: unknown client ids, unknown drivers and stale timestamps are
// logged and skipped so the broker does not retry the whole batch.
func (s *Service) ApplyPresence(ctx context.Context, events []models.PresenceEvent) int {
	ctx = wrap.WithAction(ctx, types.ActionPresenceIngest)

	processed := 0
	for _, ev := range events {
		availability, ok := ev.Action.Availability()
		if !ok {
			s.l.Debug(ctx, "presence action without availability mapping", "action", int(ev.Action))
			continue
		}
		metrics.PresenceEventsTotal.WithLabelValues(availability.String()).Inc()

		userID, err := uuid.Parse(ev.ClientID)
		if err != nil {
			s.l.Warn(ctx, "presence clientId is not a user id", "client_id", ev.ClientID)
			continue
		}

		applied, err := s.drivers.SetAvailabilityFromPresence(ctx, userID, availability, ev.Timestamp)
		if err != nil {
			s.l.Error(ctx, "presence transition failed", err, "user_id", userID, "availability", availability)
			continue
		}
		if !applied {
			// no driver for this user, the driver is not APPROVED or is
			// ON_TRIP, or a newer presence event already landed
			s.l.Debug(ctx, "presence transition skipped", "user_id", userID, "availability", availability)
			continue
		}

		processed++
	}

	s.l.Info(ctx, "presence batch applied", "events", len(events), "processed", processed)
	return processed
}
