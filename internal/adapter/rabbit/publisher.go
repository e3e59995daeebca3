package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/nurkan-dev/ride-dispatch/internal/domain/types"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/rabbit"
)

const (
	// EventsExchange carries every outbound realtime event. The broker
	// bridge consumes it and relays to the riders'/drivers' channels.
	EventsExchange = "realtime_topic"

	publishAttempts = 5
	publishBackoff  = time.Second
)

// EventBroker publishes rider/driver events to the realtime exchange.
type EventBroker struct {
	client   *rabbit.RabbitMQ
	exchange string

	l logger.Logger
}

func NewEventBroker(ctx context.Context, client *rabbit.RabbitMQ, log logger.Logger) (*EventBroker, error) {
	b := &EventBroker{
		client:   client,
		exchange: EventsExchange,
		l:        log,
	}

	if err := b.declareExchange(ctx); err != nil {
		return nil, fmt.Errorf("failed to declare events exchange: %w", err)
	}
	return b, nil
}

func (b *EventBroker) declareExchange(ctx context.Context) error {
	if err := b.client.EnsureConnection(ctx); err != nil {
		return err
	}
	return b.client.Channel.ExchangeDeclare(
		b.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-delete
		false,      // internal
		false,      // no-wait
		nil,        // args
	)
}

// eventEnvelope is the wire form of one realtime event.
type eventEnvelope struct {
	Channel string          `json:"channel"`
	Event   types.EventName `json:"event"`
	Data    any             `json:"data"`
}

// Publish pushes an event onto the exchange. The routing key mirrors
// the logical channel with ':' replaced by '.', so bindings like
// "driver.private.*" and "rider.*" select per-audience streams.
func (b *EventBroker) Publish(ctx context.Context, channel string, event types.EventName, payload any) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_event")

	if err := b.client.EnsureConnection(ctx); err != nil {
		b.l.Error(ctx, "ensure connection failed", err)
		return wrap.Error(ctx, err)
	}

	body, err := json.Marshal(eventEnvelope{
		Channel: channel,
		Event:   event,
		Data:    payload,
	})
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal event: %w", err))
	}

	key := strings.ReplaceAll(channel, ":", ".")

	if err := retry(publishAttempts, publishBackoff, func() error {
		if err := b.client.Channel.PublishWithContext(
			ctx,
			b.exchange, // exchange
			key,        // routing key
			false,      // mandatory
			false,      // immediate
			amqp091.Publishing{
				ContentType: "application/json",
				Type:        event.String(),
				Body:        body,
				Timestamp:   time.Now(),
			},
		); err != nil {
			return fmt.Errorf("failed to publish with context: %w", err)
		}
		return nil
	}); err != nil {
		return wrap.Error(ctx, err)
	}

	return nil
}

// retry runs fn up to attempts times with a fixed sleep between tries.
func retry(attempts int, sleep time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(sleep)
		}
	}
	return err
}
