package wshub

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/metrics"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// Hub keeps all active WebSocket connections keyed by entity id.
type Hub struct {
	clients map[uuid.UUID]*Conn
	l       logger.Logger
	mu      sync.Mutex
}

func NewHub(l logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]*Conn),
		l:       l,
	}
}

// Add registers a new connection. An existing connection for the same
// entity is closed and replaced.
func (h *Hub) Add(newConn *Conn) error {
	if newConn == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "add_ws_connection")

	if existing, ok := h.clients[newConn.entityID]; ok {
		h.l.Warn(ctx, "replacing existing connection", "entity_id", existing.entityID)
		if err := existing.Close(); err != nil {
			h.l.Warn(ctx, "failed to close existing conn", "entity_id", existing.entityID, "err", err.Error())
		}
	} else {
		metrics.WebSocketConnectionsGauge.Inc()
	}

	h.clients[newConn.entityID] = newConn

	return nil
}

// Delete removes and closes the connection for the entity.
func (h *Hub) Delete(entityID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "ws_connection_delete")

	conn, ok := h.clients[entityID]
	if !ok {
		return ErrConnIsNotFound
	}

	if err := conn.Close(); err != nil {
		h.l.Warn(ctx, "failed to close conn", "entity_id", conn.entityID, "err", err.Error())
	}

	delete(h.clients, entityID)
	metrics.WebSocketConnectionsGauge.Dec()

	return nil
}

// SendTo delivers a message to the entity's connection, if present.
func (h *Hub) SendTo(id uuid.UUID, msg any) error {
	h.mu.Lock()
	conn, ok := h.clients[id]
	h.mu.Unlock()

	if !ok {
		return ErrConnIsNotFound
	}
	return conn.Send(msg)
}

// Close shuts down every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*Conn, 0, len(h.clients))
	for _, conn := range h.clients {
		clients = append(clients, conn)
	}
	h.mu.Unlock()

	for _, conn := range clients {
		_ = h.Delete(conn.entityID)
	}
}
