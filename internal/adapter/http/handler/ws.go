package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
	"github.com/nurkan-dev/ride-dispatch/pkg/wshub"
)

type WS struct {
	riders  *wshub.Hub
	drivers *wshub.Hub
	l       logger.Logger

	upgrader websocket.Upgrader
}

func NewWS(riders, drivers *wshub.Hub, l logger.Logger) *WS {
	return &WS{
		riders:  riders,
		drivers: drivers,
		l:       l,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// RiderSocket godoc
// @Summary      Rider event stream
// @Description  Upgrades to a websocket delivering ride lifecycle events for one rider
// @Tags         WebSocket
// @Param        rider_id  path  string  true  "Rider ID"
// @Router       /ws/riders/{rider_id} [get]
func (h *WS) RiderSocket(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.riders, "rider_id")
}

// DriverSocket godoc
// @Summary      Driver event stream
// @Description  Upgrades to a websocket delivering ride offers and cancellations for one driver
// @Tags         WebSocket
// @Param        driver_id  path  string  true  "Driver ID"
// @Router       /ws/drivers/{driver_id} [get]
func (h *WS) DriverSocket(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.drivers, "driver_id")
}

func (h *WS) serve(w http.ResponseWriter, r *http.Request, hub *wshub.Hub, pathParam string) {
	ctx := wrap.WithAction(r.Context(), "ws_connect")

	entityID, err := uuid.Parse(r.PathValue(pathParam))
	if err != nil {
		badRequestResponse(w, "invalid uuid format")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "websocket upgrade failed", err)
		return
	}

	wsConn := wshub.NewConn(r.Context(), entityID, conn)
	if err := hub.Add(wsConn); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to register connection", err)
		_ = wsConn.Close()
		return
	}

	h.l.Debug(ctx, "websocket connected", "entity_id", entityID)

	wsConn.Wait()

	if err := hub.Delete(entityID); err != nil {
		h.l.Debug(ctx, "connection already removed", "entity_id", entityID)
	}
}
