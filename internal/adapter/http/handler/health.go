package handler

import (
	"net/http"

	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
)

type Health struct {
	serviceName string
	l           logger.Logger
}

func NewHealth(serviceName string, l logger.Logger) *Health {
	return &Health{
		serviceName: serviceName,
		l:           l,
	}
}

// Healthcheck godoc
// @Summary      Service health
// @Description  Liveness probe
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]any
// @Router       /health [get]
func (h *Health) Healthcheck(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "healthcheck")

	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"service-name": h.serviceName,
		},
	}

	if err := writeJSON(w, http.StatusOK, env, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write health response", err)
		internalErrorResponse(w, err.Error())
	}
}
