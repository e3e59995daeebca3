package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/nurkan-dev/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/nurkan-dev/ride-dispatch/internal/domain/models"
	"github.com/nurkan-dev/ride-dispatch/pkg/ablysig"
	"github.com/nurkan-dev/ride-dispatch/pkg/logger"
	wrap "github.com/nurkan-dev/ride-dispatch/pkg/logger/wrapper"
)

const (
	headerAblyKey       = "X-Ably-Key"
	headerAblySignature = "X-Ably-Signature"

	maxWebhookBodyBytes = 1 << 20
)

type Webhook struct {
	verifier *ablysig.Verifier
	presence PresenceService
	l        logger.Logger
}

type PresenceService interface {
	ApplyPresence(ctx context.Context, events []models.PresenceEvent) int
}

func NewWebhook(verifier *ablysig.Verifier, presence PresenceService, l logger.Logger) *Webhook {
	return &Webhook{
		verifier: verifier,
		presence: presence,
		l:        l,
	}
}

// Presence godoc
// @Summary      Ably presence webhook
// @Description  Signed batch of presence enter/leave messages from the realtime broker
// @Tags         Webhooks
// @Accept       json
// @Produce      json
// @Param        request  body  dto.PresenceWebhookRequest  true  "Webhook batch"
// @Success      200  {object}  map[string]any
// @Failure      403  {object}  map[string]string
// @Router       /webhooks/ably/presence [post]
func (h *Webhook) Presence(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "presence_webhook")

	// signature covers the exact raw bytes, read before decoding
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read webhook body", err)
		badRequestResponse(w, "unable to read request body")
		return
	}

	if err := h.verifier.Verify(r.Header.Get(headerAblyKey), r.Header.Get(headerAblySignature), body); err != nil {
		h.l.Warn(ctx, "webhook signature rejected", "reason", err.Error())
		forbiddenResponse(w, "invalid webhook signature")
		return
	}

	// the broker adds fields over time, unknown ones are fine
	var req dto.PresenceWebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to decode webhook body", err)
		badRequestResponse(w, "body contains badly-formed JSON")
		return
	}

	processed := h.presence.ApplyPresence(ctx, req.ToEvents())

	if err := writeJSON(w, http.StatusOK, envelope{"ok": true, "processed": processed}, nil); err != nil {
		internalErrorResponse(w, err.Error())
	}
}
