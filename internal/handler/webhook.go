package handler

import (
	"io"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hostel-booking/internal/booking"
	"github.com/iliyamo/hostel-booking/internal/payment"
)

// maxWebhookBody caps how much of a gateway notification we read.
const maxWebhookBody = 64 << 10

// WebhookHandler receives payment gateway notifications.
type WebhookHandler struct {
	Svc *booking.Service
}

// NewWebhookHandler wires the booking service into the webhook endpoint.
func NewWebhookHandler(svc *booking.Service) *WebhookHandler { return &WebhookHandler{Svc: svc} }

// Receive applies a gateway event and always answers 200.  The gateway
// retries non-2xx responses aggressively and duplicate deliveries are
// already idempotent, so acknowledging everything (and logging what was
// dropped or failed) is safer than bouncing.
// POST /v1/payments/webhook
func (h *WebhookHandler) Receive(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		log.Printf("webhook: reading body failed: %v", err)
		return c.NoContent(http.StatusOK)
	}
	ev, err := payment.ParseWebhook(body)
	if err != nil {
		log.Printf("webhook: dropping malformed notification: %v", err)
		return c.NoContent(http.StatusOK)
	}
	if err := h.Svc.ApplyWebhook(c.Request().Context(), ev); err != nil {
		log.Printf("webhook: applying %s for reservation %d failed: %v", ev.Type, ev.ReservationID, err)
	}
	return c.NoContent(http.StatusOK)
}
