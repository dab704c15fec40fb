package tenant

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/TEMPERINE/wa-qr-connector/pkg/env"
	"github.com/TEMPERINE/wa-qr-connector/pkg/router"
	"github.com/TEMPERINE/wa-qr-connector/pkg/validation"
)

// StreamEvents attaches the caller to the tenant's live event stream
// @Summary     Stream Events
// @Description Server-Sent-Events stream of qr, status, ready, message and ack frames.
// @Tags        Session
// @Produce     text/event-stream
// @Param       tenant_id path string true "Tenant ID"
// @Success     200
// @Failure     400 {object} router.Response
// @Router      /tenants/{tenant_id}/events [get]
func StreamEvents(c *fiber.Ctx) error {
	tenantID := c.Params("tenant_id")
	if err := validation.ValidateTenantID(tenantID); err != nil {
		return router.ResponseBadRequest(c, err.Error())
	}

	sub := sessions.Subscribe(tenantID)
	keepAlive := env.GetEnvDurationOrDefault("WA_SSE_KEEPALIVE_INTERVAL", 30*time.Second)

	return router.ResponseEventStream(c, func(w *bufio.Writer) {
		defer sub.Close()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case <-sub.Done():
				return
			case frame := <-sub.Frames():
				if err := router.WriteEvent(w, frame); err != nil {
					return
				}
			case <-ticker.C:
				if err := router.WriteComment(w, "keep-alive"); err != nil {
					return
				}
			}
		}
	})
}
