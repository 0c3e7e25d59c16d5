package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/ingest"
	"github.com/spec-kit/locate-ticket-service/internal/service"
)

// ReceiveHandler accepts webhook deliveries from the one-call network.
// Every POST is acknowledged with 200 regardless of payload validity or
// persistence outcome; a non-2xx would put the upstream into an untunable
// redelivery loop.
type ReceiveHandler struct {
	ingest *service.IngestService
}

// NewReceiveHandler constructs handler.
func NewReceiveHandler(ingestService *service.IngestService) *ReceiveHandler {
	return &ReceiveHandler{ingest: ingestService}
}

// Receive POST /receive/:eventType. All event types share one pipeline; the
// path segment is the discriminator.
func (h *ReceiveHandler) Receive(c *fiber.Ctx) error {
	eventType := ingest.EventType(c.Params("eventType"))

	headers := make(map[string]string)
	for key, values := range c.GetReqHeaders() {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	body := make([]byte, len(c.Body()))
	copy(body, c.Body())

	h.ingest.Receive(c.UserContext(), eventType, c.Path(), headers, body)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "OK"})
}

// Instruct GET /receive and GET /receive/:eventType. Automated upstream
// probes must never see an unhandled-route error.
func (h *ReceiveHandler) Instruct(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Use POST"})
}
