package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/api/dto"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
	"github.com/spec-kit/locate-ticket-service/internal/service"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

// TicketsHandler serves the dashboard read/admin surface.
type TicketsHandler struct {
	query *service.QueryService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(queryService *service.QueryService) *TicketsHandler {
	return &TicketsHandler{query: queryService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		return err
	}
	tickets, err := h.query.ListTickets(c.UserContext(), *principal, limit)
	if err != nil {
		return apperrors.MapError(err)
	}

	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.query.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}

	responses, err := h.query.ListResponses(c.UserContext(), ticket.TicketNumber)
	if err != nil {
		return apperrors.MapError(err)
	}

	detail := dto.TicketDetail{
		TicketSummary: dto.FromTicket(ticket),
		Responses:     make([]dto.ResponseView, 0, len(responses)),
	}
	for i := range responses {
		detail.Responses = append(detail.Responses, dto.FromResponse(&responses[i]))
	}
	return c.JSON(fiber.Map{"data": detail})
}

// ListResponses GET /api/tickets/:id/responses.
func (h *TicketsHandler) ListResponses(c *fiber.Ctx) error {
	responses, err := h.query.ListResponses(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}

	items := make([]dto.ResponseView, 0, len(responses))
	for i := range responses {
		items = append(items, dto.FromResponse(&responses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// TogglePerformed POST /api/tickets/:id/performed.
func (h *TicketsHandler) TogglePerformed(c *fiber.Ctx) error {
	status, err := h.query.TogglePerformed(c.UserContext(), c.Params("id"))
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": status}})
}

// DeleteTicket DELETE /api/tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.query.DeleteTicket(c.UserContext(), c.Params("id")); err != nil {
		return apperrors.MapError(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseLimit(val string) (int, error) {
	if val == "" {
		return 100, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return 0, apperrors.NewValidationError("limit must be a positive integer", map[string]any{"limit": val})
	}
	return parsed, nil
}
