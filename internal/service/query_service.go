package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
)

// QueryService is the read projection consumed by the dashboard. It has no
// part in ingestion correctness; its only write access is the administrative
// delete and the manual Performed toggle.
type QueryService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// NewQueryService constructs the service.
func NewQueryService(tickets repository.TicketRepository, dispatcher events.Dispatcher) *QueryService {
	return &QueryService{tickets: tickets, dispatcher: dispatcher}
}

// ListTickets returns tickets ordered by last update, newest first. Callers
// with the client role are scoped to their own tenant.
func (s *QueryService) ListTickets(ctx context.Context, principal domain.APIKey, limit int) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{Limit: limit}
	if principal.Role == domain.RoleClient && principal.ClientID != "" {
		clientID := principal.ClientID
		filter.ClientID = &clientID
	}
	return s.tickets.List(ctx, filter)
}

// GetTicket fetches a single ticket by its document identity.
func (s *QueryService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	return s.tickets.Get(ctx, ticketID)
}

// ListResponses returns the recorded utility responses for a ticket.
func (s *QueryService) ListResponses(ctx context.Context, ticketNumber string) ([]domain.Response, error) {
	return s.tickets.ListResponses(ctx, ticketNumber)
}

// TogglePerformed flips a ticket between Performed and Open. This is the only
// caller-supplied status transition and bypasses the aggregator.
func (s *QueryService) TogglePerformed(ctx context.Context, ticketID string) (domain.TicketStatus, error) {
	status, err := s.tickets.TogglePerformed(ctx, ticketID)
	if err != nil {
		return "", err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:           uuid.NewString(),
			Type:         events.EventTicketToggled,
			TicketNumber: ticketID,
			Timestamp:    time.Now(),
			Payload:      events.TicketToggledPayload{NewStatus: status},
		})
	}
	return status, nil
}

// DeleteTicket is the admin-only hard delete.
func (s *QueryService) DeleteTicket(ctx context.Context, ticketID string) error {
	return s.tickets.Delete(ctx, ticketID)
}
