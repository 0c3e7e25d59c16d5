package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/locate-ticket-service/internal/aggregate"
	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/ingest"
	"github.com/spec-kit/locate-ticket-service/internal/observability"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	"github.com/spec-kit/locate-ticket-service/internal/store"
)

// IngestService composes normalizer, repository and aggregator for the
// webhook ingestion path. Every failure on this path is converted into a
// logged warning: the upstream network's redelivery behavior is not tunable,
// so a delivery is acknowledged no matter what happened while handling it.
type IngestService struct {
	normalizer      *ingest.Normalizer
	tickets         repository.TicketRepository
	dispatcher      events.Dispatcher
	logger          *zap.Logger
	metrics         *observability.Metrics
	defaultClientID string
}

// IngestDependencies bundles collaborators for the ingest service.
type IngestDependencies struct {
	Normalizer      *ingest.Normalizer
	TicketRepo      repository.TicketRepository
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
	Metrics         *observability.Metrics
	DefaultClientID string
}

// NewIngestService constructs the service.
func NewIngestService(deps IngestDependencies) *IngestService {
	return &IngestService{
		normalizer:      deps.Normalizer,
		tickets:         deps.TicketRepo,
		dispatcher:      deps.Dispatcher,
		logger:          deps.Logger,
		metrics:         deps.Metrics,
		defaultClientID: deps.DefaultClientID,
	}
}

// Receive processes one webhook delivery. It never returns an error; the
// caller acknowledges unconditionally once Receive has run.
func (s *IngestService) Receive(ctx context.Context, eventType ingest.EventType, path string, headers map[string]string, body []byte) {
	event, rejected := s.normalizer.Normalize(ctx, eventType, path, headers, body)
	if rejected != nil {
		s.metrics.RecordIngest(string(eventType), "rejected")
		s.logger.Warn("event rejected",
			zap.String("event_type", string(eventType)),
			zap.String("reason", string(rejected.Reason)),
			zap.String("detail", rejected.Detail))
		return
	}

	switch event.Type {
	case ingest.EventTicket:
		s.handleTicket(ctx, event.Ticket)
	case ingest.EventResponse:
		s.handleResponse(ctx, event.Response)
	case ingest.EventMessage:
		s.handleMessage(ctx, event.Message)
	default:
		s.handleAudit(ctx, event.Audit)
	}
}

func (s *IngestService) handleTicket(ctx context.Context, ticket *domain.Ticket) {
	if ticket.ClientID == "" {
		ticket.ClientID = s.defaultClientID
	}

	if err := s.tickets.UpsertTicket(ctx, ticket); err != nil {
		s.storeFailure(ctx, "Ticket", ticket.TicketNumber, err)
		return
	}
	s.metrics.RecordIngest("Ticket", "accepted")

	s.publish(ctx, events.EventTicketReceived, ticket.TicketNumber, events.TicketReceivedPayload{
		ClientID: ticket.ClientID,
		WorkType: ticket.WorkType,
		County:   ticket.County,
	})

	// responses may have arrived before their ticket; now that the ticket
	// document exists, clearance can be recomputed over them
	s.evaluateClearance(ctx, ticket.TicketNumber)
}

func (s *IngestService) handleResponse(ctx context.Context, response *domain.Response) {
	responseID, err := s.tickets.AppendResponse(ctx, response)
	if err != nil {
		s.storeFailure(ctx, "Response", response.TicketNumber, err)
		return
	}
	s.metrics.RecordIngest("Response", "accepted")

	s.publish(ctx, events.EventResponseReceived, response.TicketNumber, events.ResponseReceivedPayload{
		ResponseID:   responseID,
		UtilityName:  response.UtilityName,
		ResponseCode: response.ResponseCode,
	})

	s.evaluateClearance(ctx, response.TicketNumber)
}

// evaluateClearance recomputes clearance over the full response set. The
// list-then-apply sequence is not transactional; concurrent deliveries may
// each re-apply Clear, which is harmless because ApplyStatus is an idempotent
// merge on an already resolved document.
func (s *IngestService) evaluateClearance(ctx context.Context, ticketNumber string) {
	responses, err := s.tickets.ListResponses(ctx, ticketNumber)
	if err != nil {
		s.storeFailure(ctx, "Clearance", ticketNumber, err)
		return
	}

	if aggregate.Evaluate(responses) != aggregate.TransitionToClear {
		return
	}

	// Status is applied to the ticket's own document, resolved by number so a
	// re-issued ticket is targeted under its composite identity. A response
	// arriving before its ticket waits; the ticket's arrival re-evaluates.
	current, err := s.tickets.FindByTicketNumber(ctx, ticketNumber)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		s.storeFailure(ctx, "Clearance", ticketNumber, err)
		return
	}

	// The aggregator only proposes entry into Clear; a ticket already Clear
	// or manually marked Performed is left alone.
	switch current.Status {
	case domain.TicketStatusClear, domain.TicketStatusPerformed:
		return
	}

	if err := s.tickets.ApplyStatus(ctx, current.DocumentID(), domain.TicketStatusClear); err != nil {
		s.storeFailure(ctx, "Clearance", ticketNumber, err)
		return
	}

	s.publish(ctx, events.EventTicketCleared, ticketNumber, events.TicketClearedPayload{
		ResponseCount: len(responses),
	})
}

func (s *IngestService) handleMessage(ctx context.Context, msg *domain.NetworkMessage) {
	if _, err := s.tickets.AppendMessage(ctx, msg); err != nil {
		s.storeFailure(ctx, "Message", "", err)
		return
	}
	s.metrics.RecordIngest("Message", "accepted")
}

func (s *IngestService) handleAudit(ctx context.Context, audit *domain.EODAudit) {
	if _, err := s.tickets.AppendAudit(ctx, audit); err != nil {
		s.storeFailure(ctx, "EODAudit", "", err)
		return
	}
	s.metrics.RecordIngest("EODAudit", "accepted")
}

func (s *IngestService) storeFailure(ctx context.Context, eventType, ticketNumber string, err error) {
	s.metrics.RecordIngest(eventType, "store_failed")
	s.logger.Warn("store write failed on ingestion path",
		zap.String("event_type", eventType),
		zap.String("ticket_number", ticketNumber),
		zap.Error(err))
}

func (s *IngestService) publish(ctx context.Context, eventType events.EventType, ticketNumber string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		TicketNumber: ticketNumber,
		Timestamp:    time.Now(),
		Payload:      payload,
	})
}
