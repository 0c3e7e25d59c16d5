package events

import (
	"time"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketReceived   EventType = "ticket_received"
	EventResponseReceived EventType = "response_received"
	EventTicketCleared    EventType = "ticket_cleared"
	EventTicketToggled    EventType = "ticket_performed_toggled"
)

// Event represents a domain event emitted by the ingestion pipeline.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketNumber string      `json:"ticket_number"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// TicketReceivedPayload payload.
type TicketReceivedPayload struct {
	ClientID string `json:"client_id"`
	WorkType string `json:"work_type,omitempty"`
	County   string `json:"county,omitempty"`
}

// ResponseReceivedPayload payload.
type ResponseReceivedPayload struct {
	ResponseID   string `json:"response_id"`
	UtilityName  string `json:"utility_name,omitempty"`
	ResponseCode string `json:"response_code"`
}

// TicketClearedPayload payload.
type TicketClearedPayload struct {
	ResponseCount int `json:"response_count"`
}

// TicketToggledPayload payload.
type TicketToggledPayload struct {
	NewStatus domain.TicketStatus `json:"new_status"`
}
