package domain

import "time"

// Response is a single utility's reply to a ticket. The upstream network
// guarantees no external identity, so the ID is generated at ingest time and
// duplicates from redelivery are accepted.
type Response struct {
	ID           string
	TicketNumber string
	UtilityName  string
	UtilityType  string
	ResponseCode string
	Message      string
	ResponseDate string
	ReceivedAt   time.Time
}

// NetworkMessage is a free-text transmission from the one-call center.
type NetworkMessage struct {
	ID                string
	OneCallCenterCode string
	TransmissionDate  string
	Body              map[string]any
	ReceivedAt        time.Time
}

// EODAudit is an end-of-day audit transmission from the one-call center.
type EODAudit struct {
	ID                string
	OneCallCenterCode string
	TransmissionDate  string
	Payload           map[string]any
	ReceivedAt        time.Time
}
