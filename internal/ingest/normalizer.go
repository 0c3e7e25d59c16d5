package ingest

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/store"
)

// EventType discriminates inbound webhook deliveries.
type EventType string

const (
	EventTicket   EventType = "Ticket"
	EventResponse EventType = "Response"
	EventMessage  EventType = "Message"
	EventEODAudit EventType = "EODAudit"
)

// RejectReason classifies why a delivery could not be normalized.
type RejectReason string

const (
	ReasonMalformedBody        RejectReason = "MalformedBody"
	ReasonMissingTicketNumber  RejectReason = "MissingTicketNumber"
	ReasonMissingRequiredField RejectReason = "MissingRequiredField"
)

// NormalizedEvent is a successfully parsed delivery. Exactly one of the typed
// payload fields is set, matching Type.
type NormalizedEvent struct {
	Type              EventType
	Ticket            *domain.Ticket
	Response          *domain.Response
	Message           *domain.NetworkMessage
	Audit             *domain.EODAudit
	OneCallCenterCode string
	TransmissionDate  string
}

// RejectedEvent is a normal return value, never an error: the ingestion
// contract forbids surfacing parse failures to the upstream network.
type RejectedEvent struct {
	Reason RejectReason
	Detail string
}

const logCollection = "event_logs"

// Normalizer parses inbound event envelopes and records every delivery in
// the raw event log.
type Normalizer struct {
	store      store.Store
	logger     *zap.Logger
	rawLogging bool
	now        func() time.Time
}

// NewNormalizer constructs a normalizer writing raw events to the given store.
func NewNormalizer(docs store.Store, logger *zap.Logger, rawLogging bool) *Normalizer {
	return &Normalizer{store: docs, logger: logger, rawLogging: rawLogging, now: time.Now}
}

// Normalize parses one delivery. The raw event is appended to the audit log
// regardless of acceptance; log failures are swallowed.
func (n *Normalizer) Normalize(ctx context.Context, eventType EventType, path string, headers map[string]string, body []byte) (*NormalizedEvent, *RejectedEvent) {
	n.logRawEvent(ctx, path, headers, body)

	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &RejectedEvent{Reason: ReasonMalformedBody, Detail: err.Error()}
	}

	payload := extractPayload(envelope, eventType)
	event := &NormalizedEvent{
		Type:              eventType,
		OneCallCenterCode: stringField(envelope, "OneCallCenterCode"),
		TransmissionDate:  stringField(envelope, "TransmissionDate"),
	}
	receivedAt := n.now()

	switch eventType {
	case EventTicket:
		number := stringField(payload, "TicketNumber")
		if number == "" {
			return nil, &RejectedEvent{Reason: ReasonMissingTicketNumber}
		}
		event.Ticket = &domain.Ticket{
			TicketNumber: number,
			Version:      intField(payload, "Version"),
			Address:      stringField(payload, "Address"),
			County:       stringField(payload, "County"),
			WorkType:     stringField(payload, "WorkType"),
			ExpireDate:   stringField(payload, "ExpireDate"),
			CreatedDate:  stringField(payload, "Date"),
			Status:       domain.TicketStatus(stringField(payload, "Status")),
			ReceivedAt:   receivedAt,
		}

	case EventResponse:
		number := stringField(payload, "TicketNumber")
		code := stringField(payload, "ResponseCode")
		if number == "" || code == "" {
			return nil, &RejectedEvent{Reason: ReasonMissingRequiredField}
		}
		event.Response = &domain.Response{
			TicketNumber: number,
			UtilityName:  stringField(payload, "UtilityName"),
			UtilityType:  stringField(payload, "UtilityType"),
			ResponseCode: code,
			Message:      stringField(payload, "Message"),
			ResponseDate: stringField(payload, "ResponseDate"),
			ReceivedAt:   receivedAt,
		}

	case EventMessage:
		event.Message = &domain.NetworkMessage{
			OneCallCenterCode: event.OneCallCenterCode,
			TransmissionDate:  event.TransmissionDate,
			Body:              payload,
			ReceivedAt:        receivedAt,
		}

	default:
		// EODAudit and unknown fallback types are stored verbatim.
		event.Audit = &domain.EODAudit{
			OneCallCenterCode: event.OneCallCenterCode,
			TransmissionDate:  event.TransmissionDate,
			Payload:           payload,
			ReceivedAt:        receivedAt,
		}
	}

	return event, nil
}

// extractPayload pulls the typed sub-structure out of the envelope. The
// upstream sends both nested ({"Ticket": {...}}) and flat bodies, so a flat
// body is used as-is when no sub-structure is present.
func extractPayload(envelope map[string]any, eventType EventType) map[string]any {
	if nested, ok := envelope[string(eventType)].(map[string]any); ok {
		return nested
	}
	return envelope
}

func (n *Normalizer) logRawEvent(ctx context.Context, path string, headers map[string]string, body []byte) {
	if !n.rawLogging {
		return
	}
	doc := store.Document{
		"timestamp": n.now().UTC().Format(store.TimeLayout),
		"path":      path,
		"headers":   sanitize(headers),
		"body":      string(body),
	}
	if _, err := n.store.Insert(ctx, logCollection, doc); err != nil {
		n.logger.Warn("raw event log write failed", zap.String("path", path), zap.Error(err))
	}
}

// sanitize strips nil values so the log never records fields that would later
// read back as explicit nulls.
func sanitize(headers map[string]string) map[string]any {
	clean := make(map[string]any, len(headers))
	for k, v := range headers {
		if v == "" {
			continue
		}
		clean[k] = v
	}
	return clean
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func intField(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
