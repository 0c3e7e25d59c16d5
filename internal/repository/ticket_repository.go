package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/store"
)

const (
	collTickets   = "tickets"
	collResponses = "responses"
	collMessages  = "messages"
	collAudits    = "audits"
)

// TicketFilter captures read-projection list parameters.
type TicketFilter struct {
	ClientID *string
	Limit    int
}

// TicketRepository encapsulates ticket persistence over the document store.
// Every write is an idempotent merge keyed by stable identity, so redelivered
// or reordered events converge on the same state.
type TicketRepository interface {
	UpsertTicket(ctx context.Context, ticket *domain.Ticket) error
	AppendResponse(ctx context.Context, response *domain.Response) (string, error)
	ListResponses(ctx context.Context, ticketNumber string) ([]domain.Response, error)
	ApplyStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error
	TogglePerformed(ctx context.Context, ticketID string) (domain.TicketStatus, error)
	AppendMessage(ctx context.Context, msg *domain.NetworkMessage) (string, error)
	AppendAudit(ctx context.Context, audit *domain.EODAudit) (string, error)
	Get(ctx context.Context, ticketID string) (*domain.Ticket, error)
	FindByTicketNumber(ctx context.Context, ticketNumber string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, ticketID string) error
}

type ticketRepository struct {
	docs store.Store
	now  func() time.Time
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(docs store.Store) TicketRepository {
	return &ticketRepository{docs: docs, now: time.Now}
}

// UpsertTicket merge-writes the ticket keyed by its identity. Absent fields
// are stripped before the write so they never erase previously known values.
// Status is written only when the document does not exist yet: recomputed
// status must not be undone by a ticket re-transmission.
func (r *ticketRepository) UpsertTicket(ctx context.Context, ticket *domain.Ticket) error {
	id := ticket.DocumentID()

	fields := store.Document{
		"TicketNumber": ticket.TicketNumber,
		"updatedAt":    r.timestamp(),
	}
	if ticket.Version > 0 {
		fields["Version"] = ticket.Version
	}
	putIfSet(fields, "Address", ticket.Address)
	putIfSet(fields, "County", ticket.County)
	putIfSet(fields, "WorkType", ticket.WorkType)
	putIfSet(fields, "ExpireDate", ticket.ExpireDate)
	putIfSet(fields, "Date", ticket.CreatedDate)
	putIfSet(fields, "clientId", ticket.ClientID)
	if !ticket.ReceivedAt.IsZero() {
		fields["receivedAt"] = ticket.ReceivedAt.UTC().Format(store.TimeLayout)
	}

	_, err := r.docs.Get(ctx, collTickets, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		status := ticket.Status
		if status == "" {
			status = domain.TicketStatusOpen
		}
		fields["Status"] = string(status)
	case err != nil:
		return err
	}

	return r.docs.MergeWrite(ctx, collTickets, id, fields)
}

// AppendResponse stores a response without requiring the parent ticket to
// exist; out-of-order delivery attaches it by ticket number alone.
func (r *ticketRepository) AppendResponse(ctx context.Context, response *domain.Response) (string, error) {
	doc := store.Document{
		"TicketNumber": response.TicketNumber,
		"ResponseCode": response.ResponseCode,
		"receivedAt":   r.timestamp(),
	}
	putIfSet(doc, "UtilityName", response.UtilityName)
	putIfSet(doc, "UtilityType", response.UtilityType)
	putIfSet(doc, "Message", response.Message)
	putIfSet(doc, "ResponseDate", response.ResponseDate)

	return r.docs.Insert(ctx, collResponses, doc)
}

func (r *ticketRepository) ListResponses(ctx context.Context, ticketNumber string) ([]domain.Response, error) {
	docs, err := r.docs.Query(ctx, collResponses, store.Query{
		Filters: []store.Filter{{Field: "TicketNumber", Value: ticketNumber}},
		OrderBy: "receivedAt",
	})
	if err != nil {
		return nil, err
	}

	responses := make([]domain.Response, 0, len(docs))
	for _, doc := range docs {
		responses = append(responses, domain.Response{
			ID:           docString(doc, "id"),
			TicketNumber: docString(doc, "TicketNumber"),
			UtilityName:  docString(doc, "UtilityName"),
			UtilityType:  docString(doc, "UtilityType"),
			ResponseCode: docString(doc, "ResponseCode"),
			Message:      docString(doc, "Message"),
			ResponseDate: docString(doc, "ResponseDate"),
			ReceivedAt:   docTime(doc, "receivedAt"),
		})
	}
	return responses, nil
}

// ApplyStatus merge-writes only the status and update timestamp.
func (r *ticketRepository) ApplyStatus(ctx context.Context, ticketID string, status domain.TicketStatus) error {
	return r.docs.MergeWrite(ctx, collTickets, ticketID, store.Document{
		"Status":    string(status),
		"updatedAt": r.timestamp(),
	})
}

// TogglePerformed is the operator-initiated manual transition: any status
// other than Performed becomes Performed, and Performed reverts to Open.
func (r *ticketRepository) TogglePerformed(ctx context.Context, ticketID string) (domain.TicketStatus, error) {
	doc, err := r.docs.Get(ctx, collTickets, ticketID)
	if err != nil {
		return "", err
	}

	next := domain.TicketStatusPerformed
	if domain.TicketStatus(docString(doc, "Status")) == domain.TicketStatusPerformed {
		next = domain.TicketStatusOpen
	}
	if err := r.ApplyStatus(ctx, ticketID, next); err != nil {
		return "", err
	}
	return next, nil
}

func (r *ticketRepository) AppendMessage(ctx context.Context, msg *domain.NetworkMessage) (string, error) {
	return r.docs.Insert(ctx, collMessages, provenanceDoc(msg.OneCallCenterCode, msg.TransmissionDate, msg.Body, r.timestamp()))
}

func (r *ticketRepository) AppendAudit(ctx context.Context, audit *domain.EODAudit) (string, error) {
	return r.docs.Insert(ctx, collAudits, provenanceDoc(audit.OneCallCenterCode, audit.TransmissionDate, audit.Payload, r.timestamp()))
}

func (r *ticketRepository) Get(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	doc, err := r.docs.Get(ctx, collTickets, ticketID)
	if err != nil {
		return nil, err
	}
	ticket := ticketFromDoc(doc)
	return &ticket, nil
}

// FindByTicketNumber resolves a ticket by its upstream number. A re-issued
// ticket shares its number across versioned documents; the highest version is
// the current one.
func (r *ticketRepository) FindByTicketNumber(ctx context.Context, ticketNumber string) (*domain.Ticket, error) {
	docs, err := r.docs.Query(ctx, collTickets, store.Query{
		Filters: []store.Filter{{Field: "TicketNumber", Value: ticketNumber}},
	})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, store.ErrNotFound
	}

	current := ticketFromDoc(docs[0])
	for _, doc := range docs[1:] {
		candidate := ticketFromDoc(doc)
		if candidate.Version > current.Version {
			current = candidate
		}
	}
	return &current, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	q := store.Query{
		OrderBy:    "updatedAt",
		Descending: true,
		Limit:      limit,
	}
	if filter.ClientID != nil {
		q.Filters = append(q.Filters, store.Filter{Field: "clientId", Value: *filter.ClientID})
	}

	docs, err := r.docs.Query(ctx, collTickets, q)
	if err != nil {
		return nil, err
	}

	tickets := make([]domain.Ticket, 0, len(docs))
	for _, doc := range docs {
		tickets = append(tickets, ticketFromDoc(doc))
	}
	return tickets, nil
}

func (r *ticketRepository) Delete(ctx context.Context, ticketID string) error {
	return r.docs.Delete(ctx, collTickets, ticketID)
}

func (r *ticketRepository) timestamp() string {
	return r.now().UTC().Format(store.TimeLayout)
}

func ticketFromDoc(doc store.Document) domain.Ticket {
	return domain.Ticket{
		TicketNumber: docString(doc, "TicketNumber"),
		Version:      docInt(doc, "Version"),
		Address:      docString(doc, "Address"),
		County:       docString(doc, "County"),
		WorkType:     docString(doc, "WorkType"),
		ExpireDate:   docString(doc, "ExpireDate"),
		CreatedDate:  docString(doc, "Date"),
		Status:       domain.TicketStatus(docString(doc, "Status")),
		ClientID:     docString(doc, "clientId"),
		ReceivedAt:   docTime(doc, "receivedAt"),
		UpdatedAt:    docTime(doc, "updatedAt"),
	}
}

func provenanceDoc(centerCode, transmissionDate string, payload map[string]any, receivedAt string) store.Document {
	doc := store.Document{"receivedAt": receivedAt}
	putIfSet(doc, "OneCallCenterCode", centerCode)
	putIfSet(doc, "TransmissionDate", transmissionDate)
	if len(payload) > 0 {
		doc["payload"] = payload
	}
	return doc
}

func putIfSet(doc store.Document, key, value string) {
	if value != "" {
		doc[key] = value
	}
}

func docString(doc store.Document, key string) string {
	if s, ok := doc[key].(string); ok {
		return s
	}
	return ""
}

func docInt(doc store.Document, key string) int {
	switch v := doc[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func docTime(doc store.Document, key string) time.Time {
	s := docString(doc, key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
