package dto

import (
	"time"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

// TicketSummary is the dashboard list row.
type TicketSummary struct {
	ID           string              `json:"id"`
	TicketNumber string              `json:"ticket_number"`
	Version      int                 `json:"version,omitempty"`
	Address      string              `json:"address,omitempty"`
	County       string              `json:"county,omitempty"`
	WorkType     string              `json:"work_type,omitempty"`
	ExpireDate   string              `json:"expire_date,omitempty"`
	CreatedDate  string              `json:"created_date,omitempty"`
	Status       domain.TicketStatus `json:"status"`
	ClientID     string              `json:"client_id,omitempty"`
	ReceivedAt   *time.Time          `json:"received_at,omitempty"`
	UpdatedAt    *time.Time          `json:"updated_at,omitempty"`
}

// ResponseView is a single utility response on a ticket.
type ResponseView struct {
	ID           string     `json:"id"`
	UtilityName  string     `json:"utility_name,omitempty"`
	UtilityType  string     `json:"utility_type,omitempty"`
	ResponseCode string     `json:"response_code"`
	Message      string     `json:"message,omitempty"`
	ResponseDate string     `json:"response_date,omitempty"`
	ReceivedAt   *time.Time `json:"received_at,omitempty"`
}

// TicketDetail is the expanded dashboard view.
type TicketDetail struct {
	TicketSummary
	Responses []ResponseView `json:"responses"`
}

// SessionResponse carries a minted dashboard token.
type SessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      string    `json:"role"`
}

// FromTicket maps a domain ticket into its list representation. The Release
// alias is folded into Open here, at the read boundary only.
func FromTicket(t *domain.Ticket) TicketSummary {
	summary := TicketSummary{
		ID:           t.DocumentID(),
		TicketNumber: t.TicketNumber,
		Version:      t.Version,
		Address:      t.Address,
		County:       t.County,
		WorkType:     t.WorkType,
		ExpireDate:   t.ExpireDate,
		CreatedDate:  t.CreatedDate,
		Status:       domain.DisplayStatus(t.Status),
		ClientID:     t.ClientID,
	}
	if !t.ReceivedAt.IsZero() {
		received := t.ReceivedAt
		summary.ReceivedAt = &received
	}
	if !t.UpdatedAt.IsZero() {
		updated := t.UpdatedAt
		summary.UpdatedAt = &updated
	}
	return summary
}

// FromResponse maps a domain response.
func FromResponse(r *domain.Response) ResponseView {
	view := ResponseView{
		ID:           r.ID,
		UtilityName:  r.UtilityName,
		UtilityType:  r.UtilityType,
		ResponseCode: r.ResponseCode,
		Message:      r.Message,
		ResponseDate: r.ResponseDate,
	}
	if !r.ReceivedAt.IsZero() {
		received := r.ReceivedAt
		view.ReceivedAt = &received
	}
	return view
}
