package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for locate tickets. The values
// match what the one-call network transmits; "Release" is an upstream alias
// of "Open" and is preserved as-is in storage.
type TicketStatus string

const (
	TicketStatusOpen      TicketStatus = "Open"
	TicketStatusClear     TicketStatus = "Clear"
	TicketStatusPerformed TicketStatus = "Performed"
	TicketStatusRelease   TicketStatus = "Release"
)

// DisplayStatus normalizes upstream aliases at the read boundary.
func DisplayStatus(s TicketStatus) TicketStatus {
	if s == TicketStatusRelease {
		return TicketStatusOpen
	}
	return s
}

// Ticket is the aggregate for excavation locate requests.
type Ticket struct {
	TicketNumber string
	Version      int
	Address      string
	County       string
	WorkType     string
	ExpireDate   string
	CreatedDate  string
	Status       TicketStatus
	ClientID     string
	ReceivedAt   time.Time
	UpdatedAt    time.Time
}

// DocumentID returns the storage identity. Re-transmissions carrying a
// version form a composite identity so re-issued tickets do not collide.
func (t *Ticket) DocumentID() string {
	if t.Version > 0 {
		return fmt.Sprintf("%s_v%d", t.TicketNumber, t.Version)
	}
	return t.TicketNumber
}
