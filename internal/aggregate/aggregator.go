// Package aggregate computes ticket clearance from the full response set.
// It is a pure function over responses so the result is independent of
// delivery order and of storage.
package aggregate

import "github.com/spec-kit/locate-ticket-service/internal/domain"

// Decision is the outcome of evaluating a ticket's responses.
type Decision int

const (
	// NoChange leaves the ticket's status as is.
	NoChange Decision = iota
	// TransitionToClear proposes moving the ticket into Clear.
	TransitionToClear
)

// clearCodes are the one-call network's no-conflict response codes:
// 1 Marked, 4 Clear/No Facilities, 5 No Conflict.
var clearCodes = map[string]struct{}{
	"1": {},
	"4": {},
	"5": {},
}

// Evaluate returns TransitionToClear when the response set is non-empty and
// every recorded code is a clear code. It only ever proposes entry into
// Clear; moving out of Clear or Performed is not in its authority.
func Evaluate(responses []domain.Response) Decision {
	if len(responses) == 0 {
		return NoChange
	}
	for _, r := range responses {
		if _, ok := clearCodes[r.ResponseCode]; !ok {
			return NoChange
		}
	}
	return TransitionToClear
}

// IsClearCode reports whether a single response code counts as cleared.
func IsClearCode(code string) bool {
	_, ok := clearCodes[code]
	return ok
}
