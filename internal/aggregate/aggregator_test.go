package aggregate

import (
	"testing"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

func responsesWithCodes(codes ...string) []domain.Response {
	out := make([]domain.Response, 0, len(codes))
	for _, code := range codes {
		out = append(out, domain.Response{TicketNumber: "T-1", ResponseCode: code})
	}
	return out
}

func TestEvaluateAllClearCodes(t *testing.T) {
	if got := Evaluate(responsesWithCodes("1", "4")); got != TransitionToClear {
		t.Errorf("codes 1,4: expected TransitionToClear, got %v", got)
	}
	if got := Evaluate(responsesWithCodes("1", "4", "5")); got != TransitionToClear {
		t.Errorf("codes 1,4,5: expected TransitionToClear, got %v", got)
	}
	if got := Evaluate(responsesWithCodes("5")); got != TransitionToClear {
		t.Errorf("single code 5: expected TransitionToClear, got %v", got)
	}
}

func TestEvaluateConflictingCode(t *testing.T) {
	if got := Evaluate(responsesWithCodes("1", "2")); got != NoChange {
		t.Errorf("codes 1,2: expected NoChange, got %v", got)
	}
	if got := Evaluate(responsesWithCodes("2")); got != NoChange {
		t.Errorf("single code 2: expected NoChange, got %v", got)
	}
}

func TestEvaluateEmptySet(t *testing.T) {
	if got := Evaluate(nil); got != NoChange {
		t.Errorf("empty set: expected NoChange, got %v", got)
	}
}

func TestEvaluateOrderIndependent(t *testing.T) {
	permutations := [][]string{
		{"1", "4", "5"},
		{"1", "5", "4"},
		{"4", "1", "5"},
		{"4", "5", "1"},
		{"5", "1", "4"},
		{"5", "4", "1"},
	}
	for _, codes := range permutations {
		if got := Evaluate(responsesWithCodes(codes...)); got != TransitionToClear {
			t.Errorf("permutation %v: expected TransitionToClear, got %v", codes, got)
		}
	}
}

func TestEvaluateDuplicatesDoNotChangeDecision(t *testing.T) {
	if got := Evaluate(responsesWithCodes("1", "1", "1", "4")); got != TransitionToClear {
		t.Errorf("duplicated clear codes: expected TransitionToClear, got %v", got)
	}
	if got := Evaluate(responsesWithCodes("1", "2", "2")); got != NoChange {
		t.Errorf("duplicated conflict codes: expected NoChange, got %v", got)
	}
}

func TestIsClearCode(t *testing.T) {
	for _, code := range []string{"1", "4", "5"} {
		if !IsClearCode(code) {
			t.Errorf("code %s should be clear", code)
		}
	}
	for _, code := range []string{"2", "3", "", "10"} {
		if IsClearCode(code) {
			t.Errorf("code %q should not be clear", code)
		}
	}
}
