package ir

import "strings"

// Status is the scenario status as reported by the execution engine.
type Status string

// Scenario statuses. These mirror the Cucumber status vocabulary.
const (
	StatusPassed    Status = "passed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusPending   Status = "pending"
	StatusUndefined Status = "undefined"
	StatusAmbiguous Status = "ambiguous"
	StatusUnknown   Status = "unknown"
)

// Outcomes accepted by the test-management service.
const (
	OutcomePassed       = "Passed"
	OutcomeFailed       = "Failed"
	OutcomeNotExecuted  = "NotExecuted"
	OutcomeBlocked      = "Blocked"
	OutcomeInconclusive = "Inconclusive"
)

// ParseStatus normalizes a status string from any casing ("PASSED", "Passed", "passed").
// Unrecognized values map to StatusUnknown.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPassed, StatusFailed, StatusSkipped, StatusPending, StatusUndefined, StatusAmbiguous:
		return st
	default:
		return StatusUnknown
	}
}

// Outcome maps a scenario status to the service outcome recorded in the store.
func (s Status) Outcome() string {
	switch s {
	case StatusPassed:
		return OutcomePassed
	case StatusFailed:
		return OutcomeFailed
	case StatusSkipped, StatusPending:
		return OutcomeNotExecuted
	case StatusUndefined, StatusAmbiguous:
		return OutcomeBlocked
	default:
		return OutcomeInconclusive
	}
}
