package domain

import "time"

// ActivityOutcome records how an authorization-relevant event ended.
type ActivityOutcome string

const (
	OutcomeAllowed ActivityOutcome = "allowed"
	OutcomeDenied  ActivityOutcome = "denied"
	OutcomeError   ActivityOutcome = "error"
)

// ActivityEntry is one record in the append-only audit log. Entries are
// written for every authorization decision and every data mutation.
type ActivityEntry struct {
	Time       time.Time       `json:"time"`
	ActorID    string          `json:"actor_id"`
	ActorEmail string          `json:"actor_email"`
	Action     Action          `json:"action"`
	TargetKind EntityKind      `json:"target_kind,omitempty"`
	TargetID   string          `json:"target_id,omitempty"`
	Outcome    ActivityOutcome `json:"outcome"`
	Reason     string          `json:"reason,omitempty"`
}
