package models

// Status is the claim lifecycle state.
type Status string

const (
	StatusInReview Status = "IN_REVIEW"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusSettled  Status = "SETTLED"
)

// transitions maps each status to the statuses reachable from it.
// REJECTED and SETTLED are terminal.
var transitions = map[Status][]Status{
	StatusInReview: {StatusApproved, StatusRejected},
	StatusApproved: {StatusSettled},
	StatusRejected: {},
	StatusSettled:  {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle permits moving to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}
