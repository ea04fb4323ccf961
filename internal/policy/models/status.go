package models

// Status is the lifecycle state of a policy.
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusSubmitted          Status = "SUBMITTED"
	StatusUnderwritingReview Status = "UNDERWRITING_REVIEW"
	StatusApproved           Status = "APPROVED"
	StatusActive             Status = "ACTIVE"
	StatusRejected           Status = "REJECTED"
)

// transitions is the legal edge set of the policy state machine.
// Approval and activation are distinct steps: APPROVED marks the
// underwriting decision, ACTIVE puts the policy on risk.
var transitions = map[Status][]Status{
	StatusDraft:              {StatusSubmitted, StatusApproved, StatusRejected},
	StatusSubmitted:          {StatusUnderwritingReview, StatusApproved, StatusRejected},
	StatusUnderwritingReview: {StatusApproved, StatusRejected},
	StatusApproved:           {StatusActive},
	StatusActive:             {},
	StatusRejected:           {},
}

// CanTransitionTo reports whether moving from s to target is legal.
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
