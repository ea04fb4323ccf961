package models

import (
	"time"

	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
)

// TimelineKind labels a timeline entry by the event that produced it.
type TimelineKind string

const (
	TimelineSubmitted   TimelineKind = "SUBMITTED"
	TimelineResubmitted TimelineKind = "RESUBMITTED"
	TimelineApproved    TimelineKind = "APPROVED"
	TimelineRejected    TimelineKind = "REJECTED"
	TimelineSettled     TimelineKind = "SETTLED"
)

// TimelineEntry is one event in a claim's human-readable history.
// Entries are append-only; existing entries are never rewritten.
type TimelineEntry struct {
	Kind      TimelineKind `json:"kind"`
	Timestamp time.Time    `json:"timestamp"`
	Message   string       `json:"message"`
}

// Claim is a loss reported against an active policy.
//
// Invariants:
//   - ClaimAmount > 0 and never exceeds the policy's sum insured
//   - ApprovedAmount >= 0, <= ClaimAmount, <= the policy's sum insured
//   - IncidentDate is not in the future
//   - Timeline only grows; every transition appends exactly one entry
type Claim struct {
	ID             id.ClaimID      `json:"id"`
	ClaimNumber    string          `json:"claim_number"`
	PolicyID       id.PolicyID     `json:"policy_id"`
	PolicyNumber   string          `json:"policy_number"`
	ClaimAmount    float64         `json:"claim_amount"`
	ApprovedAmount float64         `json:"approved_amount"`
	Status         Status          `json:"status"`
	IncidentDate   time.Time       `json:"incident_date"`
	ReportedDate   time.Time       `json:"reported_date"`
	HandledBy      id.UserID       `json:"handled_by"`
	Timeline       []TimelineEntry `json:"timeline"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (c *Claim) appendTimeline(kind TimelineKind, message string, now time.Time) {
	c.Timeline = append(c.Timeline, TimelineEntry{Kind: kind, Timestamp: now, Message: message})
}

// CanApprove checks the transition and the approved-amount bounds.
func (c *Claim) CanApprove(approvedAmount, sumInsured float64) error {
	if err := c.checkTransition(StatusApproved); err != nil {
		return err
	}
	if approvedAmount < 0 {
		return dErrors.New(dErrors.CodeStructuralInvalid, "approved amount cannot be negative")
	}
	if approvedAmount > c.ClaimAmount {
		return dErrors.New(dErrors.CodeStructuralInvalid, "approved amount cannot exceed claim amount")
	}
	if approvedAmount > sumInsured {
		return dErrors.New(dErrors.CodeStructuralInvalid, "approved amount cannot exceed policy sum insured")
	}
	return nil
}

func (c *Claim) ApplyApprove(approvedAmount float64, now time.Time) {
	c.Status = StatusApproved
	c.ApprovedAmount = approvedAmount
	c.UpdatedAt = now
	c.appendTimeline(TimelineApproved, "Claim approved.", now)
}

// CanReject checks the IN_REVIEW -> REJECTED transition.
func (c *Claim) CanReject() error {
	return c.checkTransition(StatusRejected)
}

func (c *Claim) ApplyReject(now time.Time) {
	c.Status = StatusRejected
	c.UpdatedAt = now
	c.appendTimeline(TimelineRejected, "Claim rejected.", now)
}

// CanSettle checks the APPROVED -> SETTLED transition.
func (c *Claim) CanSettle() error {
	return c.checkTransition(StatusSettled)
}

func (c *Claim) ApplySettle(now time.Time) {
	c.Status = StatusSettled
	c.UpdatedAt = now
	c.appendTimeline(TimelineSettled, "Claim settled.", now)
}

// CanResubmit checks that the claim is still under review; only claims
// in review may be amended.
func (c *Claim) CanResubmit() error {
	if c.Status != StatusInReview {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot resubmit a %s claim", c.Status)
	}
	return nil
}

// ApplyResubmit records an amendment to a claim under review.
func (c *Claim) ApplyResubmit(claimAmount float64, now time.Time) {
	c.ClaimAmount = claimAmount
	c.UpdatedAt = now
	c.appendTimeline(TimelineResubmitted, "Claim updated and resubmitted for review.", now)
}

func (c *Claim) checkTransition(target Status) error {
	if !c.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot move a %s claim to %s", c.Status, target)
	}
	return nil
}

// NewClaim validates and constructs a claim in IN_REVIEW status with
// its initial timeline entry.
func NewClaim(claimID id.ClaimID, claimNumber string, policyID id.PolicyID, policyNumber string,
	claimAmount, sumInsured float64, incidentDate time.Time, handledBy id.UserID, now time.Time,
) (*Claim, error) {
	if claimNumber == "" {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "claim number is required")
	}
	if claimAmount <= 0 {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "claim amount must be positive")
	}
	if claimAmount > sumInsured {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "claim amount cannot exceed policy sum insured")
	}
	if incidentDate.After(now) {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "incident date cannot be in the future")
	}

	c := &Claim{
		ID:           claimID,
		ClaimNumber:  claimNumber,
		PolicyID:     policyID,
		PolicyNumber: policyNumber,
		ClaimAmount:  claimAmount,
		Status:       StatusInReview,
		IncidentDate: incidentDate,
		ReportedDate: now,
		HandledBy:    handledBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	c.appendTimeline(TimelineSubmitted, "Claim submitted for review.", now)
	return c, nil
}
