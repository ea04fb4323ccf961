package models

import (
	"strings"
	"time"

	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
)

// InsuredType distinguishes personal from corporate business.
type InsuredType string

const (
	InsuredIndividual InsuredType = "INDIVIDUAL"
	InsuredCorporate  InsuredType = "CORPORATE"
)

// Policy is the underwritten contract the engine allocates risk for.
//
// Invariants:
//   - SumInsured >= 0, Premium >= 0
//   - 0 <= RetentionLimit <= SumInsured
//   - EffectiveFrom < EffectiveTo
//   - Status changes only through the Can*/Apply* transition pairs
//   - Policies are never hard-deleted; REJECTED is the terminal
//     negative outcome
type Policy struct {
	ID              id.PolicyID       `json:"id"`
	PolicyNumber    string            `json:"policy_number"`
	InsuredName     string            `json:"insured_name"`
	InsuredType     InsuredType       `json:"insured_type"`
	LineOfBusiness  id.LineOfBusiness `json:"line_of_business"`
	SumInsured      float64           `json:"sum_insured"`
	Premium         float64           `json:"premium"`
	RetentionLimit  float64           `json:"retention_limit"`
	Status          Status            `json:"status"`
	EffectiveFrom   time.Time         `json:"effective_from"`
	EffectiveTo     time.Time         `json:"effective_to"`
	CreatedBy       id.UserID         `json:"created_by"`
	ApprovedBy      id.UserID         `json:"approved_by,omitzero"`
	ApprovedAt      time.Time         `json:"approved_at,omitzero"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

func (p *Policy) IsActive() bool {
	return p.Status == StatusActive
}

// CanSubmit checks the DRAFT -> SUBMITTED transition.
func (p *Policy) CanSubmit() error {
	return p.checkTransition(StatusSubmitted)
}

func (p *Policy) ApplySubmit(now time.Time) {
	p.Status = StatusSubmitted
	p.UpdatedAt = now
}

// CanStartReview checks the SUBMITTED -> UNDERWRITING_REVIEW transition.
func (p *Policy) CanStartReview() error {
	if p.Status != StatusSubmitted {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot start review of a %s policy", p.Status)
	}
	return nil
}

func (p *Policy) ApplyStartReview(now time.Time) {
	p.Status = StatusUnderwritingReview
	p.UpdatedAt = now
}

// CanApprove checks that the policy is in a pre-approval state.
func (p *Policy) CanApprove() error {
	return p.checkTransition(StatusApproved)
}

// ApplyApprove records the underwriting decision without putting the
// policy on risk; activation is a separate transition.
func (p *Policy) ApplyApprove(approver id.UserID, now time.Time) {
	p.Status = StatusApproved
	p.ApprovedBy = approver
	p.ApprovedAt = now
	p.UpdatedAt = now
}

// CanReject checks that the policy is still rejectable (pre-approval).
func (p *Policy) CanReject() error {
	return p.checkTransition(StatusRejected)
}

// ApplyReject terminates the policy lifecycle.
func (p *Policy) ApplyReject(reason string, now time.Time) {
	p.Status = StatusRejected
	p.RejectionReason = reason
	p.UpdatedAt = now
}

// CanActivate checks the APPROVED -> ACTIVE transition.
func (p *Policy) CanActivate() error {
	return p.checkTransition(StatusActive)
}

// ApplyActivate puts the policy on risk. The caller triggers risk
// allocation afterwards.
func (p *Policy) ApplyActivate(now time.Time) {
	p.Status = StatusActive
	p.UpdatedAt = now
}

func (p *Policy) checkTransition(target Status) error {
	if !p.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot move a %s policy to %s", p.Status, target)
	}
	return nil
}

// NewPolicy validates and constructs a policy in DRAFT status.
func NewPolicy(policyID id.PolicyID, policyNumber, insuredName string, insuredType InsuredType,
	lob id.LineOfBusiness, sumInsured, premium, retentionLimit float64,
	effectiveFrom, effectiveTo time.Time, createdBy id.UserID, now time.Time,
) (*Policy, error) {
	insuredName = strings.TrimSpace(insuredName)
	if policyNumber == "" {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "policy number is required")
	}
	if insuredName == "" {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "insured name is required")
	}
	if insuredType != InsuredIndividual && insuredType != InsuredCorporate {
		return nil, dErrors.Newf(dErrors.CodeStructuralInvalid, "invalid insured type %q", insuredType)
	}
	if !lob.Valid() {
		return nil, dErrors.Newf(dErrors.CodeStructuralInvalid, "invalid line of business %q", lob)
	}
	if sumInsured < 0 {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "sum insured cannot be negative")
	}
	if premium < 0 {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "premium cannot be negative")
	}
	if retentionLimit < 0 {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "retention limit cannot be negative")
	}
	if retentionLimit > sumInsured {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "retention limit cannot exceed sum insured")
	}
	if !effectiveFrom.Before(effectiveTo) {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "effective range is inverted")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "policy creator is required")
	}

	return &Policy{
		ID:             policyID,
		PolicyNumber:   policyNumber,
		InsuredName:    insuredName,
		InsuredType:    insuredType,
		LineOfBusiness: lob,
		SumInsured:     sumInsured,
		Premium:        premium,
		RetentionLimit: retentionLimit,
		Status:         StatusDraft,
		EffectiveFrom:  effectiveFrom,
		EffectiveTo:    effectiveTo,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}
