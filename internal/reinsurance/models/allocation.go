package models

import (
	"time"

	id "cedent/pkg/domain"
)

// AllocationLine is one treaty's share of a policy's risk.
type AllocationLine struct {
	ReinsurerID         id.ReinsurerID `json:"reinsurer_id"`
	TreatyID            id.TreatyID    `json:"treaty_id"`
	AllocatedAmount     float64        `json:"allocated_amount"`
	AllocatedPercentage float64        `json:"allocated_percentage"`
}

// RiskAllocation records how a policy's sum insured was split between
// the cedent and its reinsurers. At most one exists per policy and it is
// never mutated after creation.
type RiskAllocation struct {
	ID             id.AllocationID  `json:"id"`
	PolicyID       id.PolicyID      `json:"policy_id"`
	Lines          []AllocationLine `json:"lines"`
	RetainedAmount float64          `json:"retained_amount"`
	CalculatedBy   id.UserID        `json:"calculated_by"`
	CalculatedAt   time.Time        `json:"calculated_at"`
}

// CededAmount sums the allocated amounts across all lines.
func (a *RiskAllocation) CededAmount() float64 {
	var total float64
	for _, line := range a.Lines {
		total += line.AllocatedAmount
	}
	return total
}

// ProposedLine is an allocation line submitted for validation. Only the
// treaty reference and amount matter; the validator resolves the rest.
type ProposedLine struct {
	TreatyID        id.TreatyID `json:"treaty_id"`
	AllocatedAmount float64     `json:"allocated_amount"`
}

// ValidationTotals carries the derived figures returned with every
// verdict, valid or not.
type ValidationTotals struct {
	SumInsured      float64 `json:"sum_insured"`
	RetentionLimit  float64 `json:"retention_limit"`
	CededAmount     float64 `json:"ceded_amount"`
	RetainedAmount  float64 `json:"retained_amount"`
	CedableCapacity float64 `json:"cedable_capacity"`
}

// ValidationResult is the validator's verdict on a proposed allocation.
// Violations accumulate; a single bad line never hides the others.
type ValidationResult struct {
	Valid      bool             `json:"valid"`
	Violations []string         `json:"violations"`
	Totals     ValidationTotals `json:"totals"`
	Timestamp  time.Time        `json:"timestamp"`
}

// ExposureLine is the per-treaty breakdown in an exposure summary.
type ExposureLine struct {
	Reinsurer           string  `json:"reinsurer"`
	Treaty              string  `json:"treaty"`
	AllocatedAmount     float64 `json:"allocated_amount"`
	AllocatedPercentage float64 `json:"allocated_percentage"`
}

// ExposureSummary is the retained/ceded breakdown for one policy.
type ExposureSummary struct {
	PolicyID           id.PolicyID    `json:"policy_id"`
	PolicyNumber       string         `json:"policy_number"`
	TotalExposure      float64        `json:"total_exposure"`
	RetainedAmount     float64        `json:"retained_amount"`
	RetainedPercentage float64        `json:"retained_percentage"`
	CededAmount        float64        `json:"ceded_amount"`
	CededPercentage    float64        `json:"ceded_percentage"`
	Allocations        []ExposureLine `json:"allocations"`
	CalculatedAt       time.Time      `json:"calculated_at"`
}

// TotalExposure aggregates the book of active policies.
type TotalExposure struct {
	ActivePolicies int       `json:"active_policies"`
	TotalExposure  float64   `json:"total_exposure"`
	CalculatedAt   time.Time `json:"calculated_at"`
}
