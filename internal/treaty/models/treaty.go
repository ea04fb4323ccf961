package models

import (
	"strings"
	"time"

	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
)

// Type distinguishes the two supported treaty forms.
type Type string

const (
	// TypeQuotaShare cedes a fixed percentage of every policy's sum insured.
	TypeQuotaShare Type = "QUOTA_SHARE"
	// TypeSurplus cedes only the amount exceeding a retention limit,
	// capped at the treaty limit.
	TypeSurplus Type = "SURPLUS"
)

// Status of a treaty. EXPIRED is derived from the effective range; the
// stored value is refreshed lazily on read paths.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusExpired Status = "EXPIRED"
)

// Treaty is a reinsurance agreement with one reinsurer.
//
// Invariants:
//   - QUOTA_SHARE requires SharePercentage in (0, 100]
//   - SURPLUS requires RetentionLimit >= 0
//   - TreatyLimit > 0 (maximum cedable amount)
//   - EffectiveFrom < EffectiveTo
type Treaty struct {
	ID              id.TreatyID         `json:"id"`
	Name            string              `json:"name"`
	Type            Type                `json:"type"`
	ReinsurerID     id.ReinsurerID      `json:"reinsurer_id"`
	SharePercentage float64             `json:"share_percentage,omitempty"`
	RetentionLimit  float64             `json:"retention_limit,omitempty"`
	TreatyLimit     float64             `json:"treaty_limit"`
	ApplicableLOBs  []id.LineOfBusiness `json:"applicable_lobs"`
	EffectiveFrom   time.Time           `json:"effective_from"`
	EffectiveTo     time.Time           `json:"effective_to"`
	Status          Status              `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// EffectiveStatus derives the treaty status at a point in time. The
// stored Status field lags until a read refreshes it.
func (t *Treaty) EffectiveStatus(now time.Time) Status {
	if t.EffectiveTo.Before(now) {
		return StatusExpired
	}
	return t.Status
}

// Covers reports whether the treaty applies to the line of business and
// is in force at the given time.
func (t *Treaty) Covers(lob id.LineOfBusiness, asOf time.Time) bool {
	if t.EffectiveStatus(asOf) != StatusActive {
		return false
	}
	if t.EffectiveTo.Before(asOf) {
		return false
	}
	for _, applicable := range t.ApplicableLOBs {
		if applicable == lob {
			return true
		}
	}
	return false
}

// NewTreaty validates and constructs an ACTIVE treaty.
func NewTreaty(treatyID id.TreatyID, name string, treatyType Type, reinsurerID id.ReinsurerID,
	sharePercentage, retentionLimit, treatyLimit float64,
	applicableLOBs []id.LineOfBusiness, effectiveFrom, effectiveTo time.Time, now time.Time,
) (*Treaty, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "treaty name is required")
	}
	if reinsurerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "treaty reinsurer is required")
	}
	if treatyLimit <= 0 {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "treaty limit must be > 0")
	}
	if len(applicableLOBs) == 0 {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "at least one applicable line of business is required")
	}
	for _, lob := range applicableLOBs {
		if !lob.Valid() {
			return nil, dErrors.Newf(dErrors.CodeStructuralInvalid, "invalid line of business %q", lob)
		}
	}
	if !effectiveFrom.Before(effectiveTo) {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "effective range is inverted")
	}

	switch treatyType {
	case TypeQuotaShare:
		if sharePercentage <= 0 || sharePercentage > 100 {
			return nil, dErrors.New(dErrors.CodeStructuralInvalid, "quota share treaty requires share percentage in (0, 100]")
		}
	case TypeSurplus:
		if retentionLimit < 0 {
			return nil, dErrors.New(dErrors.CodeStructuralInvalid, "surplus treaty retention limit cannot be negative")
		}
	default:
		return nil, dErrors.Newf(dErrors.CodeStructuralInvalid, "unknown treaty type %q", treatyType)
	}

	return &Treaty{
		ID:              treatyID,
		Name:            name,
		Type:            treatyType,
		ReinsurerID:     reinsurerID,
		SharePercentage: sharePercentage,
		RetentionLimit:  retentionLimit,
		TreatyLimit:     treatyLimit,
		ApplicableLOBs:  applicableLOBs,
		EffectiveFrom:   effectiveFrom,
		EffectiveTo:     effectiveTo,
		Status:          StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
