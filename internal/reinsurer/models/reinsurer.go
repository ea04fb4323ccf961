package models

import (
	"net/mail"
	"strings"
	"time"

	id "cedent/pkg/domain"
	dErrors "cedent/pkg/domain-errors"
)

// Rating is the credit rating of a reinsurer.
type Rating string

const (
	RatingAAA Rating = "AAA"
	RatingAA  Rating = "AA"
	RatingA   Rating = "A"
	RatingBBB Rating = "BBB"
)

func (r Rating) Valid() bool {
	switch r {
	case RatingAAA, RatingAA, RatingA, RatingBBB:
		return true
	}
	return false
}

// Status is the single lifecycle state of a reinsurer. RETIRED replaces
// the separate deleted flag so active-but-deleted is unrepresentable.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusRetired  Status = "RETIRED"
)

// Reinsurer is a counterparty that assumes ceded risk under treaties.
//
// Invariants:
//   - Code is non-empty, uppercase, unique across reinsurers
//   - Rating is one of AAA/AA/A/BBB
//   - A RETIRED reinsurer never returns to ACTIVE
type Reinsurer struct {
	ID           id.ReinsurerID `json:"id"`
	Name         string         `json:"name"`
	Code         string         `json:"code"`
	Country      string         `json:"country"`
	Rating       Rating         `json:"rating"`
	ContactEmail string         `json:"contact_email"`
	Status       Status         `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (r *Reinsurer) IsActive() bool {
	return r.Status == StatusActive
}

// CanRetire checks whether the reinsurer can be soft-deleted.
func (r *Reinsurer) CanRetire() error {
	if r.Status == StatusRetired {
		return dErrors.New(dErrors.CodeInvalidTransition, "reinsurer is already retired")
	}
	return nil
}

// ApplyRetire transitions the reinsurer to RETIRED.
func (r *Reinsurer) ApplyRetire(now time.Time) {
	r.Status = StatusRetired
	r.UpdatedAt = now
}

// NewReinsurer validates and constructs a reinsurer in ACTIVE status.
func NewReinsurer(reinsurerID id.ReinsurerID, name, code, country string, rating Rating, contactEmail string, now time.Time) (*Reinsurer, error) {
	name = strings.TrimSpace(name)
	code = strings.ToUpper(strings.TrimSpace(code))
	country = strings.TrimSpace(country)

	if name == "" {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "reinsurer name is required")
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "reinsurer code is required")
	}
	if country == "" {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "reinsurer country is required")
	}
	if !rating.Valid() {
		return nil, dErrors.Newf(dErrors.CodeStructuralInvalid, "invalid rating %q", rating)
	}
	if _, err := mail.ParseAddress(contactEmail); err != nil {
		return nil, dErrors.New(dErrors.CodeStructuralInvalid, "invalid contact email")
	}

	return &Reinsurer{
		ID:           reinsurerID,
		Name:         name,
		Code:         code,
		Country:      country,
		Rating:       rating,
		ContactEmail: strings.ToLower(contactEmail),
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}
