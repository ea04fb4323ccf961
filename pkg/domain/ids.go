// Package domain defines the typed identifiers shared across the engine.
// Wrapping uuid.UUID in distinct types keeps policy, treaty and claim
// references from being swapped accidentally at call sites.
package domain

import "github.com/google/uuid"

type (
	// PolicyID identifies a policy record.
	PolicyID uuid.UUID
	// TreatyID identifies a reinsurance treaty.
	TreatyID uuid.UUID
	// ReinsurerID identifies a reinsurer.
	ReinsurerID uuid.UUID
	// AllocationID identifies a persisted risk allocation.
	AllocationID uuid.UUID
	// ClaimID identifies a claim.
	ClaimID uuid.UUID
	// UserID identifies an acting user (underwriter, adjuster, admin).
	UserID uuid.UUID
)

func (id PolicyID) String() string     { return uuid.UUID(id).String() }
func (id TreatyID) String() string     { return uuid.UUID(id).String() }
func (id ReinsurerID) String() string  { return uuid.UUID(id).String() }
func (id AllocationID) String() string { return uuid.UUID(id).String() }
func (id ClaimID) String() string      { return uuid.UUID(id).String() }
func (id UserID) String() string       { return uuid.UUID(id).String() }

func (id PolicyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id TreatyID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id ReinsurerID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id AllocationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ClaimID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

// MarshalText/UnmarshalText keep the wrapped UUIDs rendering as canonical
// strings in JSON rather than byte arrays.

func (id PolicyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id TreatyID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id ReinsurerID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id AllocationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ClaimID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id UserID) MarshalText() ([]byte, error)       { return []byte(id.String()), nil }

func (id *PolicyID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = PolicyID(u)
	return err
}

func (id *TreatyID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = TreatyID(u)
	return err
}

func (id *ReinsurerID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ReinsurerID(u)
	return err
}

func (id *AllocationID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = AllocationID(u)
	return err
}

func (id *ClaimID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = ClaimID(u)
	return err
}

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	*id = UserID(u)
	return err
}

// ParsePolicyID parses a canonical UUID string into a PolicyID.
func ParsePolicyID(s string) (PolicyID, error) {
	u, err := uuid.Parse(s)
	return PolicyID(u), err
}

// ParseTreatyID parses a canonical UUID string into a TreatyID.
func ParseTreatyID(s string) (TreatyID, error) {
	u, err := uuid.Parse(s)
	return TreatyID(u), err
}

// ParseAllocationID parses a canonical UUID string into an AllocationID.
func ParseAllocationID(s string) (AllocationID, error) {
	u, err := uuid.Parse(s)
	return AllocationID(u), err
}

// ParseClaimID parses a canonical UUID string into a ClaimID.
func ParseClaimID(s string) (ClaimID, error) {
	u, err := uuid.Parse(s)
	return ClaimID(u), err
}

// ParseReinsurerID parses a canonical UUID string into a ReinsurerID.
func ParseReinsurerID(s string) (ReinsurerID, error) {
	u, err := uuid.Parse(s)
	return ReinsurerID(u), err
}

// ParseUserID parses a canonical UUID string into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	return UserID(u), err
}
