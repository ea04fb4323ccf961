// Package audit defines the audit event model and the Store contract.
// The engine emits before/after snapshots of every mutating operation;
// storage and delivery are owned by the sinks, not by the engine.
package audit

import (
	"context"
	"time"

	id "cedent/pkg/domain"
)

// EntityType names the aggregate an audit event refers to.
type EntityType string

const (
	EntityPolicy     EntityType = "POLICY"
	EntityClaim      EntityType = "CLAIM"
	EntityTreaty     EntityType = "TREATY"
	EntityReinsurer  EntityType = "REINSURER"
	EntityAllocation EntityType = "ALLOCATION"
)

// Action names what was done to the entity.
type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionSubmit   Action = "SUBMIT"
	ActionApprove  Action = "APPROVE"
	ActionReject   Action = "REJECT"
	ActionActivate Action = "ACTIVATE"
	ActionSettle   Action = "SETTLE"
	ActionAllocate Action = "ALLOCATE"
	ActionRetire   Action = "RETIRE"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Action      Action     `json:"action"`
	OldValue    any        `json:"old_value,omitempty"`
	NewValue    any        `json:"new_value,omitempty"`
	PerformedBy id.UserID  `json:"performed_by"`
	PerformedAt time.Time  `json:"performed_at"`
	IPAddress   string     `json:"ip_address,omitempty"`
	RequestID   string     `json:"request_id,omitempty"`
}

// Store persists audit events. The engine only appends; queries exist
// for admin surfaces and tests.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityType EntityType, entityID string) ([]Event, error)
}

// Recorder is the narrow emit-only contract services depend on.
type Recorder interface {
	Emit(ctx context.Context, event Event) error
}
