package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "cedent/pkg/domain"
	audit "cedent/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL. Snapshots are stored as
// JSONB so the before/after values stay queryable.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	oldValue, err := marshalSnapshot(event.OldValue)
	if err != nil {
		return fmt.Errorf("marshal old value: %w", err)
	}
	newValue, err := marshalSnapshot(event.NewValue)
	if err != nil {
		return fmt.Errorf("marshal new value: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, entity_type, entity_id, action, old_value, new_value, performed_by, performed_at, ip_address, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.New(),
		string(event.EntityType),
		event.EntityID,
		string(event.Action),
		oldValue,
		newValue,
		event.PerformedBy.String(),
		event.PerformedAt.UTC(),
		nullable(event.IPAddress),
		nullable(event.RequestID),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityType audit.EntityType, entityID string) ([]audit.Event, error) {
	query := `
		SELECT entity_type, entity_id, action, old_value, new_value, performed_by, performed_at, ip_address, request_id
		FROM audit_events
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY performed_at
	`
	rows, err := s.db.QueryContext(ctx, query, string(entityType), entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event              audit.Event
			oldValue, newValue []byte
			performedBy        string
			performedAt        time.Time
			ipAddress          sql.NullString
			requestID          sql.NullString
		)
		if err := rows.Scan(&event.EntityType, &event.EntityID, &event.Action,
			&oldValue, &newValue, &performedBy, &performedAt, &ipAddress, &requestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if len(oldValue) > 0 {
			var v any
			if err := json.Unmarshal(oldValue, &v); err == nil {
				event.OldValue = v
			}
		}
		if len(newValue) > 0 {
			var v any
			if err := json.Unmarshal(newValue, &v); err == nil {
				event.NewValue = v
			}
		}
		if userID, err := uuid.Parse(performedBy); err == nil {
			event.PerformedBy = id.UserID(userID)
		}
		event.PerformedAt = performedAt
		event.IPAddress = ipAddress.String
		event.RequestID = requestID.String
		events = append(events, event)
	}
	return events, rows.Err()
}

func marshalSnapshot(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
