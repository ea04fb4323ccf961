package sequence

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresAllocator increments a per-entity counter row atomically, so
// concurrent creations never observe the same value.
type PostgresAllocator struct {
	db *sql.DB
}

func NewPostgresAllocator(db *sql.DB) *PostgresAllocator {
	return &PostgresAllocator{db: db}
}

func (a *PostgresAllocator) Next(ctx context.Context, entityType string) (string, error) {
	query := `
		INSERT INTO entity_sequences (entity_type, last_value)
		VALUES ($1, 1)
		ON CONFLICT (entity_type) DO UPDATE SET
			last_value = entity_sequences.last_value + 1
		RETURNING last_value
	`
	var value int64
	if err := a.db.QueryRowContext(ctx, query, entityType).Scan(&value); err != nil {
		return "", fmt.Errorf("next sequence for %s: %w", entityType, err)
	}
	return Format(entityType, value), nil
}
