package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	platformpg "cedent/internal/platform/postgres"
	"cedent/internal/reinsurance/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// PostgresStore persists risk allocations in PostgreSQL. A unique
// constraint on policy_id makes concurrent allocation of the same
// policy lose deterministically with ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.RiskAllocation) error {
	lines, err := json.Marshal(a.Lines)
	if err != nil {
		return fmt.Errorf("marshal allocation lines: %w", err)
	}
	query := `
		INSERT INTO risk_allocations (id, policy_id, lines, retained_amount, calculated_by, calculated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, query,
		a.ID.String(), a.PolicyID.String(), lines,
		a.RetainedAmount, a.CalculatedBy.String(), a.CalculatedAt.UTC(),
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create risk allocation: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByPolicy(ctx context.Context, policyID id.PolicyID) (*models.RiskAllocation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, policy_id, lines, retained_amount, calculated_by, calculated_at
		FROM risk_allocations WHERE policy_id = $1
	`, policyID.String())

	var (
		a         models.RiskAllocation
		rawID     string
		rawPolicy string
		rawBy     string
		lines     []byte
	)
	err := row.Scan(&rawID, &rawPolicy, &lines, &a.RetainedAmount, &rawBy, &a.CalculatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan risk allocation: %w", err)
	}

	allocationID, err := id.ParseAllocationID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse allocation id: %w", err)
	}
	a.ID = allocationID
	parsedPolicy, err := id.ParsePolicyID(rawPolicy)
	if err != nil {
		return nil, fmt.Errorf("parse allocation policy id: %w", err)
	}
	a.PolicyID = parsedPolicy
	calculatedBy, err := id.ParseUserID(rawBy)
	if err != nil {
		return nil, fmt.Errorf("parse allocation calculator: %w", err)
	}
	a.CalculatedBy = calculatedBy
	if err := json.Unmarshal(lines, &a.Lines); err != nil {
		return nil, fmt.Errorf("unmarshal allocation lines: %w", err)
	}
	return &a, nil
}
