package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"cedent/internal/claim/models"
	platformpg "cedent/internal/platform/postgres"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// PostgresStore persists claims in PostgreSQL. The timeline is stored
// as a JSONB array alongside the row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const claimSelect = `
	SELECT c.id, c.claim_number, c.policy_id, p.policy_number,
	       c.claim_amount, c.approved_amount, c.status,
	       c.incident_date, c.reported_date, c.handled_by, c.timeline,
	       c.created_at, c.updated_at
	FROM claims c
	JOIN policies p ON p.id = c.policy_id
`

func (s *PostgresStore) Create(ctx context.Context, c *models.Claim) error {
	timeline, err := json.Marshal(c.Timeline)
	if err != nil {
		return fmt.Errorf("marshal timeline: %w", err)
	}
	query := `
		INSERT INTO claims (id, claim_number, policy_id, claim_amount, approved_amount,
			status, incident_date, reported_date, handled_by, timeline, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		c.ID.String(), c.ClaimNumber, c.PolicyID.String(), c.ClaimAmount, c.ApprovedAmount,
		string(c.Status), c.IncidentDate.UTC(), c.ReportedDate.UTC(),
		nullUserID(c.HandledBy), timeline, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, claimID id.ClaimID) (*models.Claim, error) {
	row := s.db.QueryRowContext(ctx, claimSelect+` WHERE c.id = $1`, claimID.String())
	return scanClaim(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Claim, error) {
	return s.queryClaims(ctx, claimSelect+` ORDER BY c.claim_number`)
}

func (s *PostgresStore) ListByPolicy(ctx context.Context, policyID id.PolicyID) ([]*models.Claim, error) {
	return s.queryClaims(ctx, claimSelect+` WHERE c.policy_id = $1 ORDER BY c.claim_number`, policyID.String())
}

func (s *PostgresStore) queryClaims(ctx context.Context, query string, args ...any) ([]*models.Claim, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var out []*models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Execute loads the row FOR UPDATE, validates, mutates and writes back
// within one transaction.
func (s *PostgresStore) Execute(ctx context.Context, claimID id.ClaimID,
	validate func(*models.Claim) error,
	mutate func(*models.Claim),
) (*models.Claim, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, claimSelect+` WHERE c.id = $1 FOR UPDATE OF c`, claimID.String())
	c, err := scanClaim(row)
	if err != nil {
		return nil, err
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	mutate(c)

	timeline, err := json.Marshal(c.Timeline)
	if err != nil {
		return nil, fmt.Errorf("marshal timeline: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE claims
		SET claim_amount = $2, approved_amount = $3, status = $4, timeline = $5, updated_at = $6
		WHERE id = $1
	`, c.ID.String(), c.ClaimAmount, c.ApprovedAmount, string(c.Status), timeline, c.UpdatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("update claim: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var (
		c         models.Claim
		rawID     string
		rawPolicy string
		statusDB  string
		handledBy sql.NullString
		timeline  []byte
	)
	err := row.Scan(&rawID, &c.ClaimNumber, &rawPolicy, &c.PolicyNumber,
		&c.ClaimAmount, &c.ApprovedAmount, &statusDB,
		&c.IncidentDate, &c.ReportedDate, &handledBy, &timeline,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan claim: %w", err)
	}
	claimID, err := id.ParseClaimID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse claim id: %w", err)
	}
	c.ID = claimID
	policyID, err := id.ParsePolicyID(rawPolicy)
	if err != nil {
		return nil, fmt.Errorf("parse claim policy id: %w", err)
	}
	c.PolicyID = policyID
	c.Status = models.Status(statusDB)
	if handledBy.Valid {
		handler, err := id.ParseUserID(handledBy.String)
		if err != nil {
			return nil, fmt.Errorf("parse claim handler: %w", err)
		}
		c.HandledBy = handler
	}
	if err := json.Unmarshal(timeline, &c.Timeline); err != nil {
		return nil, fmt.Errorf("unmarshal timeline: %w", err)
	}
	return &c, nil
}

func nullUserID(userID id.UserID) any {
	if userID.IsNil() {
		return nil
	}
	return userID.String()
}
