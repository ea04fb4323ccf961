package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	platformpg "cedent/internal/platform/postgres"
	"cedent/internal/policy/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// PostgresStore persists policies in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const policyColumns = `id, policy_number, insured_name, insured_type, line_of_business,
	sum_insured, premium, retention_limit, status, effective_from, effective_to,
	created_by, approved_by, approved_at, rejection_reason, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, p *models.Policy) error {
	query := `
		INSERT INTO policies (` + policyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID.String(), p.PolicyNumber, p.InsuredName, string(p.InsuredType), string(p.LineOfBusiness),
		p.SumInsured, p.Premium, p.RetentionLimit, string(p.Status),
		p.EffectiveFrom.UTC(), p.EffectiveTo.UTC(),
		p.CreatedBy.String(), nullUserID(p.ApprovedBy), nullTime(p.ApprovedAt),
		nullString(p.RejectionReason), p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create policy: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, policyID id.PolicyID) (*models.Policy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = $1`, policyID.String())
	return scanPolicy(row)
}

func (s *PostgresStore) FindByNumber(ctx context.Context, policyNumber string) (*models.Policy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE policy_number = $1`, policyNumber)
	return scanPolicy(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Policy, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+policyColumns+` FROM policies ORDER BY policy_number`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []*models.Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Execute loads the row FOR UPDATE, validates, mutates and writes back
// within one transaction.
func (s *PostgresStore) Execute(ctx context.Context, policyNumber string,
	validate func(*models.Policy) error,
	mutate func(*models.Policy),
) (*models.Policy, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE policy_number = $1 FOR UPDATE`, policyNumber)
	p, err := scanPolicy(row)
	if err != nil {
		return nil, err
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	mutate(p)

	_, err = tx.ExecContext(ctx, `
		UPDATE policies
		SET status = $2, approved_by = $3, approved_at = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $1
	`, p.ID.String(), string(p.Status), nullUserID(p.ApprovedBy), nullTime(p.ApprovedAt),
		nullString(p.RejectionReason), p.UpdatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row rowScanner) (*models.Policy, error) {
	var (
		p           models.Policy
		rawID       string
		insuredType string
		lob         string
		statusDB    string
		rawCreator  string
		approvedBy  sql.NullString
		approvedAt  sql.NullTime
		reason      sql.NullString
	)
	err := row.Scan(&rawID, &p.PolicyNumber, &p.InsuredName, &insuredType, &lob,
		&p.SumInsured, &p.Premium, &p.RetentionLimit, &statusDB,
		&p.EffectiveFrom, &p.EffectiveTo,
		&rawCreator, &approvedBy, &approvedAt, &reason, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan policy: %w", err)
	}
	parsed, err := id.ParsePolicyID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse policy id: %w", err)
	}
	p.ID = parsed
	p.InsuredType = models.InsuredType(insuredType)
	p.LineOfBusiness = id.LineOfBusiness(lob)
	p.Status = models.Status(statusDB)
	creator, err := id.ParseUserID(rawCreator)
	if err != nil {
		return nil, fmt.Errorf("parse policy creator: %w", err)
	}
	p.CreatedBy = creator
	if approvedBy.Valid {
		approver, err := id.ParseUserID(approvedBy.String)
		if err != nil {
			return nil, fmt.Errorf("parse policy approver: %w", err)
		}
		p.ApprovedBy = approver
	}
	if approvedAt.Valid {
		p.ApprovedAt = approvedAt.Time
	}
	if reason.Valid {
		p.RejectionReason = reason.String
	}
	return &p, nil
}

func nullUserID(userID id.UserID) any {
	if userID.IsNil() {
		return nil
	}
	return userID.String()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
