package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	platformpg "cedent/internal/platform/postgres"
	"cedent/internal/treaty/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// PostgresStore persists treaties in PostgreSQL. Applicable lines of
// business are stored as a text array.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const treatyColumns = `id, name, treaty_type, reinsurer_id, share_percentage, retention_limit, treaty_limit, applicable_lobs, effective_from, effective_to, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, t *models.Treaty) error {
	query := `
		INSERT INTO treaties (` + treatyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID.String(), t.Name, string(t.Type), t.ReinsurerID.String(),
		nullFloat(t.SharePercentage, t.Type == models.TypeQuotaShare),
		nullFloat(t.RetentionLimit, t.Type == models.TypeSurplus),
		t.TreatyLimit, pq.Array(lobStrings(t.ApplicableLOBs)),
		t.EffectiveFrom.UTC(), t.EffectiveTo.UTC(), string(t.Status),
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create treaty: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, treatyID id.TreatyID) (*models.Treaty, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+treatyColumns+` FROM treaties WHERE id = $1`, treatyID.String())
	return scanTreaty(row)
}

// List refreshes expired statuses before returning, mirroring the
// registry's lazy-expiry semantics.
func (s *PostgresStore) List(ctx context.Context, now time.Time) ([]*models.Treaty, error) {
	_, err := s.db.ExecContext(ctx, `
		UPDATE treaties SET status = 'EXPIRED'
		WHERE effective_to < $1 AND status <> 'EXPIRED'
	`, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("expire treaties: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+treatyColumns+` FROM treaties ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list treaties: %w", err)
	}
	defer rows.Close()
	return scanTreaties(rows)
}

func (s *PostgresStore) FindActiveByLOB(ctx context.Context, lob id.LineOfBusiness, asOf time.Time) ([]*models.Treaty, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+treatyColumns+` FROM treaties
		WHERE status = 'ACTIVE' AND $1 = ANY(applicable_lobs) AND effective_to >= $2
	`, string(lob), asOf.UTC())
	if err != nil {
		return nil, fmt.Errorf("find active treaties: %w", err)
	}
	defer rows.Close()
	return scanTreaties(rows)
}

func (s *PostgresStore) Update(ctx context.Context, t *models.Treaty) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE treaties
		SET name = $2, treaty_type = $3, reinsurer_id = $4, share_percentage = $5,
		    retention_limit = $6, treaty_limit = $7, applicable_lobs = $8,
		    effective_from = $9, effective_to = $10, status = $11, updated_at = $12
		WHERE id = $1
	`, t.ID.String(), t.Name, string(t.Type), t.ReinsurerID.String(),
		nullFloat(t.SharePercentage, t.Type == models.TypeQuotaShare),
		nullFloat(t.RetentionLimit, t.Type == models.TypeSurplus),
		t.TreatyLimit, pq.Array(lobStrings(t.ApplicableLOBs)),
		t.EffectiveFrom.UTC(), t.EffectiveTo.UTC(), string(t.Status), t.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("update treaty: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update treaty: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTreaty(row rowScanner) (*models.Treaty, error) {
	var (
		t                 models.Treaty
		rawID, reinsurer  string
		treatyType        string
		share, retention  sql.NullFloat64
		lobs              pq.StringArray
		statusDB          string
	)
	err := row.Scan(&rawID, &t.Name, &treatyType, &reinsurer, &share, &retention,
		&t.TreatyLimit, &lobs, &t.EffectiveFrom, &t.EffectiveTo, &statusDB,
		&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan treaty: %w", err)
	}

	treatyID, err := id.ParseTreatyID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse treaty id: %w", err)
	}
	reinsurerID, err := id.ParseReinsurerID(reinsurer)
	if err != nil {
		return nil, fmt.Errorf("parse reinsurer id: %w", err)
	}

	t.ID = treatyID
	t.ReinsurerID = reinsurerID
	t.Type = models.Type(treatyType)
	t.SharePercentage = share.Float64
	t.RetentionLimit = retention.Float64
	t.Status = models.Status(statusDB)
	t.ApplicableLOBs = make([]id.LineOfBusiness, len(lobs))
	for i, lob := range lobs {
		t.ApplicableLOBs[i] = id.LineOfBusiness(lob)
	}
	return &t, nil
}

func scanTreaties(rows *sql.Rows) ([]*models.Treaty, error) {
	var out []*models.Treaty
	for rows.Next() {
		t, err := scanTreaty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullFloat(v float64, valid bool) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}

func lobStrings(lobs []id.LineOfBusiness) []string {
	out := make([]string, len(lobs))
	for i, lob := range lobs {
		out[i] = string(lob)
	}
	return out
}
