package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	platformpg "cedent/internal/platform/postgres"
	"cedent/internal/reinsurer/models"
	id "cedent/pkg/domain"
	"cedent/pkg/platform/sentinel"
)

// PostgresStore persists reinsurers in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const reinsurerColumns = `id, name, code, country, rating, contact_email, status, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, r *models.Reinsurer) error {
	query := `
		INSERT INTO reinsurers (` + reinsurerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID.String(), r.Name, r.Code, r.Country, string(r.Rating),
		r.ContactEmail, string(r.Status), r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
	)
	if err != nil {
		if platformpg.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create reinsurer: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, reinsurerID id.ReinsurerID) (*models.Reinsurer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reinsurerColumns+` FROM reinsurers WHERE id = $1`, reinsurerID.String())
	return scanReinsurer(row)
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Reinsurer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reinsurerColumns+` FROM reinsurers WHERE code = $1`, code)
	return scanReinsurer(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Reinsurer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reinsurerColumns+` FROM reinsurers ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list reinsurers: %w", err)
	}
	defer rows.Close()

	var out []*models.Reinsurer
	for rows.Next() {
		r, err := scanReinsurer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Execute loads the row FOR UPDATE, validates, mutates and writes back
// within one transaction.
func (s *PostgresStore) Execute(ctx context.Context, reinsurerID id.ReinsurerID,
	validate func(*models.Reinsurer) error,
	mutate func(*models.Reinsurer),
) (*models.Reinsurer, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+reinsurerColumns+` FROM reinsurers WHERE id = $1 FOR UPDATE`, reinsurerID.String())
	r, err := scanReinsurer(row)
	if err != nil {
		return nil, err
	}
	if err := validate(r); err != nil {
		return nil, err
	}
	mutate(r)

	_, err = tx.ExecContext(ctx, `
		UPDATE reinsurers
		SET name = $2, country = $3, rating = $4, contact_email = $5, status = $6, updated_at = $7
		WHERE id = $1
	`, r.ID.String(), r.Name, r.Country, string(r.Rating), r.ContactEmail, string(r.Status), r.UpdatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("update reinsurer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return r, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReinsurer(row rowScanner) (*models.Reinsurer, error) {
	var (
		r        models.Reinsurer
		rawID    string
		rating   string
		statusDB string
	)
	err := row.Scan(&rawID, &r.Name, &r.Code, &r.Country, &rating, &r.ContactEmail, &statusDB, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan reinsurer: %w", err)
	}
	parsed, err := id.ParseReinsurerID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse reinsurer id: %w", err)
	}
	r.ID = parsed
	r.Rating = models.Rating(rating)
	r.Status = models.Status(statusDB)
	return &r, nil
}
