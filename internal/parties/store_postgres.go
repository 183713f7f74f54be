package parties

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"casedesk/pkg/domain"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/platform/tx"
)

// PostgresStore persists parties and their risk factors.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const partyColumns = `id, name, party_type, residency_status, nationality, registration_number,
	incorporation_country, is_pep, is_sanctioned, risk_score, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, id domain.PartyID) (*Party, error) {
	exec := tx.Pick(ctx, s.db)
	var p Party
	err := exec.GetContext(ctx, &p, `SELECT `+partyColumns+` FROM parties WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("party %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find party: %w", err)
	}
	if err := exec.SelectContext(ctx, &p.RiskFactors, `
		SELECT factor, category, score, active FROM party_risk_factors
		WHERE party_id = $1 ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("find party risk factors: %w", err)
	}
	return &p, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*Party, error) {
	var out []*Party
	if err := tx.Pick(ctx, s.db).SelectContext(ctx, &out, `SELECT `+partyColumns+` FROM parties ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	return out, nil
}

// Save upserts the party row and replaces its risk factors. It joins the
// transaction in ctx when there is one.
func (s *PostgresStore) Save(ctx context.Context, p *Party) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if t, ok := tx.From(ctx); ok {
		return s.save(ctx, t, p)
	}
	t, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin party save: %w", err)
	}
	if err := s.save(ctx, t, p); err != nil {
		_ = t.Rollback()
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit party save: %w", err)
	}
	return nil
}

func (s *PostgresStore) save(ctx context.Context, t *sqlx.Tx, p *Party) error {
	_, err := t.NamedExecContext(ctx, `
		INSERT INTO parties (`+partyColumns+`)
		VALUES (:id, :name, :party_type, :residency_status, :nationality, :registration_number,
			:incorporation_country, :is_pep, :is_sanctioned, :risk_score, :created_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			party_type = EXCLUDED.party_type,
			residency_status = EXCLUDED.residency_status,
			nationality = EXCLUDED.nationality,
			registration_number = EXCLUDED.registration_number,
			incorporation_country = EXCLUDED.incorporation_country,
			is_pep = EXCLUDED.is_pep,
			is_sanctioned = EXCLUDED.is_sanctioned,
			risk_score = EXCLUDED.risk_score,
			updated_at = EXCLUDED.updated_at
	`, p)
	if err != nil {
		return fmt.Errorf("upsert party: %w", err)
	}
	if _, err := t.ExecContext(ctx, `DELETE FROM party_risk_factors WHERE party_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear party risk factors: %w", err)
	}
	for i, f := range p.RiskFactors {
		if _, err := t.ExecContext(ctx, `
			INSERT INTO party_risk_factors (party_id, position, factor, category, score, active)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, i, f.Factor, f.Category, f.Score, f.Active); err != nil {
			return fmt.Errorf("insert party risk factor: %w", err)
		}
	}
	return nil
}
