package requirements

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/platform/tx"
)

// PostgresCatalog persists requirement templates in the requirement_templates table.
type PostgresCatalog struct {
	db *sqlx.DB
}

func NewPostgresCatalog(db *sqlx.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

const templateColumns = `id, seq, name, description, kind, category, entity_type, residency_status,
	risk_level, form_category, account_type, required, validity_months, sort_order, active`

func (c *PostgresCatalog) Templates(ctx context.Context) ([]Template, error) {
	var out []Template
	query := `SELECT ` + templateColumns + ` FROM requirement_templates ORDER BY seq`
	if err := tx.Pick(ctx, c.db).SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("select requirement templates: %w", err)
	}
	return out, nil
}

// Upsert inserts templates or updates them in place by id. Seq is
// overwritten too, so callers seeding from a catalog file must keep its
// order stable.
func (c *PostgresCatalog) Upsert(ctx context.Context, templates []Template) error {
	if len(templates) == 0 {
		return nil
	}
	query := `
		INSERT INTO requirement_templates (` + templateColumns + `)
		VALUES (:id, :seq, :name, :description, :kind, :category, :entity_type, :residency_status,
			:risk_level, :form_category, :account_type, :required, :validity_months, :sort_order, :active)
		ON CONFLICT (id) DO UPDATE SET
			seq = EXCLUDED.seq,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			kind = EXCLUDED.kind,
			category = EXCLUDED.category,
			entity_type = EXCLUDED.entity_type,
			residency_status = EXCLUDED.residency_status,
			risk_level = EXCLUDED.risk_level,
			form_category = EXCLUDED.form_category,
			account_type = EXCLUDED.account_type,
			required = EXCLUDED.required,
			validity_months = EXCLUDED.validity_months,
			sort_order = EXCLUDED.sort_order,
			active = EXCLUDED.active
	`
	exec := tx.Pick(ctx, c.db)
	for _, t := range templates {
		if _, err := sqlx.NamedExecContext(ctx, exec, query, t); err != nil {
			return fmt.Errorf("upsert requirement template %s: %w", t.ID, err)
		}
	}
	return nil
}

// Deactivate hides a template from resolution without deleting it.
func (c *PostgresCatalog) Deactivate(ctx context.Context, id string) error {
	res, err := tx.Pick(ctx, c.db).ExecContext(ctx, `UPDATE requirement_templates SET active = false WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate requirement template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate requirement template: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("requirement template %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
