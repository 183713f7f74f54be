package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/internal/platform/postgres"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/platform/tx"
)

// PostgresStore keeps the case row with its owned links and accounts in a
// jsonb document. Activities and approval snapshots are append-only rows.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const caseColumns = `id, status, risk_level, priority, entity_name, entity_type, assigned_to,
	version, created_at, updated_at, document`

const activityColumns = `id, case_id, occurred_at, actor_id, actor_name, actor_role, action,
	action_type, entity_type, entity_id, details, previous_value, new_value, request_id,
	client_ip, client`

type caseRow struct {
	ID         string    `db:"id"`
	Status     string    `db:"status"`
	RiskLevel  string    `db:"risk_level"`
	Priority   string    `db:"priority"`
	EntityName string    `db:"entity_name"`
	EntityType string    `db:"entity_type"`
	AssignedTo string    `db:"assigned_to"`
	Version    int64     `db:"version"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
	Document   []byte    `db:"document"`
}

// caseDocument holds the parts of a case that are not queried on.
type caseDocument struct {
	Entity               models.EntityData         `json:"entity"`
	AssignedTeam         string                    `json:"assigned_team,omitempty"`
	CheckedBy            string                    `json:"checked_by,omitempty"`
	ApprovedBy           string                    `json:"approved_by,omitempty"`
	ComplianceNotes      string                    `json:"compliance_notes,omitempty"`
	CreatedBy            string                    `json:"created_by"`
	TargetCompletionDate *time.Time                `json:"target_completion_date,omitempty"`
	ActualCompletionDate *time.Time                `json:"actual_completion_date,omitempty"`
	PartyLinks           []models.CasePartyLink    `json:"party_links"`
	DocumentLinks        []models.CaseDocumentLink `json:"document_links"`
	Accounts             []models.Account          `json:"accounts"`
}

type snapshotRow struct {
	ID         string     `db:"id"`
	CaseID     string     `db:"case_id"`
	Type       string     `db:"snapshot_type"`
	AccountID  string     `db:"account_id"`
	Decision   string     `db:"decision"`
	RiskLevel  string     `db:"risk_level"`
	CreatedAt  time.Time  `db:"created_at"`
	ValidUntil *time.Time `db:"valid_until"`
	Document   []byte     `db:"document"`
}

func toRow(c *models.Case) (caseRow, error) {
	doc, err := json.Marshal(caseDocument{
		Entity:               c.Entity,
		AssignedTeam:         c.AssignedTeam,
		CheckedBy:            c.CheckedBy,
		ApprovedBy:           c.ApprovedBy,
		ComplianceNotes:      c.ComplianceNotes,
		CreatedBy:            c.CreatedBy,
		TargetCompletionDate: c.TargetCompletionDate,
		ActualCompletionDate: c.ActualCompletionDate,
		PartyLinks:           c.PartyLinks,
		DocumentLinks:        c.DocumentLinks,
		Accounts:             c.Accounts,
	})
	if err != nil {
		return caseRow{}, fmt.Errorf("encode case document: %w", err)
	}
	return caseRow{
		ID:         string(c.ID),
		Status:     string(c.Status),
		RiskLevel:  string(c.RiskLevel),
		Priority:   string(c.Priority),
		EntityName: c.Entity.Name,
		EntityType: string(c.Entity.Type),
		AssignedTo: c.AssignedTo,
		Version:    c.Version,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		Document:   doc,
	}, nil
}

func fromRow(r caseRow) (*models.Case, error) {
	var doc caseDocument
	if err := json.Unmarshal(r.Document, &doc); err != nil {
		return nil, fmt.Errorf("decode case document %s: %w", r.ID, err)
	}
	return &models.Case{
		ID:                   domain.CaseID(r.ID),
		Status:               workflow.State(r.Status),
		RiskLevel:            domain.RiskLevel(r.RiskLevel),
		Priority:             domain.Priority(r.Priority),
		Entity:               doc.Entity,
		AssignedTo:           r.AssignedTo,
		AssignedTeam:         doc.AssignedTeam,
		CheckedBy:            doc.CheckedBy,
		ApprovedBy:           doc.ApprovedBy,
		ComplianceNotes:      doc.ComplianceNotes,
		CreatedBy:            doc.CreatedBy,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
		TargetCompletionDate: doc.TargetCompletionDate,
		ActualCompletionDate: doc.ActualCompletionDate,
		Version:              r.Version,
		PartyLinks:           doc.PartyLinks,
		DocumentLinks:        doc.DocumentLinks,
		Accounts:             doc.Accounts,
	}, nil
}

func toSnapshotRow(s *approval.Snapshot) (snapshotRow, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return snapshotRow{}, fmt.Errorf("encode snapshot: %w", err)
	}
	row := snapshotRow{
		ID:        string(s.ID),
		CaseID:    string(s.CaseID),
		Type:      string(s.Type),
		AccountID: string(s.AccountID),
		Decision:  string(s.Decision),
		RiskLevel: string(s.RiskLevel),
		CreatedAt: s.CreatedAt,
		Document:  doc,
	}
	if !s.ValidUntil.IsZero() {
		v := s.ValidUntil
		row.ValidUntil = &v
	}
	return row, nil
}

// Create inserts a new case at version 1 with its initial activities.
func (s *PostgresStore) Create(ctx context.Context, c *models.Case) error {
	return s.inTx(ctx, func(t *sqlx.Tx) error {
		c.Version = 1
		row, err := toRow(c)
		if err != nil {
			return err
		}
		if _, err := t.NamedExecContext(ctx, `
			INSERT INTO cases (`+caseColumns+`)
			VALUES (:id, :status, :risk_level, :priority, :entity_name, :entity_type, :assigned_to,
				:version, :created_at, :updated_at, :document)`, row); err != nil {
			if postgres.IsUniqueViolation(err) {
				return fmt.Errorf("case %s: %w", c.ID, sentinel.ErrAlreadyUsed)
			}
			return fmt.Errorf("insert case: %w", err)
		}
		return s.appendChildren(ctx, t, c)
	}, func() { c.Activity.MarkPersisted() })
}

// FindByID loads the full aggregate. Inside a transaction the case row is
// locked until commit.
func (s *PostgresStore) FindByID(ctx context.Context, id domain.CaseID) (*models.Case, error) {
	exec := tx.Pick(ctx, s.db)
	query := `SELECT ` + caseColumns + ` FROM cases WHERE id = $1`
	if _, ok := tx.From(ctx); ok {
		query += ` FOR UPDATE`
	}
	var row caseRow
	err := exec.GetContext(ctx, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find case: %w", err)
	}
	c, err := fromRow(row)
	if err != nil {
		return nil, err
	}

	var entries []activity.Entry
	if err := exec.SelectContext(ctx, &entries, `
		SELECT `+activityColumns+` FROM case_activities
		WHERE case_id = $1 ORDER BY seq`, id); err != nil {
		return nil, fmt.Errorf("find case activities: %w", err)
	}
	c.Activity = activity.Restore(entries)

	var docs [][]byte
	if err := exec.SelectContext(ctx, &docs, `
		SELECT document FROM approval_snapshots
		WHERE case_id = $1 ORDER BY created_at, id`, id); err != nil {
		return nil, fmt.Errorf("find approval snapshots: %w", err)
	}
	for _, doc := range docs {
		var snap approval.Snapshot
		if err := json.Unmarshal(doc, &snap); err != nil {
			return nil, fmt.Errorf("decode approval snapshot: %w", err)
		}
		c.Snapshots = append(c.Snapshots, snap)
	}
	return c, nil
}

// Save writes c when the stored version still equals c.Version, appending
// the activities and snapshots added since it was loaded.
func (s *PostgresStore) Save(ctx context.Context, c *models.Case) error {
	return s.inTx(ctx, func(t *sqlx.Tx) error {
		row, err := toRow(c)
		if err != nil {
			return err
		}
		res, err := t.NamedExecContext(ctx, `
			UPDATE cases SET
				status = :status,
				risk_level = :risk_level,
				priority = :priority,
				entity_name = :entity_name,
				entity_type = :entity_type,
				assigned_to = :assigned_to,
				updated_at = :updated_at,
				document = :document,
				version = version + 1
			WHERE id = :id AND version = :version`, row)
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update case: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("case %s at version %d: %w", c.ID, c.Version, sentinel.ErrConflict)
		}
		return s.appendChildren(ctx, t, c)
	}, func() {
		c.Version++
		c.Activity.MarkPersisted()
	})
}

func (s *PostgresStore) appendChildren(ctx context.Context, t *sqlx.Tx, c *models.Case) error {
	for _, e := range c.Activity.Pending() {
		if _, err := t.NamedExecContext(ctx, `
			INSERT INTO case_activities (`+activityColumns+`)
			VALUES (:id, :case_id, :occurred_at, :actor_id, :actor_name, :actor_role, :action,
				:action_type, :entity_type, :entity_id, :details, :previous_value, :new_value,
				:request_id, :client_ip, :client)`, e); err != nil {
			return fmt.Errorf("insert case activity: %w", err)
		}
	}
	for i := range c.Snapshots {
		row, err := toSnapshotRow(&c.Snapshots[i])
		if err != nil {
			return err
		}
		if _, err := t.NamedExecContext(ctx, `
			INSERT INTO approval_snapshots (id, case_id, snapshot_type, account_id, decision,
				risk_level, created_at, valid_until, document)
			VALUES (:id, :case_id, :snapshot_type, :account_id, :decision,
				:risk_level, :created_at, :valid_until, :document)
			ON CONFLICT (id) DO NOTHING`, row); err != nil {
			return fmt.Errorf("insert approval snapshot: %w", err)
		}
	}
	return nil
}

// List returns matching cases, most recently updated first. Activities
// and snapshots are only loaded by FindByID.
func (s *PostgresStore) List(ctx context.Context, filter models.Filter) ([]*models.Case, error) {
	var limit sql.NullInt64
	if filter.Limit > 0 {
		limit = sql.NullInt64{Int64: int64(filter.Limit), Valid: true}
	}
	var rows []caseRow
	if err := tx.Pick(ctx, s.db).SelectContext(ctx, &rows, `
		SELECT `+caseColumns+` FROM cases
		WHERE ($1 = '' OR status = $1) AND ($2 = '' OR assigned_to = $2)
		ORDER BY updated_at DESC, id
		LIMIT $3`, string(filter.Status), filter.AssignedTo, limit); err != nil {
		return nil, fmt.Errorf("list cases: %w", err)
	}
	out := make([]*models.Case, 0, len(rows))
	for _, r := range rows {
		c, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// inTx runs fn in the transaction in ctx, or in a new one. done runs once
// the writes are durable, or immediately inside a caller's transaction.
func (s *PostgresStore) inTx(ctx context.Context, fn func(t *sqlx.Tx) error, done func()) error {
	if t, ok := tx.From(ctx); ok {
		if err := fn(t); err != nil {
			return err
		}
		done()
		return nil
	}
	t, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin case write: %w", err)
	}
	if err := fn(t); err != nil {
		_ = t.Rollback()
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit case write: %w", err)
	}
	done()
	return nil
}
