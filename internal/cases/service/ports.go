package service

import (
	"context"

	"casedesk/internal/cases/models"
	"casedesk/internal/parties"
	"casedesk/internal/requirements"
	"casedesk/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks Store,TxRunner,PartyLookup,ChecklistResolver

// Store persists case aggregates. Save is optimistic: it fails with
// sentinel.ErrConflict when the stored version is not c.Version, and bumps
// c.Version on success.
type Store interface {
	Create(ctx context.Context, c *models.Case) error
	FindByID(ctx context.Context, id domain.CaseID) (*models.Case, error)
	Save(ctx context.Context, c *models.Case) error
	List(ctx context.Context, filter models.Filter) ([]*models.Case, error)
}

// TxRunner provides the unit of work for one case. Implementations may
// wrap a database transaction or, in memory, a per-case lock. fn receives
// the context to use for every store call inside the unit.
type TxRunner interface {
	RunInTx(ctx context.Context, id domain.CaseID, fn func(ctx context.Context, store Store) error) error
}

// PartyLookup resolves weak party references.
type PartyLookup interface {
	FindByID(ctx context.Context, id domain.PartyID) (*parties.Party, error)
}

// ChecklistResolver produces the target checklist for a subject.
type ChecklistResolver interface {
	Resolve(ctx context.Context, subject requirements.Subject) ([]requirements.Item, error)
}
