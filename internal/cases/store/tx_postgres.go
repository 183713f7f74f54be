package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"casedesk/internal/cases/service"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/tx"
)

const defaultCaseTxTimeout = 5 * time.Second

// PostgresTx runs each case unit of work in one database transaction. The
// case row is locked by the first FindByID inside it.
type PostgresTx struct {
	db      *sqlx.DB
	store   *PostgresStore
	timeout time.Duration
}

func NewPostgresTx(db *sqlx.DB, store *PostgresStore, timeout time.Duration) *PostgresTx {
	return &PostgresTx{db: db, store: store, timeout: timeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, _ domain.CaseID, fn func(ctx context.Context, store service.Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultCaseTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx), t.store); err != nil {
		return err
	}
	return sqlTx.Commit()
}
