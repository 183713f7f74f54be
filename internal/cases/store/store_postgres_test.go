package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/pkg/domain"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/platform/tx"
)

func newCaseMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "postgres"), mock, func() { db.Close() }
}

var (
	caseRowColumns = []string{
		"id", "status", "risk_level", "priority", "entity_name", "entity_type", "assigned_to",
		"version", "created_at", "updated_at", "document",
	}
	activityRowColumns = []string{
		"id", "case_id", "occurred_at", "actor_id", "actor_name", "actor_role", "action",
		"action_type", "entity_type", "entity_id", "details", "previous_value", "new_value",
		"request_id", "client_ip", "client",
	}
	testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
)

func sampleCase(t *testing.T) *models.Case {
	t.Helper()
	rm := domain.Actor{ID: "u-rm", Role: domain.RoleRM}
	c, err := models.NewCase("CASE-1", models.EntityData{Name: "Acme", Type: domain.EntityNonListedCompany}, domain.RiskHigh, "", rm, testNow)
	require.NoError(t, err)
	c.ApplyLinkParty(models.CasePartyLink{ID: "LNK-1", PartyID: "PTY-1", RelationshipType: "DIRECTOR"}, testNow)
	return c
}

func TestPostgresStoreFindByIDLoadsAggregate(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()

	row, err := toRow(sampleCase(t))
	require.NoError(t, err)
	snap, err := json.Marshal(approval.Snapshot{ID: "SNP-1", CaseID: "CASE-1", Type: approval.TypeKYC, Decision: approval.DecisionApproved})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM cases WHERE id = \\$1$").
		WithArgs("CASE-1").
		WillReturnRows(sqlmock.NewRows(caseRowColumns).AddRow(
			row.ID, "PENDING_CHECKER_REVIEW", row.RiskLevel, row.Priority, row.EntityName, row.EntityType,
			row.AssignedTo, 4, testNow, testNow, row.Document))
	mock.ExpectQuery("SELECT (.+) FROM case_activities\\s+WHERE case_id = \\$1 ORDER BY seq").
		WithArgs("CASE-1").
		WillReturnRows(sqlmock.NewRows(activityRowColumns).AddRow(
			"ACT-1", "CASE-1", testNow, "u-rm", "Rita", "RM", "Case Created", "CREATE", "CASE", "CASE-1",
			"", "", "DRAFT", "req-1", "", ""))
	mock.ExpectQuery("SELECT document FROM approval_snapshots").
		WithArgs("CASE-1").
		WillReturnRows(sqlmock.NewRows([]string{"document"}).AddRow(snap))

	c, err := NewPostgresStore(db).FindByID(context.Background(), "CASE-1")
	require.NoError(t, err)
	assert.Equal(t, models.CasePendingCheckerReview, c.Status)
	assert.Equal(t, int64(4), c.Version)
	assert.Equal(t, "Acme", c.Entity.Name)
	require.Len(t, c.PartyLinks, 1)
	assert.True(t, c.PartyLinks[0].IsPrimary)
	require.Equal(t, 1, c.Activity.Len())
	assert.Empty(t, c.Activity.Pending(), "loaded entries are persisted")
	require.Len(t, c.Snapshots, 1)
	assert.Equal(t, domain.SnapshotID("SNP-1"), c.Snapshots[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreFindByIDLocksInsideTx(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()

	mock.ExpectBegin()
	sqlTx, err := db.Beginx()
	require.NoError(t, err)

	mock.ExpectQuery("FROM cases WHERE id = \\$1 FOR UPDATE").
		WithArgs("CASE-404").
		WillReturnRows(sqlmock.NewRows(caseRowColumns))

	_, err = NewPostgresStore(db).FindByID(tx.WithTx(context.Background(), sqlTx), "CASE-404")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSaveAppendsPendingChildren(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()

	c := sampleCase(t)
	c.Version = 3
	c.Record(activity.Entry{ID: "ACT-2", CaseID: c.ID, Action: activity.ActionPartyLinked, Type: activity.TypeLink, Subject: activity.SubjectParty, SubjectID: "PTY-1"})
	c.AddSnapshot(&approval.Snapshot{ID: "SNP-1", CaseID: c.ID, Type: approval.TypeKYC, Decision: approval.DecisionApproved, ValidUntil: testNow.AddDate(1, 0, 0)})

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cases SET (.+) WHERE id = \\$\\d+ AND version = \\$\\d+").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO case_activities").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO approval_snapshots (.+) ON CONFLICT \\(id\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, NewPostgresStore(db).Save(context.Background(), c))
	assert.Equal(t, int64(4), c.Version)
	assert.Empty(t, c.Activity.Pending())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSaveStaleVersion(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()

	c := sampleCase(t)
	c.Version = 2

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE cases SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := NewPostgresStore(db).Save(context.Background(), c)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	assert.Equal(t, int64(2), c.Version, "version is unchanged on conflict")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO cases").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := NewPostgresStore(db).Create(context.Background(), sampleCase(t))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreListAppliesFilter(t *testing.T) {
	db, mock, cleanup := newCaseMock(t)
	defer cleanup()

	row, err := toRow(sampleCase(t))
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM cases\\s+WHERE (.+) ORDER BY updated_at DESC, id\\s+LIMIT \\$3").
		WithArgs("DRAFT", "", int64(10)).
		WillReturnRows(sqlmock.NewRows(caseRowColumns).AddRow(
			row.ID, row.Status, row.RiskLevel, row.Priority, row.EntityName, row.EntityType,
			row.AssignedTo, 1, testNow, testNow, row.Document))

	out, err := NewPostgresStore(db).List(context.Background(), models.Filter{Status: models.CaseDraft, Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.RiskHigh, out[0].RiskLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}
