package activity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	"casedesk/pkg/requestcontext"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestRecord(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)
	ctx = requestcontext.WithActor(ctx, domain.Actor{ID: "u-7", Name: "Priya", Role: domain.RoleChecker})
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	ctx = requestcontext.WithClientMetadata(ctx, "10.0.0.1", chromeUA)

	e := NewRecorder().Record(ctx, "CASE-1", StatusChanged("PENDING_COMPLIANCE_REVIEW"), TypeStatusChange,
		Change("PENDING_CHECKER_REVIEW", "PENDING_COMPLIANCE_REVIEW"),
		Details("documents checked"))

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, domain.CaseID("CASE-1"), e.CaseID)
	assert.Equal(t, now, e.Timestamp)
	assert.Equal(t, "Priya", e.ActorName)
	assert.Equal(t, domain.RoleChecker, e.ActorRole)
	assert.Equal(t, Action("Status Changed to PENDING_COMPLIANCE_REVIEW"), e.Action)
	assert.Equal(t, SubjectCase, e.Subject)
	assert.Equal(t, "CASE-1", e.SubjectID)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, "10.0.0.1", e.ClientIP)
	assert.Contains(t, e.Client, "Chrome")
	assert.Equal(t, "documents checked", e.Details)
}

func TestRecordIDsAreUnique(t *testing.T) {
	r := NewRecorder()
	seen := make(map[domain.ActivityID]bool)
	for i := 0; i < 500; i++ {
		e := r.Record(context.Background(), "CASE-1", ActionCommentAdded, TypeComment)
		require.False(t, seen[e.ID])
		seen[e.ID] = true
	}
}

func TestDescribeClient(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "browser", raw: chromeUA, want: []string{"Chrome 120", "Windows"}},
		{name: "bot", raw: "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", want: []string{"bot: "}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescribeClient(tt.raw)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, DescribeClient("   "))
	})
}

func TestLogPending(t *testing.T) {
	l := Restore([]Entry{{ID: "ACT-1"}, {ID: "ACT-2"}})
	assert.Empty(t, l.Pending())

	l.Append(Entry{ID: "ACT-3"})
	pending := l.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, domain.ActivityID("ACT-3"), pending[0].ID)

	clone := l.Clone()
	clone.Append(Entry{ID: "ACT-4"})
	assert.Equal(t, 3, l.Len(), "clones do not share storage")

	l.MarkPersisted()
	assert.Empty(t, l.Pending())
}

func TestLogJSONRoundTripMarksPersisted(t *testing.T) {
	var l Log
	l.Append(Entry{ID: "ACT-1", Action: ActionCaseCreated})
	raw, err := json.Marshal(l)
	require.NoError(t, err)

	var back Log
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, 1, back.Len())
	assert.Empty(t, back.Pending())
}

func TestStatusWalk(t *testing.T) {
	graph := workflow.Default().Case
	entries := []Entry{
		{Subject: SubjectCase, Type: TypeCreate, NewValue: "DRAFT"},
		{Subject: SubjectParty, Type: TypeLink, NewValue: "DIRECTOR"},
		{Subject: SubjectCase, Type: TypeStatusChange, PreviousValue: "DRAFT", NewValue: "PENDING_CHECKER_REVIEW"},
		{Subject: SubjectSubmission, Type: TypeStatusChange, NewValue: "VERIFIED"},
		{Subject: SubjectCase, Type: TypeStatusChange, PreviousValue: "PENDING_CHECKER_REVIEW", NewValue: "REJECTED"},
		{Subject: SubjectCase, Type: TypeStatusChange, PreviousValue: "REJECTED", NewValue: "DRAFT"},
	}

	walk := StatusWalk(entries)
	assert.Equal(t, []workflow.State{"DRAFT", "PENDING_CHECKER_REVIEW", "REJECTED", "DRAFT"}, walk)
	assert.NoError(t, graph.ValidWalk(walk))

	skipped := append(walk, "APPROVED")
	assert.Error(t, graph.ValidWalk(skipped))
}
