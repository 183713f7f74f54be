package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedesk/pkg/domain"
)

func TestFanout(t *testing.T) {
	a, b := NewMemorySink(), NewMemorySink()
	sink := Fanout{a, nil, b, Discard{}}

	sink.Publish(context.Background(), NewEvent(Event{Type: EventApprovalRequired, CaseID: "CASE-1", TargetRole: domain.RoleChecker}))

	require.Len(t, a.Events(), 1)
	require.Len(t, b.Events(), 1)
	assert.NotEmpty(t, a.Events()[0].ID)
	assert.Equal(t, a.Events()[0].ID, b.Events()[0].ID)
}

func TestMemorySink(t *testing.T) {
	s := NewMemorySink()
	s.Publish(context.Background(), Event{Type: EventCaseStatusChanged})
	s.Publish(context.Background(), Event{Type: EventDocumentRejected})
	s.Publish(context.Background(), Event{Type: EventCaseStatusChanged})

	assert.Len(t, s.OfType(EventCaseStatusChanged), 2)

	events := s.Events()
	events[0].Type = "mutated"
	assert.Equal(t, EventCaseStatusChanged, s.Events()[0].Type)

	s.Reset()
	assert.Empty(t, s.Events())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	sink.Publish(context.Background(), Event{ID: "e-1", Type: EventDocumentSubmitted, CaseID: "CASE-9"})

	assert.Contains(t, buf.String(), `"event_type":"document_submitted"`)
	assert.Contains(t, buf.String(), `"case_id":"CASE-9"`)
}
