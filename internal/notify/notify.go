// Package notify carries fire-and-forget notifications raised by case
// workflow changes. Sinks are passed to the case service explicitly; the
// service keeps no subscriber state.
package notify

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"casedesk/pkg/domain"
)

type EventType string

const (
	EventCaseStatusChanged    EventType = "case_status_changed"
	EventApprovalRequired     EventType = "approval_required"
	EventDocumentSubmitted    EventType = "document_submitted"
	EventDocumentReviewed     EventType = "document_reviewed"
	EventDocumentRejected     EventType = "document_rejected"
	EventAccountStatusChanged EventType = "account_status_changed"
)

// Event is one notification. TargetRole names the reviewers who should act,
// when there are any.
type Event struct {
	ID             string        `json:"id"`
	Type           EventType     `json:"type"`
	CaseID         domain.CaseID `json:"case_id"`
	EntityName     string        `json:"entity_name,omitempty"`
	TargetRole     domain.Role   `json:"target_role,omitempty"`
	TargetActorID  string        `json:"target_actor_id,omitempty"`
	PreviousStatus string        `json:"previous_status,omitempty"`
	NewStatus      string        `json:"new_status,omitempty"`
	ActorID        string        `json:"actor_id"`
	Detail         string        `json:"detail,omitempty"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// NewEvent stamps an id on e.
func NewEvent(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return e
}

// Sink receives events after the change that raised them has committed.
// Publish never reports delivery failures to the caller.
type Sink interface {
	Publish(ctx context.Context, e Event)
}

// Fanout publishes to every sink in order.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, e Event) {
	for _, s := range f {
		if s != nil {
			s.Publish(ctx, e)
		}
	}
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) {}

// LogSink writes events to a structured logger.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Publish(ctx context.Context, e Event) {
	s.logger.InfoContext(ctx, "notification",
		"event_id", e.ID,
		"event_type", string(e.Type),
		"case_id", string(e.CaseID),
		"target_role", string(e.TargetRole),
		"previous_status", e.PreviousStatus,
		"new_status", e.NewStatus,
		"actor_id", e.ActorID,
	)
}

// MemorySink keeps events in memory for tests and local inspection.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Publish(_ context.Context, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of everything published so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.events)
}

// OfType returns published events of one type.
func (s *MemorySink) OfType(t EventType) []Event {
	var out []Event
	for _, e := range s.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
