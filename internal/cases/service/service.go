// Package service runs the case, submission and account state machines.
//
// Every mutation is one unit of work against one case aggregate: load,
// validate, apply, save with an optimistic version check, commit. Activity
// entries and approval snapshots are part of the aggregate, so they commit
// with the change they describe. Notifications go out only after commit.
package service

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/cases/metrics"
	"casedesk/internal/cases/models"
	"casedesk/internal/notify"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/requestcontext"
)

const defaultMaxRetries = 3

var tracer = otel.Tracer("casedesk/internal/cases/service")

// Service orchestrates the case workflow.
type Service struct {
	store      Store
	tx         TxRunner
	parties    PartyLookup
	resolver   ChecklistResolver
	tables     *workflow.Tables
	builder    *approval.Builder
	recorder   *activity.Recorder
	sink       notify.Sink
	logger     *slog.Logger
	metrics    *metrics.Metrics
	maxRetries int
	numbers    func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithSink sets where notifications are published. Without one they are
// dropped.
func WithSink(sink notify.Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithTables replaces the embedded workflow tables.
func WithTables(t *workflow.Tables) Option {
	return func(s *Service) {
		s.tables = t
	}
}

func WithPolicy(p approval.Policy) Option {
	return func(s *Service) {
		s.builder = approval.NewBuilder(p)
	}
}

// WithMaxRetries bounds how often a mutation is retried after a concurrent
// modification.
func WithMaxRetries(n int) Option {
	return func(s *Service) {
		s.maxRetries = n
	}
}

// WithAccountNumbers sets the generator used when an account is activated
// through a status transition.
func WithAccountNumbers(gen func() string) Option {
	return func(s *Service) {
		s.numbers = gen
	}
}

// New constructs a Service. store, tx, parties and resolver are required.
func New(store Store, tx TxRunner, parties PartyLookup, resolver ChecklistResolver, opts ...Option) (*Service, error) {
	if store == nil || tx == nil {
		return nil, errors.New("case store and transaction runner are required")
	}
	if parties == nil {
		return nil, errors.New("party lookup is required")
	}
	if resolver == nil {
		return nil, errors.New("checklist resolver is required")
	}
	s := &Service{
		store:      store,
		tx:         tx,
		parties:    parties,
		resolver:   resolver,
		recorder:   activity.NewRecorder(),
		maxRetries: defaultMaxRetries,
		numbers:    generateAccountNumber,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tables == nil {
		s.tables = workflow.Default()
	}
	if s.builder == nil {
		s.builder = approval.NewBuilder(approval.DefaultPolicy())
	}
	if s.sink == nil {
		s.sink = notify.Discard{}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.maxRetries < 0 {
		s.maxRetries = 0
	}
	return s, nil
}

// Tables exposes the workflow graphs the service enforces.
func (s *Service) Tables() *workflow.Tables {
	return s.tables
}

// GetCase loads one case.
func (s *Service) GetCase(ctx context.Context, id domain.CaseID) (*models.Case, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err, "case")
	}
	return c, nil
}

// ListCases returns cases matching filter.
func (s *Service) ListCases(ctx context.Context, filter models.Filter) ([]*models.Case, error) {
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cases")
	}
	return out, nil
}

// ListActivities returns the audit trail of a case in append order.
func (s *Service) ListActivities(ctx context.Context, id domain.CaseID) ([]activity.Entry, error) {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.Activity.Entries(), nil
}

// ListSnapshots returns copies of every approval snapshot of a case.
func (s *Service) ListSnapshots(ctx context.Context, id domain.CaseID) ([]approval.Snapshot, error) {
	c, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}
	return approval.CloneAll(c.Snapshots), nil
}

// mutation validates and applies one change to a freshly loaded case and
// returns the notifications to publish once the change has committed.
type mutation func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error)

// mutate runs fn as one unit of work, retrying with a fresh read when the
// save loses an optimistic-lock race.
func (s *Service) mutate(ctx context.Context, op string, id domain.CaseID, fn mutation) (*models.Case, error) {
	ctx, span := s.start(ctx, op, id)
	defer span.End()
	defer s.metrics.ObserveOperation(op, time.Now())

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, op, err)
	}

	var (
		saved  *models.Case
		events []notify.Event
		taken  []approval.Snapshot
	)
	for attempt := 0; ; attempt++ {
		err = s.tx.RunInTx(ctx, id, func(ctx context.Context, store Store) error {
			c, err := store.FindByID(ctx, id)
			if err != nil {
				return translate(err, "case")
			}
			before := len(c.Snapshots)
			events, err = fn(ctx, c, actor)
			if err != nil {
				return err
			}
			if err := store.Save(ctx, c); err != nil {
				return err
			}
			saved = c
			taken = c.Snapshots[before:]
			return nil
		})
		if !errors.Is(err, sentinel.ErrConflict) || attempt >= s.maxRetries {
			break
		}
		s.metrics.IncRetry()
		s.logger.WarnContext(ctx, "concurrent modification, retrying",
			"case_id", string(id),
			"operation", op,
			"attempt", attempt+1,
		)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			err = dErrors.Wrap(err, dErrors.CodeConcurrentModification, "case was modified concurrently, retry the request")
		}
		return nil, s.fail(ctx, span, op, err)
	}

	s.publish(ctx, events)
	// Counted after commit so a rolled back or retried attempt is not.
	for _, snap := range taken {
		s.metrics.IncSnapshot(string(snap.Type), string(snap.Decision))
	}
	return saved.Clone(), nil
}

// machineOf maps committed status events to the state machine they moved.
var machineOf = map[notify.EventType]string{
	notify.EventCaseStatusChanged:    workflow.GraphCase,
	notify.EventAccountStatusChanged: workflow.GraphAccount,
	notify.EventDocumentSubmitted:    workflow.GraphSubmission,
	notify.EventDocumentReviewed:     workflow.GraphSubmission,
	notify.EventDocumentRejected:     workflow.GraphSubmission,
}

func (s *Service) start(ctx context.Context, op string, id domain.CaseID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "cases."+op, trace.WithAttributes(
		attribute.String("case.id", string(id)),
		attribute.String("case.operation", op),
	))
}

// fail records a refused or failed operation and returns err translated
// for callers.
func (s *Service) fail(ctx context.Context, span trace.Span, op string, err error) error {
	err = translate(err, "case")
	code := dErrors.CodeOf(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(code))
	s.metrics.IncRefused(op, string(code))
	if code == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "case operation failed",
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	} else {
		s.logger.WarnContext(ctx, "case operation refused",
			"operation", op,
			"request_id", requestcontext.RequestID(ctx),
			"code", string(code),
			"error", err,
		)
	}
	return err
}

func (s *Service) publish(ctx context.Context, events []notify.Event) {
	for _, e := range events {
		if machine, ok := machineOf[e.Type]; ok {
			s.metrics.IncTransition(machine, e.PreviousStatus, e.NewStatus)
		}
		s.sink.Publish(ctx, e)
	}
}

// record appends an activity entry to c and logs the transition once.
func (s *Service) record(ctx context.Context, c *models.Case, action activity.Action, kind activity.Type, opts ...activity.Option) activity.Entry {
	e := s.recorder.Record(ctx, c.ID, action, kind, opts...)
	c.Record(e)
	s.logger.InfoContext(ctx, string(action),
		"case_id", string(c.ID),
		"request_id", e.RequestID,
		"actor_id", e.ActorID,
		"entity_type", string(e.Subject),
		"entity_id", e.SubjectID,
		"from_status", e.PreviousValue,
		"to_status", e.NewValue,
	)
	return e
}

func requireActor(ctx context.Context) (domain.Actor, error) {
	actor := requestcontext.Actor(ctx)
	if actor.IsZero() {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "actor is required")
	}
	if !actor.Role.IsValid() {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorizedActor, "actor has no known role")
	}
	return actor, nil
}

// translate maps infrastructure errors to coded errors. Coded errors pass
// through unchanged.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, what+" not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.Wrap(err, dErrors.CodeConflict, what+" already exists")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConcurrentModification, what+" was modified concurrently")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation timed out")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, fmt.Sprintf("failed to process %s", what))
	}
}

// generateAccountNumber derives a 12-digit account number from a random
// UUID.
func generateAccountNumber() string {
	u := uuid.New()
	n := binary.BigEndian.Uint64(u[:8]) % 1_000_000_000_000
	return fmt.Sprintf("%012d", n)
}
