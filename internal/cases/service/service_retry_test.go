package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casedesk/internal/approval"
	"casedesk/internal/cases/metrics"
	"casedesk/internal/cases/models"
	"casedesk/internal/cases/service"
	"casedesk/internal/cases/service/mocks"
	"casedesk/internal/notify"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/requestcontext"
)

// RetrySuite drives the unit-of-work loop against mocked ports.
type RetrySuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	store    *mocks.MockStore
	parties  *mocks.MockPartyLookup
	resolver *mocks.MockChecklistResolver
	sink     *notify.MemorySink
	stored   *models.Case
	ctx      context.Context
}

func TestRetrySuite(t *testing.T) {
	suite.Run(t, new(RetrySuite))
}

func (s *RetrySuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.parties = mocks.NewMockPartyLookup(s.ctrl)
	s.resolver = mocks.NewMockChecklistResolver(s.ctrl)
	s.sink = notify.NewMemorySink()

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	c, err := models.NewCase("CASE-1", models.EntityData{Name: "Acme Pte Ltd", Type: domain.EntityNonListedCompany},
		domain.RiskLow, "", rm, now)
	s.Require().NoError(err)
	c.Status = models.CasePendingCheckerReview
	c.Version = 4
	s.stored = c

	s.ctx = requestcontext.WithTime(requestcontext.WithActor(context.Background(), checker), now)
}

func (s *RetrySuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RetrySuite) newService(tx service.TxRunner, opts ...service.Option) *service.Service {
	opts = append(opts, service.WithSink(s.sink))
	svc, err := service.New(s.store, tx, s.parties, s.resolver, opts...)
	s.Require().NoError(err)
	return svc
}

func (s *RetrySuite) expectReads(times int) {
	s.store.EXPECT().FindByID(gomock.Any(), domain.CaseID("CASE-1")).
		DoAndReturn(func(context.Context, domain.CaseID) (*models.Case, error) {
			return s.stored.Clone(), nil
		}).Times(times)
}

// =============================================================================
// Optimistic-lock retries
// =============================================================================

func (s *RetrySuite) TestConflictIsRetriedWithFreshRead() {
	s.expectReads(2)
	gomock.InOrder(
		s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
		s.store.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, c *models.Case) error {
			c.Version++
			return nil
		}),
	)
	svc := s.newService(service.NewShardedTx(s.store, 0))

	got, err := svc.TransitionCase(s.ctx, "CASE-1", models.CaseRejected, "missing pages")
	s.Require().NoError(err)
	s.Equal(models.CaseRejected, got.Status)
	s.Equal(int64(5), got.Version)

	// Justification: the losing attempt must not leak its notification.
	s.Len(s.sink.OfType(notify.EventCaseStatusChanged), 1)
}

func (s *RetrySuite) TestRetriesAreBounded() {
	s.expectReads(3)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict).Times(3)
	svc := s.newService(service.NewShardedTx(s.store, 0), service.WithMaxRetries(2))

	_, err := svc.TransitionCase(s.ctx, "CASE-1", models.CaseRejected, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConcurrentModification), "got %v", err)
	s.Empty(s.sink.Events())
}

func (s *RetrySuite) TestRefusalIsNotRetried() {
	s.expectReads(1)
	svc := s.newService(service.NewShardedTx(s.store, 0))

	_, err := svc.TransitionCase(s.ctx, "CASE-1", models.CaseActive, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
}

// =============================================================================
// Snapshot metrics
// =============================================================================

func (s *RetrySuite) snapshotCount(m *metrics.Metrics) float64 {
	var out dto.Metric
	s.Require().NoError(m.Snapshots.WithLabelValues(string(approval.TypeKYC), string(approval.DecisionRejected)).Write(&out))
	return out.GetCounter().GetValue()
}

func (s *RetrySuite) rejectKYC(svc *service.Service) error {
	ctx := requestcontext.WithActor(s.ctx, compliance)
	_, err := svc.Approve(ctx, "CASE-1", service.ApproveCommand{
		Type:     approval.TypeKYC,
		Decision: approval.DecisionRejected,
		Comment:  "adverse media",
	})
	return err
}

func (s *RetrySuite) TestSnapshotsAreCountedAfterCommit() {
	s.stored.Status = models.CasePendingComplianceReview

	s.Run("a retried attempt is counted once", func() {
		m := metrics.NewWith(prometheus.NewRegistry())
		s.expectReads(2)
		s.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
		gomock.InOrder(
			s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict),
			s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil),
		)
		svc := s.newService(service.NewShardedTx(s.store, 0), service.WithMetrics(m))

		s.Require().NoError(s.rejectKYC(svc))
		s.Equal(float64(1), s.snapshotCount(m))
	})

	s.Run("a failed save counts nothing", func() {
		m := metrics.NewWith(prometheus.NewRegistry())
		s.expectReads(1)
		s.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, nil)
		s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		svc := s.newService(service.NewShardedTx(s.store, 0), service.WithMetrics(m))

		s.Require().Error(s.rejectKYC(svc))
		s.Zero(s.snapshotCount(m))
	})
}

// =============================================================================
// Infrastructure failures
// =============================================================================

func (s *RetrySuite) TestTransactionTimeout() {
	tx := mocks.NewMockTxRunner(s.ctrl)
	tx.EXPECT().RunInTx(gomock.Any(), domain.CaseID("CASE-1"), gomock.Any()).Return(context.DeadlineExceeded)
	svc := s.newService(tx)

	_, err := svc.TransitionCase(s.ctx, "CASE-1", models.CaseRejected, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout), "got %v", err)
	s.Empty(s.sink.Events())
}

func (s *RetrySuite) TestMissingCase() {
	s.store.EXPECT().FindByID(gomock.Any(), domain.CaseID("CASE-404")).
		Return(nil, sentinel.ErrNotFound)
	svc := s.newService(service.NewShardedTx(s.store, 0))

	_, err := svc.TransitionCase(s.ctx, "CASE-404", models.CaseRejected, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "got %v", err)
}

func (s *RetrySuite) TestStoreFailureIsInternal() {
	s.expectReads(1)
	s.store.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
	svc := s.newService(service.NewShardedTx(s.store, 0))

	_, err := svc.TransitionCase(s.ctx, "CASE-1", models.CaseRejected, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal), "got %v", err)
}

func (s *RetrySuite) TestResolverFailureBlocksGate() {
	s.stored.Status = models.CaseDraft
	s.expectReads(1)
	s.resolver.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, errors.New("catalog unavailable"))
	svc := s.newService(service.NewShardedTx(s.store, 0))

	ctx := requestcontext.WithActor(s.ctx, rm)
	_, err := svc.TransitionCase(ctx, "CASE-1", models.CasePendingCheckerReview, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal), "got %v", err)
	s.Empty(s.sink.Events())
}
