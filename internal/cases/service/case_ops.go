package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/internal/notify"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/platform/tx"
	"casedesk/pkg/requestcontext"
)

// reviewerFor names the role that acts next on a review-pending case status.
var reviewerFor = map[workflow.State]domain.Role{
	models.CasePendingCheckerReview:    domain.RoleChecker,
	models.CasePendingComplianceReview: domain.RoleCompliance,
	models.CasePendingGMApproval:       domain.RoleGM,
}

// CreateCase opens a DRAFT case assigned to the calling RM.
func (s *Service) CreateCase(ctx context.Context, cmd CreateCaseCommand) (*models.Case, error) {
	id := domain.NewCaseID()
	ctx, span := s.start(ctx, "create_case", id)
	defer span.End()
	defer s.metrics.ObserveOperation("create_case", time.Now())

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "create_case", err)
	}
	if !s.tables.Case.Authorize(s.tables.Case.Initial(), actor.Role) {
		return nil, s.fail(ctx, span, "create_case",
			dErrors.New(dErrors.CodeUnauthorizedActor, "role "+string(actor.Role)+" may not open cases"))
	}

	now := requestcontext.Now(ctx)
	c, err := models.NewCase(id, cmd.Entity, cmd.RiskLevel, cmd.Priority, actor, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			err = dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, s.fail(ctx, span, "create_case", err)
	}
	c.AssignedTeam = strings.TrimSpace(cmd.AssignedTeam)
	c.TargetCompletionDate = cmd.TargetCompletionDate
	s.record(ctx, c, activity.ActionCaseCreated, activity.TypeCreate,
		activity.Change("", string(c.Status)),
		activity.Details(c.Entity.Name),
	)

	err = s.tx.RunInTx(ctx, id, func(ctx context.Context, store Store) error {
		return store.Create(ctx, c)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "create_case", err)
	}
	s.metrics.IncTransition(workflow.GraphCase, "", string(c.Status))
	return c.Clone(), nil
}

// UpdateCase changes risk level, priority, notes or assignment of an open
// case.
func (s *Service) UpdateCase(ctx context.Context, id domain.CaseID, cmd UpdateCaseCommand) (*models.Case, error) {
	return s.mutate(ctx, "update_case", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		if err := c.CanUpdate(cmd, actor); err != nil {
			return nil, err
		}
		previous := c.ApplyUpdate(cmd, requestcontext.Now(ctx))
		opts := []activity.Option{activity.Details("updated " + strings.Join(cmd.Fields(), ", "))}
		if previous != c.RiskLevel {
			opts = append(opts, activity.Change(string(previous), string(c.RiskLevel)))
		}
		s.record(ctx, c, activity.ActionCaseUpdated, activity.TypeUpdate, opts...)
		return nil, nil
	})
}

// LinkParty links an existing party to an open case. The first link is
// the primary one.
func (s *Service) LinkParty(ctx context.Context, id domain.CaseID, cmd LinkPartyCommand) (*models.Case, error) {
	return s.mutate(ctx, "link_party", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		if _, err := s.parties.FindByID(tx.Detach(ctx), cmd.PartyID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "party "+string(cmd.PartyID)+" not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load party")
		}
		now := requestcontext.Now(ctx)
		link := models.CasePartyLink{
			ID:                  domain.NewLinkID(),
			PartyID:             cmd.PartyID,
			RelationshipType:    strings.ToUpper(strings.TrimSpace(cmd.RelationshipType)),
			OwnershipPercentage: cmd.OwnershipPercentage,
			StartDate:           cmd.StartDate,
			EndDate:             cmd.EndDate,
			LinkedAt:            now,
			LinkedBy:            actor.ID,
		}
		if err := c.CanLinkParty(link); err != nil {
			return nil, err
		}
		link = c.ApplyLinkParty(link, now)
		s.record(ctx, c, activity.ActionPartyLinked, activity.TypeLink,
			activity.On(activity.SubjectParty, string(link.PartyID)),
			activity.Details(link.RelationshipType),
		)
		return nil, nil
	})
}

// TransitionCase moves a case along the case graph. Moving to APPROVED
// records a KYC approval snapshot, as Approve does.
func (s *Service) TransitionCase(ctx context.Context, id domain.CaseID, target workflow.State, comment string) (*models.Case, error) {
	return s.mutate(ctx, "transition_case", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		if target == models.CaseApproved {
			events, _, err := s.decideKYC(ctx, c, actor, approval.DecisionApproved, comment)
			return events, err
		}
		if err := s.tables.Case.Check(c.Status, target, actor.Role); err != nil {
			return nil, err
		}
		if _, err := s.checkGates(ctx, c, c.Status, target); err != nil {
			return nil, err
		}
		return s.applyCaseStatus(ctx, c, target, actor, comment), nil
	})
}

// applyCaseStatus moves c to target after every check has passed, records
// the activity entry and returns the notifications the move raises.
func (s *Service) applyCaseStatus(ctx context.Context, c *models.Case, target workflow.State, actor domain.Actor, comment string) []notify.Event {
	from := c.ApplyStatus(target, actor, requestcontext.Now(ctx))
	s.record(ctx, c, activity.StatusChanged(target), activity.TypeStatusChange,
		activity.Change(string(from), string(target)),
		activity.Details(comment),
	)
	events := []notify.Event{
		newEvent(ctx, notify.EventCaseStatusChanged, c, actor, string(from), string(target), comment),
	}
	if role, ok := reviewerFor[target]; ok {
		e := newEvent(ctx, notify.EventApprovalRequired, c, actor, string(from), string(target), comment)
		e.TargetRole = role
		events = append(events, e)
	}
	return events
}

func newEvent(ctx context.Context, t notify.EventType, c *models.Case, actor domain.Actor, from, to, detail string) notify.Event {
	return notify.NewEvent(notify.Event{
		Type:           t,
		CaseID:         c.ID,
		EntityName:     c.Entity.Name,
		PreviousStatus: from,
		NewStatus:      to,
		ActorID:        actor.ID,
		Detail:         detail,
		OccurredAt:     requestcontext.Now(ctx),
	})
}
