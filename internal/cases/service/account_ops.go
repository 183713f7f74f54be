package service

import (
	"context"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/internal/notify"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/requestcontext"
)

// ProposeAccount proposes a new account under an open case.
func (s *Service) ProposeAccount(ctx context.Context, id domain.CaseID, data models.AccountData) (*models.Case, error) {
	return s.mutate(ctx, "propose_account", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		if !s.tables.Account.Authorize(s.tables.Account.Initial(), actor.Role) {
			return nil, dErrors.New(dErrors.CodeUnauthorizedActor, "role "+string(actor.Role)+" may not propose accounts")
		}
		if err := c.CanProposeAccount(data); err != nil {
			return nil, err
		}
		acc := c.ApplyProposeAccount(data, actor, requestcontext.Now(ctx))
		s.record(ctx, c, activity.ActionAccountProposed, activity.TypeCreate,
			activity.On(activity.SubjectAccount, string(acc.ID)),
			activity.Change("", string(acc.Status)),
			activity.Details(acc.AccountType+" "+acc.Currency),
		)
		return nil, nil
	})
}

// TransitionAccount moves an account along the account graph. Moving a
// reviewed account to ACTIVE goes through activation with a generated
// account number.
func (s *Service) TransitionAccount(ctx context.Context, id domain.CaseID, accountID domain.AccountID, target workflow.State) (*models.Case, error) {
	return s.mutate(ctx, "transition_account", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		acc := c.Account(accountID)
		if acc == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "account "+string(accountID)+" not found")
		}
		if target == models.AccountActive && acc.Status == models.AccountPendingComplianceReview {
			return s.activate(ctx, c, acc, actor, s.numbers())
		}
		if err := s.tables.Account.Check(acc.Status, target, actor.Role); err != nil {
			return nil, err
		}
		return []notify.Event{s.applyAccountStatus(ctx, c, acc, target, actor, "")}, nil
	})
}

// ActivateAccount activates an account under accountNumber. The case must
// hold a KYC approval in force.
func (s *Service) ActivateAccount(ctx context.Context, id domain.CaseID, accountID domain.AccountID, accountNumber string) (*models.Case, error) {
	return s.mutate(ctx, "activate_account", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		acc := c.Account(accountID)
		if acc == nil {
			return nil, dErrors.New(dErrors.CodeNotFound, "account "+string(accountID)+" not found")
		}
		return s.activate(ctx, c, acc, actor, accountNumber)
	})
}

func (s *Service) activate(ctx context.Context, c *models.Case, acc *models.Account, actor domain.Actor, accountNumber string) ([]notify.Event, error) {
	if err := s.tables.Account.Check(acc.Status, models.AccountActive, actor.Role); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	if err := c.CanActivate(acc, accountNumber, now); err != nil {
		return nil, err
	}
	from := c.ApplyActivate(acc, accountNumber, actor, now)
	s.record(ctx, c, activity.ActionAccountActivated, activity.TypeStatusChange,
		activity.On(activity.SubjectAccount, string(acc.ID)),
		activity.Change(string(from), string(acc.Status)),
		activity.Details(acc.AccountNumber),
	)
	if approval.LatestForAccount(c.Snapshots, acc.ID) == nil {
		s.newAccountSnapshot(ctx, c, acc, actor, approval.DecisionApproved, "approved on activation")
	}
	e := newEvent(ctx, notify.EventAccountStatusChanged, c, actor, string(from), string(acc.Status), string(acc.ID))
	return []notify.Event{e}, nil
}

// applyAccountStatus moves acc to target after every check has passed.
func (s *Service) applyAccountStatus(ctx context.Context, c *models.Case, acc *models.Account, target workflow.State, actor domain.Actor, comment string) notify.Event {
	from := c.ApplyAccountStatus(acc, target, requestcontext.Now(ctx))
	details := string(acc.ID)
	if comment != "" {
		details += ": " + comment
	}
	s.record(ctx, c, activity.ActionAccountStatusChanged, activity.TypeStatusChange,
		activity.On(activity.SubjectAccount, string(acc.ID)),
		activity.Change(string(from), string(target)),
		activity.Details(details),
	)
	e := newEvent(ctx, notify.EventAccountStatusChanged, c, actor, string(from), string(target), string(acc.ID))
	if target == models.AccountPendingComplianceReview {
		e.TargetRole = domain.RoleCompliance
	}
	return e
}
