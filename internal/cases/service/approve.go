package service

import (
	"context"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/internal/notify"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/requestcontext"
)

// Approve records an approval decision and freezes it into a snapshot.
//
// A KYC decision drives the matching case transition (APPROVED or
// REJECTED) through the same gates as TransitionCase. An ACCOUNT decision
// needs the account awaiting compliance review and a KYC approval in
// force; rejecting it also rejects the account.
func (s *Service) Approve(ctx context.Context, id domain.CaseID, cmd ApproveCommand) (*approval.Snapshot, error) {
	var snapshot *approval.Snapshot
	_, err := s.mutate(ctx, "approve", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		if !cmd.Type.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "snapshot type must be KYC or ACCOUNT")
		}
		if !cmd.Decision.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "decision must be APPROVED or REJECTED")
		}
		var (
			events []notify.Event
			err    error
		)
		if cmd.Type == approval.TypeKYC {
			events, snapshot, err = s.decideKYC(ctx, c, actor, cmd.Decision, cmd.Comment)
		} else {
			events, snapshot, err = s.decideAccount(ctx, c, actor, cmd.AccountID, cmd.Decision, cmd.Comment)
		}
		return events, err
	})
	if err != nil {
		return nil, err
	}
	return snapshot.Clone(), nil
}

// decideKYC applies a KYC decision to c. The workflow check runs first, so
// a role that may not take the step is refused as such. Elevated-risk cases
// can only be approved from GM approval.
func (s *Service) decideKYC(ctx context.Context, c *models.Case, actor domain.Actor, decision approval.Decision, comment string) ([]notify.Event, *approval.Snapshot, error) {
	target := models.CaseApproved
	if decision == approval.DecisionRejected {
		target = models.CaseRejected
	}
	if err := s.tables.Case.Check(c.Status, target, actor.Role); err != nil {
		return nil, nil, err
	}
	switch {
	case c.Status == models.CasePendingGMApproval:
	case c.Status == models.CasePendingComplianceReview:
		if decision == approval.DecisionApproved && c.RiskLevel.IsElevated() {
			return nil, nil, dErrors.New(dErrors.CodeInvalidTransition,
				string(c.RiskLevel)+" risk cases must be approved from "+string(models.CasePendingGMApproval))
		}
	default:
		return nil, nil, dErrors.New(dErrors.CodeInvalidTransition,
			"KYC decisions need the case in review, case is "+string(c.Status))
	}

	cl, err := s.checkGates(ctx, c, c.Status, target)
	if err != nil {
		return nil, nil, err
	}
	if cl == nil {
		if cl, err = s.evaluate(ctx, c); err != nil {
			return nil, nil, err
		}
	}

	snapshot := s.builder.Build(approval.Input{
		CaseID:             c.ID,
		Type:               approval.TypeKYC,
		Approver:           actor,
		Decision:           decision,
		Comment:            comment,
		RiskLevel:          c.RiskLevel,
		ChecklistCompleted: cl.Complete() && len(c.UnverifiedMandatoryLinks()) == 0,
		Verified:           c.VerifiedRecords(),
		Now:                requestcontext.Now(ctx),
	})
	c.AddSnapshot(snapshot)
	s.record(ctx, c, activity.ActionApprovalRecorded, activity.TypeApprove,
		activity.On(activity.SubjectSnapshot, string(snapshot.ID)),
		activity.Details(string(approval.TypeKYC)+" "+string(decision)),
	)
	return s.applyCaseStatus(ctx, c, target, actor, comment), snapshot, nil
}

func (s *Service) decideAccount(ctx context.Context, c *models.Case, actor domain.Actor, accountID domain.AccountID, decision approval.Decision, comment string) ([]notify.Event, *approval.Snapshot, error) {
	if accountID == "" {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "account id is required for ACCOUNT approvals")
	}
	acc := c.Account(accountID)
	if acc == nil {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "account "+string(accountID)+" not found")
	}
	if acc.Status != models.AccountPendingComplianceReview {
		return nil, nil, dErrors.New(dErrors.CodeInvalidTransition,
			"account decisions need the account in "+string(models.AccountPendingComplianceReview)+", account is "+string(acc.Status))
	}
	now := requestcontext.Now(ctx)
	if !c.HasValidKYC(now) {
		return nil, nil, dErrors.New(dErrors.CodeCaseNotApproved, "case has no KYC approval in force")
	}

	var err error
	if decision == approval.DecisionApproved {
		if !s.tables.Account.Authorize(models.AccountActive, actor.Role) {
			err = dErrors.New(dErrors.CodeUnauthorizedActor, "role "+string(actor.Role)+" may not approve accounts")
		}
	} else {
		err = s.tables.Account.Check(acc.Status, models.AccountRejected, actor.Role)
	}
	if err != nil {
		return nil, nil, err
	}

	snapshot := s.newAccountSnapshot(ctx, c, acc, actor, decision, comment)
	if decision == approval.DecisionApproved {
		return nil, snapshot, nil
	}
	return []notify.Event{s.applyAccountStatus(ctx, c, acc, models.AccountRejected, actor, comment)}, snapshot, nil
}

// newAccountSnapshot freezes an ACCOUNT decision for acc and records it.
func (s *Service) newAccountSnapshot(ctx context.Context, c *models.Case, acc *models.Account, actor domain.Actor, decision approval.Decision, comment string) *approval.Snapshot {
	snapshot := s.builder.Build(approval.Input{
		CaseID:             c.ID,
		Type:               approval.TypeAccount,
		AccountID:          acc.ID,
		Approver:           actor,
		Decision:           decision,
		Comment:            comment,
		RiskLevel:          c.RiskLevel,
		ChecklistCompleted: len(c.UnverifiedMandatoryLinks()) == 0,
		Verified:           c.VerifiedRecords(),
		Now:                requestcontext.Now(ctx),
	})
	c.AddSnapshot(snapshot)
	s.record(ctx, c, activity.ActionApprovalRecorded, activity.TypeApprove,
		activity.On(activity.SubjectSnapshot, string(snapshot.ID)),
		activity.Details(string(approval.TypeAccount)+" "+string(decision)+" "+string(acc.ID)),
	)
	return snapshot
}
