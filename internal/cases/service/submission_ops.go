package service

import (
	"context"
	"strings"

	"casedesk/internal/activity"
	"casedesk/internal/cases/models"
	"casedesk/internal/notify"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/requestcontext"
)

// CreateSubmission adds a submission for a requirement on the case's
// current checklist. The document link is created on first use.
func (s *Service) CreateSubmission(ctx context.Context, id domain.CaseID, requirementID string, data models.SubmissionData) (*models.Case, error) {
	return s.mutate(ctx, "create_submission", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		initial := s.tables.Submission.Initial()
		if !s.tables.Submission.Authorize(initial, actor.Role) {
			return nil, dErrors.New(dErrors.CodeUnauthorizedActor, "role "+string(actor.Role)+" may not submit documents")
		}
		if err := c.CanModify(); err != nil {
			return nil, err
		}

		cl, err := s.evaluate(ctx, c)
		if err != nil {
			return nil, err
		}
		entry, ok := cl.Find(requirementID)
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "requirement "+requirementID+" is not on the case checklist")
		}

		link := c.DocumentLink(requirementID)
		if err := c.CanSubmit(link, data); err != nil {
			return nil, err
		}
		now := requestcontext.Now(ctx)
		if link == nil {
			link = c.EnsureDocumentLink(entry.Item, now)
		}
		sub := c.ApplySubmit(link, data, initial, actor, now)
		s.record(ctx, c, activity.ActionDocumentSubmitted, activity.TypeSubmit,
			activity.On(activity.SubjectSubmission, string(sub.ID)),
			activity.Change("", string(sub.Status)),
			activity.Details(link.Name),
		)

		e := newEvent(ctx, notify.EventDocumentSubmitted, c, actor, "", string(sub.Status), link.Name)
		e.TargetRole = domain.RoleChecker
		return []notify.Event{e}, nil
	})
}

// ReviewSubmission moves the latest submission of a requirement along the
// submission graph. A non-empty comment is attached to the submission.
func (s *Service) ReviewSubmission(ctx context.Context, id domain.CaseID, submissionID domain.SubmissionID, target workflow.State, comment string) (*models.Case, error) {
	return s.mutate(ctx, "review_submission", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		link, sub, ok := c.FindSubmission(submissionID)
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission "+string(submissionID)+" not found")
		}
		if err := s.tables.Submission.Check(sub.Status, target, actor.Role); err != nil {
			return nil, err
		}
		now := requestcontext.Now(ctx)
		if err := c.CanReview(link, sub, target, now); err != nil {
			return nil, err
		}

		var note *models.Comment
		if strings.TrimSpace(comment) != "" {
			cm, err := models.NewComment(actor, comment, false, now)
			if err != nil {
				return nil, err
			}
			note = &cm
		}

		from := c.ApplyReview(sub, target, actor, now)
		if note != nil {
			c.ApplyComment(sub, *note, now)
		}
		s.record(ctx, c, activity.ActionDocumentReviewed, activity.TypeReview,
			activity.On(activity.SubjectSubmission, string(sub.ID)),
			activity.Change(string(from), string(target)),
			activity.Details(link.Name),
		)

		events := []notify.Event{}
		switch target {
		case models.SubmissionRejected:
			e := newEvent(ctx, notify.EventDocumentRejected, c, actor, string(from), string(target), link.Name)
			e.TargetRole = domain.RoleRM
			e.TargetActorID = sub.SubmittedBy
			events = append(events, e)
		case models.SubmissionPendingCompliance:
			events = append(events, newEvent(ctx, notify.EventDocumentReviewed, c, actor, string(from), string(target), link.Name))
			e := newEvent(ctx, notify.EventApprovalRequired, c, actor, string(from), string(target), link.Name)
			e.TargetRole = domain.RoleCompliance
			events = append(events, e)
		default:
			events = append(events, newEvent(ctx, notify.EventDocumentReviewed, c, actor, string(from), string(target), link.Name))
		}
		return events, nil
	})
}

// AddComment attaches a note to a submission. It never changes state and
// is allowed in any case status.
func (s *Service) AddComment(ctx context.Context, id domain.CaseID, submissionID domain.SubmissionID, cmd AddCommentCommand) (*models.Case, error) {
	return s.mutate(ctx, "add_comment", id, func(ctx context.Context, c *models.Case, actor domain.Actor) ([]notify.Event, error) {
		_, sub, ok := c.FindSubmission(submissionID)
		if !ok {
			return nil, dErrors.New(dErrors.CodeNotFound, "submission "+string(submissionID)+" not found")
		}
		now := requestcontext.Now(ctx)
		cm, err := models.NewComment(actor, cmd.Text, cmd.Internal, now)
		if err != nil {
			return nil, err
		}
		c.ApplyComment(sub, cm, now)
		s.record(ctx, c, activity.ActionCommentAdded, activity.TypeComment,
			activity.On(activity.SubjectSubmission, string(sub.ID)),
		)
		return nil, nil
	})
}
