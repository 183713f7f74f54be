package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"casedesk/internal/cases/models"
	"casedesk/internal/requirements"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/platform/tx"
)

// maxPartyLookups bounds concurrent party reads per checklist.
const maxPartyLookups = 8

// ResolveChecklist returns the target checklist of a case.
func (s *Service) ResolveChecklist(ctx context.Context, id domain.CaseID) ([]requirements.Item, error) {
	ctx, span := s.start(ctx, "resolve_checklist", id)
	defer span.End()

	c, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "resolve_checklist", err)
	}
	items, err := s.ResolveChecklistFor(ctx, c)
	if err != nil {
		return nil, s.fail(ctx, span, "resolve_checklist", err)
	}
	return items, nil
}

// Checklist returns the target checklist paired with the status of the
// latest submission of each requirement.
func (s *Service) Checklist(ctx context.Context, id domain.CaseID) (*requirements.Checklist, error) {
	ctx, span := s.start(ctx, "checklist", id)
	defer span.End()

	c, err := s.GetCase(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "checklist", err)
	}
	cl, err := s.evaluate(ctx, c)
	if err != nil {
		return nil, s.fail(ctx, span, "checklist", err)
	}
	return cl, nil
}

// ResolveChecklistFor resolves the checklist of a case the caller already
// holds. It never modifies c.
func (s *Service) ResolveChecklistFor(ctx context.Context, c *models.Case) ([]requirements.Item, error) {
	subject, err := s.subjectFor(ctx, c)
	if err != nil {
		return nil, err
	}
	items, err := s.resolver.Resolve(ctx, subject)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve checklist")
	}
	return items, nil
}

func (s *Service) evaluate(ctx context.Context, c *models.Case) (*requirements.Checklist, error) {
	items, err := s.ResolveChecklistFor(ctx, c)
	if err != nil {
		return nil, err
	}
	return requirements.Evaluate(items, c.LatestByRequirement()), nil
}

// subjectFor looks up the residency of every linked party concurrently.
// Parties are reference data, so the reads bypass any open case
// transaction.
func (s *Service) subjectFor(ctx context.Context, c *models.Case) (requirements.Subject, error) {
	ids := c.PartyIDs()
	subjects := make([]requirements.PartySubject, len(ids))

	g, gctx := errgroup.WithContext(tx.Detach(ctx))
	g.SetLimit(maxPartyLookups)
	for i, id := range ids {
		g.Go(func() error {
			p, err := s.parties.FindByID(gctx, id)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.Wrap(err, dErrors.CodeNotFound, "linked party "+string(id)+" not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load linked party")
			}
			subjects[i] = requirements.PartySubject{ID: id, ResidencyStatus: p.Residency()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return requirements.Subject{}, err
	}
	return requirements.Subject{
		EntityType:   c.Entity.Type,
		RiskLevel:    c.RiskLevel,
		Parties:      subjects,
		AccountTypes: c.ProposedAccountTypes(),
	}, nil
}

// checkGates enforces the checklist gates of a case transition:
// leaving DRAFT or PENDING_CHECKER_REVIEW forward needs every mandatory
// requirement VERIFIED, and elevated-risk cases need the risk-based group
// VERIFIED before GM approval.
func (s *Service) checkGates(ctx context.Context, c *models.Case, from, to workflow.State) (*requirements.Checklist, error) {
	needComplete := to != models.CaseRejected &&
		(from == models.CaseDraft || from == models.CasePendingCheckerReview)
	needRiskGroup := to == models.CasePendingGMApproval && c.RiskLevel.IsElevated()
	if !needComplete && !needRiskGroup {
		return nil, nil
	}

	cl, err := s.evaluate(ctx, c)
	if err != nil {
		return nil, err
	}
	if needComplete {
		missing := missingIDs(cl, c)
		if len(missing) > 0 {
			return nil, dErrors.New(dErrors.CodeIncompleteRequirements,
				"mandatory requirements not verified: "+strings.Join(missing, ", "))
		}
	}
	if needRiskGroup && !cl.GroupVerified(requirements.KindRiskBased) {
		return nil, dErrors.New(dErrors.CodeIncompleteRequirements,
			"risk-based requirements must be verified before "+string(models.CasePendingGMApproval))
	}
	return cl, nil
}

// missingIDs unions the required checklist items and the mandatory links
// that are not VERIFIED, in checklist order.
func missingIDs(cl *requirements.Checklist, c *models.Case) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range cl.Missing() {
		if !seen[it.ID] {
			seen[it.ID] = true
			out = append(out, it.ID)
		}
	}
	for _, id := range c.UnverifiedMandatoryLinks() {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
