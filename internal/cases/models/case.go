package models

import (
	"slices"
	"strings"
	"time"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/requirements"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
)

// Case statuses. The allowed moves between them live in the workflow tables.
const (
	CaseDraft                   workflow.State = "DRAFT"
	CasePendingCheckerReview    workflow.State = "PENDING_CHECKER_REVIEW"
	CasePendingComplianceReview workflow.State = "PENDING_COMPLIANCE_REVIEW"
	CasePendingGMApproval       workflow.State = "PENDING_GM_APPROVAL"
	CaseApproved                workflow.State = "APPROVED"
	CaseActive                  workflow.State = "ACTIVE"
	CaseRejected                workflow.State = "REJECTED"
)

const maxEntityNameLength = 200

// EntityData describes the applicant the case is opened for.
type EntityData struct {
	Name                 string            `json:"name"`
	Type                 domain.EntityType `json:"entity_type"`
	RegistrationNumber   string            `json:"registration_number,omitempty"`
	TaxID                string            `json:"tax_id,omitempty"`
	LegalForm            string            `json:"legal_form,omitempty"`
	RegisteredAddress    string            `json:"registered_address,omitempty"`
	IncorporationCountry string            `json:"incorporation_country,omitempty"`
	IncorporationDate    *time.Time        `json:"incorporation_date,omitempty"`
	Industry             string            `json:"industry,omitempty"`
}

// Case is the aggregate root of one account-opening workflow. Party links,
// document links, accounts, the activity log and approval snapshots are
// owned children and are loaded and saved together.
//
// Invariants:
//   - Entity name is non-empty and at most 200 characters
//   - Entity type and risk level are known values
//   - Status only moves along the case workflow graph
//   - Activity entries and snapshots are append-only
//   - Version increases by one on every successful save
type Case struct {
	ID                   domain.CaseID       `json:"id"`
	Status               workflow.State      `json:"status"`
	RiskLevel            domain.RiskLevel    `json:"risk_level"`
	Priority             domain.Priority     `json:"priority"`
	Entity               EntityData          `json:"entity"`
	AssignedTo           string              `json:"assigned_to,omitempty"`
	AssignedTeam         string              `json:"assigned_team,omitempty"`
	CheckedBy            string              `json:"checked_by,omitempty"`
	ApprovedBy           string              `json:"approved_by,omitempty"`
	ComplianceNotes      string              `json:"compliance_notes,omitempty"`
	CreatedBy            string              `json:"created_by"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	TargetCompletionDate *time.Time          `json:"target_completion_date,omitempty"`
	ActualCompletionDate *time.Time          `json:"actual_completion_date,omitempty"`
	Version              int64               `json:"version"`
	PartyLinks           []CasePartyLink     `json:"party_links"`
	DocumentLinks        []CaseDocumentLink  `json:"document_links"`
	Accounts             []Account           `json:"accounts"`
	Activity             activity.Log        `json:"activities"`
	Snapshots            []approval.Snapshot `json:"snapshots"`
}

// NewCase validates the applicant data and builds a DRAFT case owned by
// the creating actor.
func NewCase(id domain.CaseID, entity EntityData, risk domain.RiskLevel, priority domain.Priority, creator domain.Actor, now time.Time) (*Case, error) {
	entity.Name = strings.TrimSpace(entity.Name)
	if entity.Name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entity name cannot be empty")
	}
	if len(entity.Name) > maxEntityNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "entity name must be 200 characters or less")
	}
	if !entity.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid entity type")
	}
	if risk == "" {
		risk = domain.RiskMedium
	}
	if !risk.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid risk level")
	}
	if priority == "" {
		priority = domain.PriorityNormal
	}
	if !priority.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "invalid priority")
	}
	return &Case{
		ID:         id,
		Status:     CaseDraft,
		RiskLevel:  risk,
		Priority:   priority,
		Entity:     entity,
		AssignedTo: creator.ID,
		CreatedBy:  creator.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// IsClosed reports the terminal statuses. A rejected case stays closed
// until it is explicitly reopened.
func (c *Case) IsClosed() bool {
	return c.Status == CaseActive || c.Status == CaseRejected
}

// CanModify rejects changes to closed cases.
func (c *Case) CanModify() error {
	if c.IsClosed() {
		return dErrors.New(dErrors.CodeInvalidTransition, "case is "+string(c.Status)+" and cannot be modified")
	}
	return nil
}

// Update carries the optional fields of a case update. Nil fields are left
// unchanged.
type Update struct {
	RiskLevel            *domain.RiskLevel
	Priority             *domain.Priority
	ComplianceNotes      *string
	AssignedTo           *string
	AssignedTeam         *string
	TargetCompletionDate *time.Time
}

// Fields lists the names of the fields u sets, for the activity details.
func (u Update) Fields() []string {
	var out []string
	if u.RiskLevel != nil {
		out = append(out, "risk_level")
	}
	if u.Priority != nil {
		out = append(out, "priority")
	}
	if u.ComplianceNotes != nil {
		out = append(out, "compliance_notes")
	}
	if u.AssignedTo != nil {
		out = append(out, "assigned_to")
	}
	if u.AssignedTeam != nil {
		out = append(out, "assigned_team")
	}
	if u.TargetCompletionDate != nil {
		out = append(out, "target_completion_date")
	}
	return out
}

// CanUpdate checks u against the case status and the acting role. Outside
// DRAFT only compliance may re-rate a case, and once the case has left
// checker review its risk can only go up, so an elevated case cannot skip
// the GM step by being downgraded.
func (c *Case) CanUpdate(u Update, actor domain.Actor) error {
	if err := c.CanModify(); err != nil {
		return err
	}
	if len(u.Fields()) == 0 {
		return dErrors.New(dErrors.CodeValidation, "update has no fields")
	}
	if u.Priority != nil && !u.Priority.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid priority")
	}
	if u.RiskLevel == nil || *u.RiskLevel == c.RiskLevel {
		return nil
	}
	next := *u.RiskLevel
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "invalid risk level")
	}
	if c.Status == CaseDraft {
		return nil
	}
	if actor.Role != domain.RoleCompliance {
		return dErrors.New(dErrors.CodeUnauthorizedActor,
			"role "+string(actor.Role)+" may not change the risk level of a "+string(c.Status)+" case")
	}
	if c.Status != CasePendingCheckerReview && !next.IsAtLeast(c.RiskLevel) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"risk level cannot be lowered from "+string(c.RiskLevel)+" while the case is "+string(c.Status))
	}
	return nil
}

// ApplyUpdate writes u and returns the risk level the case had before.
func (c *Case) ApplyUpdate(u Update, now time.Time) domain.RiskLevel {
	previous := c.RiskLevel
	if u.RiskLevel != nil {
		c.RiskLevel = *u.RiskLevel
	}
	if u.Priority != nil {
		c.Priority = *u.Priority
	}
	if u.ComplianceNotes != nil {
		c.ComplianceNotes = *u.ComplianceNotes
	}
	if u.AssignedTo != nil {
		c.AssignedTo = *u.AssignedTo
	}
	if u.AssignedTeam != nil {
		c.AssignedTeam = *u.AssignedTeam
	}
	if u.TargetCompletionDate != nil {
		t := *u.TargetCompletionDate
		c.TargetCompletionDate = &t
	}
	c.UpdatedAt = now
	return previous
}

// ApplyStatus moves the case to status and stamps the reviewer fields.
// The workflow check and gates run before this call.
func (c *Case) ApplyStatus(status workflow.State, actor domain.Actor, now time.Time) workflow.State {
	previous := c.Status
	c.Status = status
	c.UpdatedAt = now
	if previous == CasePendingCheckerReview && status != CaseRejected {
		c.CheckedBy = actor.ID
	}
	if status == CaseApproved {
		c.ApprovedBy = actor.ID
		done := now
		c.ActualCompletionDate = &done
	}
	if status == CaseDraft {
		// Reopened: the earlier review no longer stands.
		c.CheckedBy = ""
		c.ApprovedBy = ""
		c.ActualCompletionDate = nil
	}
	return previous
}

// Record appends an activity entry to the case log.
func (c *Case) Record(e activity.Entry) {
	c.Activity.Append(e)
}

// AddSnapshot appends an approval to the case history.
func (c *Case) AddSnapshot(s *approval.Snapshot) {
	c.Snapshots = append(c.Snapshots, *s.Clone())
}

// KYCSnapshot returns the latest KYC approval event, or nil.
func (c *Case) KYCSnapshot() *approval.Snapshot {
	return approval.LatestKYC(c.Snapshots)
}

// HasValidKYC reports whether the case holds a KYC approval in force at t.
func (c *Case) HasValidKYC(t time.Time) bool {
	s := c.KYCSnapshot()
	return s != nil && s.IsValidAt(t)
}

// PartySubjects returns the distinct linked parties in link order.
func (c *Case) PartyIDs() []domain.PartyID {
	seen := make(map[domain.PartyID]bool, len(c.PartyLinks))
	var out []domain.PartyID
	for _, l := range c.PartyLinks {
		if seen[l.PartyID] {
			continue
		}
		seen[l.PartyID] = true
		out = append(out, l.PartyID)
	}
	return out
}

// HasParty reports whether id is linked to the case.
func (c *Case) HasParty(id domain.PartyID) bool {
	return slices.ContainsFunc(c.PartyLinks, func(l CasePartyLink) bool { return l.PartyID == id })
}

// ProposedAccountTypes returns the distinct account types of accounts that
// are not rejected or closed, in proposal order.
func (c *Case) ProposedAccountTypes() []string {
	seen := make(map[string]bool, len(c.Accounts))
	var out []string
	for _, a := range c.Accounts {
		if a.Status == AccountRejected || a.Status == AccountClosed {
			continue
		}
		if seen[a.AccountType] {
			continue
		}
		seen[a.AccountType] = true
		out = append(out, a.AccountType)
	}
	return out
}

// LatestByRequirement reports the most recent submission of every link,
// keyed by requirement id, for checklist evaluation.
func (c *Case) LatestByRequirement() map[string]requirements.Latest {
	out := make(map[string]requirements.Latest, len(c.DocumentLinks))
	for i := range c.DocumentLinks {
		if s := c.DocumentLinks[i].Latest(); s != nil {
			out[c.DocumentLinks[i].RequirementID] = requirements.Latest{
				SubmissionID: string(s.ID),
				Status:       string(s.Status),
			}
		}
	}
	return out
}

// UnverifiedMandatoryLinks returns the requirement ids of mandatory links
// whose latest submission is not VERIFIED.
func (c *Case) UnverifiedMandatoryLinks() []string {
	var out []string
	for i := range c.DocumentLinks {
		l := &c.DocumentLinks[i]
		if !l.Mandatory {
			continue
		}
		if s := l.Latest(); s == nil || s.Status != SubmissionVerified {
			out = append(out, l.RequirementID)
		}
	}
	return out
}

// VerifiedRecords copies every link whose latest submission is VERIFIED
// into snapshot records.
func (c *Case) VerifiedRecords() []approval.VerifiedSubmissionRecord {
	var out []approval.VerifiedSubmissionRecord
	for i := range c.DocumentLinks {
		l := &c.DocumentLinks[i]
		s := l.Latest()
		if s == nil || s.Status != SubmissionVerified {
			continue
		}
		r := approval.VerifiedSubmissionRecord{
			RequirementID: l.RequirementID,
			DocumentName:  l.Name,
			OwnerID:       l.OwnerID,
			SubmissionID:  s.ID,
			MasterDocID:   s.MasterDocID,
			VerifiedBy:    s.ComplianceReviewedBy,
			ExpiryDate:    clonePtr(s.ExpiryDate),
		}
		if s.ComplianceReviewedAt != nil {
			r.VerifiedAt = *s.ComplianceReviewedAt
		}
		out = append(out, r)
	}
	return out
}

// Clone returns a deep copy. Stores hand out clones so callers never share
// mutable state with the stored aggregate.
func (c *Case) Clone() *Case {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Entity.IncorporationDate = clonePtr(c.Entity.IncorporationDate)
	cp.TargetCompletionDate = clonePtr(c.TargetCompletionDate)
	cp.ActualCompletionDate = clonePtr(c.ActualCompletionDate)
	cp.PartyLinks = make([]CasePartyLink, len(c.PartyLinks))
	for i := range c.PartyLinks {
		cp.PartyLinks[i] = c.PartyLinks[i].clone()
	}
	cp.DocumentLinks = make([]CaseDocumentLink, len(c.DocumentLinks))
	for i := range c.DocumentLinks {
		cp.DocumentLinks[i] = c.DocumentLinks[i].clone()
	}
	cp.Accounts = make([]Account, len(c.Accounts))
	for i := range c.Accounts {
		cp.Accounts[i] = c.Accounts[i].clone()
	}
	cp.Activity = c.Activity.Clone()
	cp.Snapshots = approval.CloneAll(c.Snapshots)
	return &cp
}

// Filter narrows case listings. Zero values match everything.
type Filter struct {
	Status     workflow.State
	AssignedTo string
	Limit      int
}

// Matches reports whether c passes the filter.
func (f Filter) Matches(c *Case) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.AssignedTo != "" && c.AssignedTo != f.AssignedTo {
		return false
	}
	return true
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
