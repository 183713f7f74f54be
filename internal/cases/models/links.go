package models

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"casedesk/internal/requirements"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
)

// Submission statuses. MISSING is implicit: a requirement with no
// submission has no link or an empty submission list.
const (
	SubmissionPendingChecker    workflow.State = "PENDING_CHECKER_VERIFICATION"
	SubmissionPendingCompliance workflow.State = "PENDING_COMPLIANCE_VERIFICATION"
	SubmissionVerified          workflow.State = "VERIFIED"
	SubmissionRejected          workflow.State = "REJECTED"
)

// Method records how the document reached the case. The core only keeps
// the resulting master document reference.
type Method string

const (
	MethodUpload Method = "UPLOAD"
	MethodScan   Method = "SCAN"
	MethodLink   Method = "LINK"
	MethodManual Method = "MANUAL"
)

func (m Method) IsValid() bool {
	switch m {
	case MethodUpload, MethodScan, MethodLink, MethodManual:
		return true
	}
	return false
}

var hundred = decimal.NewFromInt(100)

// CasePartyLink is a weak reference from a case to a party. The party's
// lifecycle is independent; only its id is stored.
type CasePartyLink struct {
	ID                  domain.LinkID   `json:"id"`
	PartyID             domain.PartyID  `json:"party_id"`
	RelationshipType    string          `json:"relationship_type"`
	OwnershipPercentage decimal.Decimal `json:"ownership_percentage"`
	IsPrimary           bool            `json:"is_primary"`
	StartDate           *time.Time      `json:"start_date,omitempty"`
	EndDate             *time.Time      `json:"end_date,omitempty"`
	LinkedAt            time.Time       `json:"linked_at"`
	LinkedBy            string          `json:"linked_by"`
}

func (l CasePartyLink) clone() CasePartyLink {
	l.StartDate = clonePtr(l.StartDate)
	l.EndDate = clonePtr(l.EndDate)
	return l
}

// CanLinkParty validates a new party link. The same party may hold several
// relationships, but each (party, relationship) pair only once.
func (c *Case) CanLinkParty(link CasePartyLink) error {
	if err := c.CanModify(); err != nil {
		return err
	}
	if strings.TrimSpace(link.RelationshipType) == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "relationship type cannot be empty")
	}
	if link.OwnershipPercentage.IsNegative() || link.OwnershipPercentage.GreaterThan(hundred) {
		return dErrors.New(dErrors.CodeInvariantViolation, "ownership percentage must be between 0 and 100")
	}
	if link.StartDate != nil && link.EndDate != nil && link.EndDate.Before(*link.StartDate) {
		return dErrors.New(dErrors.CodeInvariantViolation, "end date cannot precede start date")
	}
	for _, l := range c.PartyLinks {
		if l.PartyID == link.PartyID && strings.EqualFold(l.RelationshipType, link.RelationshipType) {
			return dErrors.New(dErrors.CodeConflict, "party is already linked with this relationship")
		}
	}
	return nil
}

// ApplyLinkParty appends link. The first link of a case is primary.
func (c *Case) ApplyLinkParty(link CasePartyLink, now time.Time) CasePartyLink {
	link.IsPrimary = len(c.PartyLinks) == 0
	c.PartyLinks = append(c.PartyLinks, link)
	c.UpdatedAt = now
	return link
}

// CaseDocumentLink connects one resolved requirement to the submissions
// made for it. Submissions are append-only; the latest one is current.
type CaseDocumentLink struct {
	ID            domain.DocLinkID `json:"id"`
	RequirementID string           `json:"requirement_id"`
	Name          string           `json:"name"`
	OwnerID       string           `json:"owner_id"`
	Mandatory     bool             `json:"mandatory"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Submissions   []Submission     `json:"submissions"`
}

// Latest returns the current submission, or nil when none was made.
func (l *CaseDocumentLink) Latest() *Submission {
	if len(l.Submissions) == 0 {
		return nil
	}
	return &l.Submissions[len(l.Submissions)-1]
}

// Status is the current submission status, or MISSING.
func (l *CaseDocumentLink) Status() string {
	if s := l.Latest(); s != nil {
		return string(s.Status)
	}
	return requirements.StatusMissing
}

func (l CaseDocumentLink) clone() CaseDocumentLink {
	l.DueDate = clonePtr(l.DueDate)
	subs := make([]Submission, len(l.Submissions))
	for i := range l.Submissions {
		subs[i] = l.Submissions[i].clone()
	}
	l.Submissions = subs
	return l
}

// DocumentLink returns the link for requirementID, or nil.
func (c *Case) DocumentLink(requirementID string) *CaseDocumentLink {
	for i := range c.DocumentLinks {
		if c.DocumentLinks[i].RequirementID == requirementID {
			return &c.DocumentLinks[i]
		}
	}
	return nil
}

// EnsureDocumentLink returns the link for item, creating it on first use.
// Mandatory follows the requirement's Required flag.
func (c *Case) EnsureDocumentLink(item requirements.Item, now time.Time) *CaseDocumentLink {
	if l := c.DocumentLink(item.ID); l != nil {
		return l
	}
	c.DocumentLinks = append(c.DocumentLinks, CaseDocumentLink{
		ID:            domain.NewDocLinkID(),
		RequirementID: item.ID,
		Name:          item.Name,
		OwnerID:       item.OwnerID,
		Mandatory:     item.Required,
		CreatedAt:     now,
	})
	return &c.DocumentLinks[len(c.DocumentLinks)-1]
}

// FindSubmission locates a submission and the link that holds it.
func (c *Case) FindSubmission(id domain.SubmissionID) (*CaseDocumentLink, *Submission, bool) {
	for i := range c.DocumentLinks {
		l := &c.DocumentLinks[i]
		for j := range l.Submissions {
			if l.Submissions[j].ID == id {
				return l, &l.Submissions[j], true
			}
		}
	}
	return nil, nil, false
}

// SubmissionData is the caller-supplied part of a new submission.
type SubmissionData struct {
	MasterDocID   string
	Method        Method
	PublishedDate *time.Time
	ExpiryDate    *time.Time
	Pages         int
}

// Submission is one concrete attempt to satisfy a requirement.
type Submission struct {
	ID                   domain.SubmissionID `json:"id"`
	MasterDocID          string              `json:"master_doc_id"`
	Status               workflow.State      `json:"status"`
	Method               Method              `json:"method"`
	SubmittedAt          time.Time           `json:"submitted_at"`
	SubmittedBy          string              `json:"submitted_by"`
	PublishedDate        *time.Time          `json:"published_date,omitempty"`
	ExpiryDate           *time.Time          `json:"expiry_date,omitempty"`
	Pages                int                 `json:"pages,omitempty"`
	CheckerReviewedAt    *time.Time          `json:"checker_reviewed_at,omitempty"`
	CheckerReviewedBy    string              `json:"checker_reviewed_by,omitempty"`
	ComplianceReviewedAt *time.Time          `json:"compliance_reviewed_at,omitempty"`
	ComplianceReviewedBy string              `json:"compliance_reviewed_by,omitempty"`
	Comments             []Comment           `json:"comments"`
}

func (s Submission) clone() Submission {
	s.PublishedDate = clonePtr(s.PublishedDate)
	s.ExpiryDate = clonePtr(s.ExpiryDate)
	s.CheckerReviewedAt = clonePtr(s.CheckerReviewedAt)
	s.ComplianceReviewedAt = clonePtr(s.ComplianceReviewedAt)
	s.Comments = slices.Clone(s.Comments)
	return s
}

// IsPending reports a submission still waiting for a review.
func (s *Submission) IsPending() bool {
	return s.Status == SubmissionPendingChecker || s.Status == SubmissionPendingCompliance
}

// IsExpiredAt reports whether the declared expiry date is before the
// calendar day of now. A document expiring today is still accepted.
func (s *Submission) IsExpiredAt(now time.Time) bool {
	if s.ExpiryDate == nil {
		return false
	}
	y, m, d := now.UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := s.ExpiryDate.UTC().Date()
	return time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC).Before(today)
}

// CanSubmit validates a new submission against link.
func (c *Case) CanSubmit(link *CaseDocumentLink, data SubmissionData) error {
	if err := c.CanModify(); err != nil {
		return err
	}
	if strings.TrimSpace(data.MasterDocID) == "" {
		return dErrors.New(dErrors.CodeValidation, "master document id is required")
	}
	if data.Method != "" && !data.Method.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "invalid submission method")
	}
	if data.Pages < 0 {
		return dErrors.New(dErrors.CodeValidation, "pages cannot be negative")
	}
	if data.PublishedDate != nil && data.ExpiryDate != nil && data.ExpiryDate.Before(*data.PublishedDate) {
		return dErrors.New(dErrors.CodeValidation, "expiry date cannot precede published date")
	}
	if link != nil {
		if latest := link.Latest(); latest != nil && latest.IsPending() {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"requirement "+link.RequirementID+" already has a submission awaiting review")
		}
	}
	return nil
}

// ApplySubmit appends a new submission in the submission graph's initial
// state.
func (c *Case) ApplySubmit(link *CaseDocumentLink, data SubmissionData, initial workflow.State, actor domain.Actor, now time.Time) *Submission {
	method := data.Method
	if method == "" {
		method = MethodUpload
	}
	link.Submissions = append(link.Submissions, Submission{
		ID:            domain.NewSubmissionID(),
		MasterDocID:   strings.TrimSpace(data.MasterDocID),
		Status:        initial,
		Method:        method,
		SubmittedAt:   now,
		SubmittedBy:   actor.ID,
		PublishedDate: clonePtr(data.PublishedDate),
		ExpiryDate:    clonePtr(data.ExpiryDate),
		Pages:         data.Pages,
	})
	c.UpdatedAt = now
	return link.Latest()
}

// CanReview checks that sub is the current submission of link and, for a
// verification, that the document has not expired. The workflow check is
// done by the caller.
func (c *Case) CanReview(link *CaseDocumentLink, sub *Submission, target workflow.State, now time.Time) error {
	if err := c.CanModify(); err != nil {
		return err
	}
	if link.Latest().ID != sub.ID {
		return dErrors.New(dErrors.CodeInvalidTransition, "only the latest submission of a requirement can be reviewed")
	}
	if target == SubmissionVerified && sub.IsExpiredAt(now) {
		return dErrors.New(dErrors.CodeExpiredDocument, "document expired on "+sub.ExpiryDate.Format(time.DateOnly))
	}
	return nil
}

// ApplyReview moves sub to target and stamps the reviewer of the stage it
// leaves.
func (c *Case) ApplyReview(sub *Submission, target workflow.State, actor domain.Actor, now time.Time) workflow.State {
	previous := sub.Status
	at := now
	switch previous {
	case SubmissionPendingChecker:
		sub.CheckerReviewedAt = &at
		sub.CheckerReviewedBy = actor.ID
	case SubmissionPendingCompliance:
		sub.ComplianceReviewedAt = &at
		sub.ComplianceReviewedBy = actor.ID
	}
	sub.Status = target
	c.UpdatedAt = now
	return previous
}

const maxCommentLength = 4000

// Comment is a note on a submission. Comments never change state.
type Comment struct {
	ID         domain.CommentID `json:"id"`
	Author     string           `json:"author"`
	AuthorName string           `json:"author_name"`
	AuthorRole domain.Role      `json:"author_role"`
	Text       string           `json:"text"`
	Internal   bool             `json:"internal"`
	CreatedAt  time.Time        `json:"created_at"`
}

// NewComment validates text and builds a comment by actor.
func NewComment(actor domain.Actor, text string, internal bool, now time.Time) (Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Comment{}, dErrors.New(dErrors.CodeValidation, "comment text cannot be empty")
	}
	if len(text) > maxCommentLength {
		return Comment{}, dErrors.New(dErrors.CodeValidation, "comment must be 4000 characters or less")
	}
	return Comment{
		ID:         domain.NewCommentID(),
		Author:     actor.ID,
		AuthorName: actor.Label(),
		AuthorRole: actor.Role,
		Text:       text,
		Internal:   internal,
		CreatedAt:  now,
	}, nil
}

// ApplyComment attaches comment to sub. Allowed in any case status.
func (c *Case) ApplyComment(sub *Submission, comment Comment, now time.Time) {
	sub.Comments = append(sub.Comments, comment)
	c.UpdatedAt = now
}
