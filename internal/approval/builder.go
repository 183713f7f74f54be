package approval

import (
	"time"

	"casedesk/pkg/domain"
)

// Policy holds validity and periodic-review periods in months per risk level.
// A level missing from Review needs no periodic review.
type Policy struct {
	Validity map[domain.RiskLevel]int
	Review   map[domain.RiskLevel]int
}

func DefaultPolicy() Policy {
	return Policy{
		Validity: map[domain.RiskLevel]int{
			domain.RiskLow:      36,
			domain.RiskMedium:   24,
			domain.RiskHigh:     12,
			domain.RiskCritical: 6,
		},
		Review: map[domain.RiskLevel]int{
			domain.RiskMedium:   12,
			domain.RiskHigh:     6,
			domain.RiskCritical: 3,
		},
	}
}

// validityMonths falls back to the shortest configured period for levels
// the policy does not name.
func (p Policy) validityMonths(risk domain.RiskLevel) int {
	if m, ok := p.Validity[risk]; ok {
		return m
	}
	shortest := 0
	for _, m := range p.Validity {
		if shortest == 0 || m < shortest {
			shortest = m
		}
	}
	return shortest
}

// ValidUntil returns the end of the approval window for a snapshot taken at now.
func (p Policy) ValidUntil(risk domain.RiskLevel, now time.Time) time.Time {
	return now.AddDate(0, p.validityMonths(risk), 0)
}

// NextReview returns the periodic review date, if risk requires one.
func (p Policy) NextReview(risk domain.RiskLevel, now time.Time) (time.Time, bool) {
	if !risk.IsAtLeast(domain.RiskMedium) {
		return time.Time{}, false
	}
	m, ok := p.Review[risk]
	if !ok || m <= 0 {
		m = p.validityMonths(risk)
	}
	return now.AddDate(0, m, 0), true
}

// Input is everything a snapshot is built from. Verified holds the records
// of the currently VERIFIED submissions; Build copies them.
type Input struct {
	CaseID             domain.CaseID
	Type               Type
	AccountID          domain.AccountID
	Approver           domain.Actor
	Decision           Decision
	Comment            string
	RiskLevel          domain.RiskLevel
	ChecklistCompleted bool
	Verified           []VerifiedSubmissionRecord
	Now                time.Time
}

type Builder struct {
	policy Policy
}

func NewBuilder(policy Policy) *Builder {
	return &Builder{policy: policy}
}

func (b *Builder) Policy() Policy {
	return b.policy
}

// Build freezes in into a new snapshot. Rejections carry no validity
// window and no review date.
func (b *Builder) Build(in Input) *Snapshot {
	s := &Snapshot{
		ID:                 domain.NewSnapshotID(),
		CaseID:             in.CaseID,
		Type:               in.Type,
		AccountID:          in.AccountID,
		ApprovedBy:         in.Approver.ID,
		ApproverName:       in.Approver.Label(),
		ApproverRole:       in.Approver.Role,
		Decision:           in.Decision,
		Comment:            in.Comment,
		RiskLevel:          in.RiskLevel,
		ChecklistCompleted: in.ChecklistCompleted,
		CreatedAt:          in.Now,
		Records:            make([]VerifiedSubmissionRecord, 0, len(in.Verified)),
	}
	for _, r := range in.Verified {
		r.ExpiryDate = clonePtr(r.ExpiryDate)
		s.Records = append(s.Records, r)
	}
	SortRecords(s.Records)

	if in.Decision != DecisionApproved {
		return s
	}
	s.ValidUntil = b.policy.ValidUntil(in.RiskLevel, in.Now)
	if next, ok := b.policy.NextReview(in.RiskLevel, in.Now); ok {
		s.PeriodicReviewRequired = true
		s.NextReviewDate = &next
	}
	return s
}
