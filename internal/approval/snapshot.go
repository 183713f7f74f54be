// Package approval builds immutable approval snapshots: the frozen record
// of what was verified, by whom and under which risk rating at the moment
// a case or account was approved.
package approval

import (
	"slices"
	"time"

	"casedesk/pkg/domain"
)

// Type says what a snapshot approves.
type Type string

const (
	TypeKYC     Type = "KYC"
	TypeAccount Type = "ACCOUNT"
)

func (t Type) IsValid() bool {
	return t == TypeKYC || t == TypeAccount
}

type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

func (d Decision) IsValid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// VerifiedSubmissionRecord is a value copy of one VERIFIED submission taken
// at approval time. Later resubmissions never reach it.
type VerifiedSubmissionRecord struct {
	RequirementID string              `json:"requirement_id"`
	DocumentName  string              `json:"document_name"`
	OwnerID       string              `json:"owner_id"`
	SubmissionID  domain.SubmissionID `json:"submission_id"`
	MasterDocID   string              `json:"master_doc_id"`
	VerifiedAt    time.Time           `json:"verified_at"`
	VerifiedBy    string              `json:"verified_by"`
	ExpiryDate    *time.Time          `json:"expiry_date,omitempty"`
}

// Snapshot is an approval event. It is never mutated after Build; a new
// approval produces a new snapshot.
type Snapshot struct {
	ID                     domain.SnapshotID          `json:"id"`
	CaseID                 domain.CaseID              `json:"case_id"`
	Type                   Type                       `json:"type"`
	AccountID              domain.AccountID           `json:"account_id,omitempty"`
	ApprovedBy             string                     `json:"approved_by"`
	ApproverName           string                     `json:"approver_name"`
	ApproverRole           domain.Role                `json:"approver_role"`
	Decision               Decision                   `json:"decision"`
	Comment                string                     `json:"comment,omitempty"`
	RiskLevel              domain.RiskLevel           `json:"risk_level"`
	ChecklistCompleted     bool                       `json:"checklist_completed"`
	CreatedAt              time.Time                  `json:"created_at"`
	ValidUntil             time.Time                  `json:"valid_until"`
	PeriodicReviewRequired bool                       `json:"periodic_review_required"`
	NextReviewDate         *time.Time                 `json:"next_review_date,omitempty"`
	Records                []VerifiedSubmissionRecord `json:"records"`
}

// IsValidAt reports whether the snapshot is an approval still in force at t.
func (s *Snapshot) IsValidAt(t time.Time) bool {
	return s != nil && s.Decision == DecisionApproved && t.Before(s.ValidUntil)
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.NextReviewDate = clonePtr(s.NextReviewDate)
	cp.Records = make([]VerifiedSubmissionRecord, len(s.Records))
	for i, r := range s.Records {
		r.ExpiryDate = clonePtr(r.ExpiryDate)
		cp.Records[i] = r
	}
	return &cp
}

// CloneAll deep-copies a snapshot history.
func CloneAll(in []Snapshot) []Snapshot {
	if in == nil {
		return nil
	}
	out := make([]Snapshot, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}

// Latest returns the most recent snapshot matching keep, or nil.
func Latest(history []Snapshot, keep func(*Snapshot) bool) *Snapshot {
	for i := len(history) - 1; i >= 0; i-- {
		if keep(&history[i]) {
			return &history[i]
		}
	}
	return nil
}

// LatestKYC returns the most recent KYC snapshot, or nil.
func LatestKYC(history []Snapshot) *Snapshot {
	return Latest(history, func(s *Snapshot) bool { return s.Type == TypeKYC })
}

// LatestForAccount returns the most recent snapshot of an account, or nil.
func LatestForAccount(history []Snapshot, id domain.AccountID) *Snapshot {
	return Latest(history, func(s *Snapshot) bool { return s.Type == TypeAccount && s.AccountID == id })
}

// SortRecords orders records by requirement id for stable output.
func SortRecords(records []VerifiedSubmissionRecord) {
	slices.SortStableFunc(records, func(a, b VerifiedSubmissionRecord) int {
		switch {
		case a.RequirementID < b.RequirementID:
			return -1
		case a.RequirementID > b.RequirementID:
			return 1
		}
		return 0
	})
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
