package service

import (
	"time"

	"github.com/shopspring/decimal"

	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/pkg/domain"
)

// CreateCaseCommand opens a new case. Risk defaults to MEDIUM and
// priority to NORMAL.
type CreateCaseCommand struct {
	Entity               models.EntityData
	RiskLevel            domain.RiskLevel
	Priority             domain.Priority
	AssignedTeam         string
	TargetCompletionDate *time.Time
}

// UpdateCaseCommand changes the mutable case fields. Nil fields are left
// unchanged.
type UpdateCaseCommand = models.Update

// LinkPartyCommand links an existing party to a case.
type LinkPartyCommand struct {
	PartyID             domain.PartyID
	RelationshipType    string
	OwnershipPercentage decimal.Decimal
	StartDate           *time.Time
	EndDate             *time.Time
}

// AddCommentCommand attaches a note to a submission.
type AddCommentCommand struct {
	Text     string
	Internal bool
}

// ApproveCommand records an approval decision. AccountID is required for
// ACCOUNT snapshots and ignored for KYC.
type ApproveCommand struct {
	Type      approval.Type
	AccountID domain.AccountID
	Decision  approval.Decision
	Comment   string
}
