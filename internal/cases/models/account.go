package models

import (
	"slices"
	"strings"
	"time"

	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
)

// Account statuses.
const (
	AccountProposed                workflow.State = "PROPOSED"
	AccountPendingComplianceReview workflow.State = "PENDING_COMPLIANCE_REVIEW"
	AccountActive                  workflow.State = "ACTIVE"
	AccountRejected                workflow.State = "REJECTED"
	AccountDormant                 workflow.State = "DORMANT"
	AccountClosed                  workflow.State = "CLOSED"
)

// Signatory is a linked party allowed to operate an account.
type Signatory struct {
	PartyID       domain.PartyID `json:"party_id"`
	SignatoryType string         `json:"signatory_type"`
	SignatureRule string         `json:"signature_rule,omitempty"`
	Active        bool           `json:"active"`
}

// AccountData is the caller-supplied part of an account proposal.
type AccountData struct {
	AccountType string
	Currency    string
	Purpose     string
	Signatories []Signatory
}

// Account is a bank account proposed under a case.
type Account struct {
	ID              domain.AccountID `json:"id"`
	AccountType     string           `json:"account_type"`
	Currency        string           `json:"currency"`
	Purpose         string           `json:"purpose,omitempty"`
	Status          workflow.State   `json:"status"`
	PrimaryHolderID domain.PartyID   `json:"primary_holder_id,omitempty"`
	Signatories     []Signatory      `json:"signatories"`
	AccountNumber   string           `json:"account_number,omitempty"`
	ProposedAt      time.Time        `json:"proposed_at"`
	ProposedBy      string           `json:"proposed_by"`
	ActivatedAt     *time.Time       `json:"activated_at,omitempty"`
	ActivatedBy     string           `json:"activated_by,omitempty"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (a Account) clone() Account {
	a.Signatories = slices.Clone(a.Signatories)
	a.ActivatedAt = clonePtr(a.ActivatedAt)
	return a
}

// Account returns the account with id, or nil.
func (c *Case) Account(id domain.AccountID) *Account {
	for i := range c.Accounts {
		if c.Accounts[i].ID == id {
			return &c.Accounts[i]
		}
	}
	return nil
}

// CanProposeAccount validates an account proposal. Every signatory must
// be a party linked to the case.
func (c *Case) CanProposeAccount(data AccountData) error {
	if err := c.CanModify(); err != nil {
		return err
	}
	if strings.TrimSpace(data.AccountType) == "" {
		return dErrors.New(dErrors.CodeValidation, "account type is required")
	}
	if len(strings.TrimSpace(data.Currency)) != 3 {
		return dErrors.New(dErrors.CodeValidation, "currency must be a 3-letter code")
	}
	seen := make(map[domain.PartyID]bool, len(data.Signatories))
	for _, s := range data.Signatories {
		if !c.HasParty(s.PartyID) {
			return dErrors.New(dErrors.CodeValidation, "signatory "+string(s.PartyID)+" is not linked to the case")
		}
		if seen[s.PartyID] {
			return dErrors.New(dErrors.CodeValidation, "signatory "+string(s.PartyID)+" is listed twice")
		}
		seen[s.PartyID] = true
	}
	return nil
}

// ApplyProposeAccount appends a PROPOSED account. The first signatory is
// the primary holder.
func (c *Case) ApplyProposeAccount(data AccountData, actor domain.Actor, now time.Time) *Account {
	acc := Account{
		ID:          domain.NewAccountID(),
		AccountType: strings.ToUpper(strings.TrimSpace(data.AccountType)),
		Currency:    strings.ToUpper(strings.TrimSpace(data.Currency)),
		Purpose:     strings.TrimSpace(data.Purpose),
		Status:      AccountProposed,
		Signatories: make([]Signatory, 0, len(data.Signatories)),
		ProposedAt:  now,
		ProposedBy:  actor.ID,
		UpdatedAt:   now,
	}
	for _, s := range data.Signatories {
		s.Active = true
		acc.Signatories = append(acc.Signatories, s)
	}
	if len(acc.Signatories) > 0 {
		acc.PrimaryHolderID = acc.Signatories[0].PartyID
	}
	c.Accounts = append(c.Accounts, acc)
	c.UpdatedAt = now
	return &c.Accounts[len(c.Accounts)-1]
}

// ApplyAccountStatus moves acc to status.
func (c *Case) ApplyAccountStatus(acc *Account, status workflow.State, now time.Time) workflow.State {
	previous := acc.Status
	acc.Status = status
	acc.UpdatedAt = now
	c.UpdatedAt = now
	return previous
}

// CanActivate checks the activation preconditions that do not depend on
// the workflow graph: the account is awaiting compliance review, a number
// was assigned and the case holds a KYC approval in force.
func (c *Case) CanActivate(acc *Account, accountNumber string, now time.Time) error {
	if acc.Status != AccountPendingComplianceReview {
		return dErrors.New(dErrors.CodeInvalidTransition,
			"account must be "+string(AccountPendingComplianceReview)+" to activate, is "+string(acc.Status))
	}
	if strings.TrimSpace(accountNumber) == "" {
		return dErrors.New(dErrors.CodeValidation, "account number is required")
	}
	if !c.HasValidKYC(now) {
		return dErrors.New(dErrors.CodeCaseNotApproved, "case has no KYC approval in force")
	}
	return nil
}

// ApplyActivate makes acc ACTIVE and stamps the activation.
func (c *Case) ApplyActivate(acc *Account, accountNumber string, actor domain.Actor, now time.Time) workflow.State {
	previous := c.ApplyAccountStatus(acc, AccountActive, now)
	acc.AccountNumber = strings.TrimSpace(accountNumber)
	at := now
	acc.ActivatedAt = &at
	acc.ActivatedBy = actor.ID
	return previous
}
