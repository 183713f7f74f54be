package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/internal/cases/service"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
)

// CreateCaseRequest is the body of POST /cases.
type CreateCaseRequest struct {
	EntityName           string `json:"entity_name" validate:"required,max=200"`
	EntityType           string `json:"entity_type" validate:"required,entitytype"`
	RegistrationNumber   string `json:"registration_number" validate:"max=50"`
	TaxID                string `json:"tax_id" validate:"max=50"`
	LegalForm            string `json:"legal_form" validate:"max=100"`
	RegisteredAddress    string `json:"registered_address" validate:"max=500"`
	IncorporationCountry string `json:"incorporation_country" validate:"omitempty,len=2,alpha"`
	IncorporationDate    string `json:"incorporation_date"`
	Industry             string `json:"industry" validate:"max=100"`
	RiskLevel            string `json:"risk_level" validate:"omitempty,risklevel"`
	Priority             string `json:"priority" validate:"omitempty,priority"`
	AssignedTeam         string `json:"assigned_team" validate:"max=100"`
	TargetCompletionDate string `json:"target_completion_date"`

	cmd service.CreateCaseCommand
}

// Validate parses dates and enum values into the service command.
func (r *CreateCaseRequest) Validate() error {
	incorporated, err := parseDate("incorporation_date", r.IncorporationDate)
	if err != nil {
		return err
	}
	target, err := parseDate("target_completion_date", r.TargetCompletionDate)
	if err != nil {
		return err
	}
	r.cmd = service.CreateCaseCommand{
		Entity: models.EntityData{
			Name:                 strings.TrimSpace(r.EntityName),
			Type:                 domain.EntityType(strings.ToUpper(strings.TrimSpace(r.EntityType))),
			RegistrationNumber:   strings.TrimSpace(r.RegistrationNumber),
			TaxID:                strings.TrimSpace(r.TaxID),
			LegalForm:            strings.TrimSpace(r.LegalForm),
			RegisteredAddress:    strings.TrimSpace(r.RegisteredAddress),
			IncorporationCountry: strings.ToUpper(r.IncorporationCountry),
			IncorporationDate:    incorporated,
			Industry:             strings.TrimSpace(r.Industry),
		},
		RiskLevel:            domain.RiskLevel(strings.ToUpper(r.RiskLevel)),
		Priority:             domain.Priority(strings.ToUpper(r.Priority)),
		AssignedTeam:         r.AssignedTeam,
		TargetCompletionDate: target,
	}
	return nil
}

// Command returns the parsed service command.
func (r *CreateCaseRequest) Command() service.CreateCaseCommand {
	return r.cmd
}

// UpdateCaseRequest is the body of PATCH /cases/{caseID}. Absent fields are
// left unchanged.
type UpdateCaseRequest struct {
	RiskLevel            *string `json:"risk_level" validate:"omitempty,risklevel"`
	Priority             *string `json:"priority" validate:"omitempty,priority"`
	ComplianceNotes      *string `json:"compliance_notes" validate:"omitempty,max=4000"`
	AssignedTo           *string `json:"assigned_to" validate:"omitempty,max=100"`
	AssignedTeam         *string `json:"assigned_team" validate:"omitempty,max=100"`
	TargetCompletionDate *string `json:"target_completion_date"`

	cmd service.UpdateCaseCommand
}

func (r *UpdateCaseRequest) Validate() error {
	if r.RiskLevel != nil {
		risk := domain.RiskLevel(strings.ToUpper(*r.RiskLevel))
		r.cmd.RiskLevel = &risk
	}
	if r.Priority != nil {
		p := domain.Priority(strings.ToUpper(*r.Priority))
		r.cmd.Priority = &p
	}
	r.cmd.ComplianceNotes = r.ComplianceNotes
	r.cmd.AssignedTo = r.AssignedTo
	r.cmd.AssignedTeam = r.AssignedTeam
	if r.TargetCompletionDate != nil {
		target, err := parseDate("target_completion_date", *r.TargetCompletionDate)
		if err != nil {
			return err
		}
		r.cmd.TargetCompletionDate = target
	}
	if len(r.cmd.Fields()) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}
	return nil
}

func (r *UpdateCaseRequest) Command() service.UpdateCaseCommand {
	return r.cmd
}

// LinkPartyRequest is the body of POST /cases/{caseID}/parties.
type LinkPartyRequest struct {
	PartyID             string `json:"party_id" validate:"required,max=64"`
	RelationshipType    string `json:"relationship_type" validate:"required,max=50"`
	OwnershipPercentage string `json:"ownership_percentage"`
	StartDate           string `json:"start_date"`
	EndDate             string `json:"end_date"`

	cmd service.LinkPartyCommand
}

func (r *LinkPartyRequest) Validate() error {
	r.cmd = service.LinkPartyCommand{
		PartyID:          domain.PartyID(strings.TrimSpace(r.PartyID)),
		RelationshipType: r.RelationshipType,
	}
	if pct := strings.TrimSpace(r.OwnershipPercentage); pct != "" {
		d, err := decimal.NewFromString(pct)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "ownership_percentage must be a decimal number")
		}
		r.cmd.OwnershipPercentage = d
	}
	var err error
	if r.cmd.StartDate, err = parseDate("start_date", r.StartDate); err != nil {
		return err
	}
	if r.cmd.EndDate, err = parseDate("end_date", r.EndDate); err != nil {
		return err
	}
	return nil
}

func (r *LinkPartyRequest) Command() service.LinkPartyCommand {
	return r.cmd
}

// StatusRequest is the body of the case and account status endpoints.
type StatusRequest struct {
	Status  string `json:"status" validate:"required,max=64"`
	Comment string `json:"comment" validate:"max=2000"`
}

// Target returns the requested state in canonical form.
func (r *StatusRequest) Target() workflow.State {
	return workflow.State(strings.ToUpper(strings.TrimSpace(r.Status)))
}

// SubmissionRequest is the body of POST
// /cases/{caseID}/requirements/{requirementID}/submissions.
type SubmissionRequest struct {
	MasterDocID   string `json:"master_doc_id" validate:"required,max=128"`
	Method        string `json:"method" validate:"omitempty,oneof=UPLOAD SCAN LINK MANUAL"`
	PublishedDate string `json:"published_date"`
	ExpiryDate    string `json:"expiry_date"`
	Pages         int    `json:"pages" validate:"min=0,max=10000"`

	data models.SubmissionData
}

func (r *SubmissionRequest) Validate() error {
	published, err := parseDate("published_date", r.PublishedDate)
	if err != nil {
		return err
	}
	expiry, err := parseDate("expiry_date", r.ExpiryDate)
	if err != nil {
		return err
	}
	r.data = models.SubmissionData{
		MasterDocID:   strings.TrimSpace(r.MasterDocID),
		Method:        models.Method(r.Method),
		PublishedDate: published,
		ExpiryDate:    expiry,
		Pages:         r.Pages,
	}
	return nil
}

func (r *SubmissionRequest) Data() models.SubmissionData {
	return r.data
}

// ReviewRequest is the body of POST
// /cases/{caseID}/submissions/{submissionID}/review.
type ReviewRequest struct {
	Status  string `json:"status" validate:"required,oneof=PENDING_COMPLIANCE_VERIFICATION VERIFIED REJECTED"`
	Comment string `json:"comment" validate:"max=2000"`
}

// CommentRequest is the body of POST
// /cases/{caseID}/submissions/{submissionID}/comments.
type CommentRequest struct {
	Text     string `json:"text" validate:"required,max=2000"`
	Internal bool   `json:"internal"`
}

// SignatoryRequest names one signatory of a proposed account.
type SignatoryRequest struct {
	PartyID       string `json:"party_id" validate:"required,max=64"`
	SignatoryType string `json:"signatory_type" validate:"required,max=50"`
	SignatureRule string `json:"signature_rule" validate:"max=100"`
}

// ProposeAccountRequest is the body of POST /cases/{caseID}/accounts.
type ProposeAccountRequest struct {
	AccountType string             `json:"account_type" validate:"required,max=50"`
	Currency    string             `json:"currency" validate:"required,len=3,alpha"`
	Purpose     string             `json:"purpose" validate:"max=500"`
	Signatories []SignatoryRequest `json:"signatories" validate:"dive"`
}

func (r *ProposeAccountRequest) Data() models.AccountData {
	data := models.AccountData{
		AccountType: strings.ToUpper(strings.TrimSpace(r.AccountType)),
		Currency:    strings.ToUpper(r.Currency),
		Purpose:     strings.TrimSpace(r.Purpose),
	}
	for _, s := range r.Signatories {
		data.Signatories = append(data.Signatories, models.Signatory{
			PartyID:       domain.PartyID(strings.TrimSpace(s.PartyID)),
			SignatoryType: strings.ToUpper(strings.TrimSpace(s.SignatoryType)),
			SignatureRule: strings.TrimSpace(s.SignatureRule),
			Active:        true,
		})
	}
	return data
}

// ActivateAccountRequest is the body of POST
// /cases/{caseID}/accounts/{accountID}/activate.
type ActivateAccountRequest struct {
	AccountNumber string `json:"account_number" validate:"required,numeric,min=6,max=20"`
}

// ApproveRequest is the body of POST /cases/{caseID}/approvals.
type ApproveRequest struct {
	Type      string `json:"type" validate:"required,oneof=KYC ACCOUNT"`
	AccountID string `json:"account_id" validate:"max=64"`
	Decision  string `json:"decision" validate:"required,oneof=APPROVED REJECTED"`
	Comment   string `json:"comment" validate:"max=2000"`
}

func (r *ApproveRequest) Validate() error {
	if approval.Type(r.Type) == approval.TypeAccount && strings.TrimSpace(r.AccountID) == "" {
		return dErrors.New(dErrors.CodeValidation, "account_id is required for ACCOUNT approvals")
	}
	return nil
}

func (r *ApproveRequest) Command() service.ApproveCommand {
	return service.ApproveCommand{
		Type:      approval.Type(r.Type),
		AccountID: domain.AccountID(strings.TrimSpace(r.AccountID)),
		Decision:  approval.Decision(r.Decision),
		Comment:   strings.TrimSpace(r.Comment),
	}
}

// parseDate parses an optional YYYY-MM-DD value as a UTC midnight.
func parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.UTC)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, field+" must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
