package handler

import (
	"time"

	"casedesk/internal/activity"
	"casedesk/internal/approval"
	"casedesk/internal/cases/models"
	"casedesk/internal/requirements"
)

// CaseResponse is the HTTP view of a case. Activities and snapshots have
// their own endpoints.
type CaseResponse struct {
	ID                   string                    `json:"id"`
	Status               string                    `json:"status"`
	RiskLevel            string                    `json:"risk_level"`
	Priority             string                    `json:"priority"`
	Entity               models.EntityData         `json:"entity"`
	AssignedTo           string                    `json:"assigned_to,omitempty"`
	AssignedTeam         string                    `json:"assigned_team,omitempty"`
	CheckedBy            string                    `json:"checked_by,omitempty"`
	ApprovedBy           string                    `json:"approved_by,omitempty"`
	ComplianceNotes      string                    `json:"compliance_notes,omitempty"`
	CreatedBy            string                    `json:"created_by"`
	CreatedAt            time.Time                 `json:"created_at"`
	UpdatedAt            time.Time                 `json:"updated_at"`
	TargetCompletionDate *time.Time                `json:"target_completion_date,omitempty"`
	ActualCompletionDate *time.Time                `json:"actual_completion_date,omitempty"`
	Version              int64                     `json:"version"`
	PartyLinks           []models.CasePartyLink    `json:"party_links"`
	DocumentLinks        []models.CaseDocumentLink `json:"document_links"`
	Accounts             []models.Account          `json:"accounts"`
	KYCValidUntil        *time.Time                `json:"kyc_valid_until,omitempty"`
}

func FromCase(c *models.Case) *CaseResponse {
	resp := &CaseResponse{
		ID:                   string(c.ID),
		Status:               string(c.Status),
		RiskLevel:            string(c.RiskLevel),
		Priority:             string(c.Priority),
		Entity:               c.Entity,
		AssignedTo:           c.AssignedTo,
		AssignedTeam:         c.AssignedTeam,
		CheckedBy:            c.CheckedBy,
		ApprovedBy:           c.ApprovedBy,
		ComplianceNotes:      c.ComplianceNotes,
		CreatedBy:            c.CreatedBy,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
		TargetCompletionDate: c.TargetCompletionDate,
		ActualCompletionDate: c.ActualCompletionDate,
		Version:              c.Version,
		PartyLinks:           nonNil(c.PartyLinks),
		DocumentLinks:        nonNil(c.DocumentLinks),
		Accounts:             nonNil(c.Accounts),
	}
	if kyc := c.KYCSnapshot(); kyc != nil && kyc.Decision == approval.DecisionApproved {
		until := kyc.ValidUntil
		resp.KYCValidUntil = &until
	}
	return resp
}

// CaseSummary is one row of GET /cases.
type CaseSummary struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	RiskLevel  string    `json:"risk_level"`
	Priority   string    `json:"priority"`
	EntityName string    `json:"entity_name"`
	EntityType string    `json:"entity_type"`
	AssignedTo string    `json:"assigned_to,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CaseListResponse struct {
	Cases []CaseSummary `json:"cases"`
	Total int           `json:"total"`
}

func FromCases(cases []*models.Case) *CaseListResponse {
	out := make([]CaseSummary, 0, len(cases))
	for _, c := range cases {
		out = append(out, CaseSummary{
			ID:         string(c.ID),
			Status:     string(c.Status),
			RiskLevel:  string(c.RiskLevel),
			Priority:   string(c.Priority),
			EntityName: c.Entity.Name,
			EntityType: string(c.Entity.Type),
			AssignedTo: c.AssignedTo,
			UpdatedAt:  c.UpdatedAt,
		})
	}
	return &CaseListResponse{Cases: out, Total: len(out)}
}

// ChecklistResponse pairs the resolved checklist with its completion state.
type ChecklistResponse struct {
	Items    []requirements.ChecklistItem `json:"items"`
	Complete bool                         `json:"complete"`
	Missing  []string                     `json:"missing"`
}

func FromChecklist(cl *requirements.Checklist) *ChecklistResponse {
	missing := make([]string, 0)
	for _, it := range cl.Missing() {
		missing = append(missing, it.ID)
	}
	return &ChecklistResponse{
		Items:    nonNil(cl.Items),
		Complete: cl.Complete(),
		Missing:  missing,
	}
}

type ActivitiesResponse struct {
	Activities []activity.Entry `json:"activities"`
}

type SnapshotsResponse struct {
	Snapshots []approval.Snapshot `json:"snapshots"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
