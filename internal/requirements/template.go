package requirements

import (
	"casedesk/pkg/domain"
)

// Kind selects which applicability dimension a template is matched on.
type Kind string

const (
	KindEntityDocument     Kind = "ENTITY_DOCUMENT"
	KindIndividualDocument Kind = "INDIVIDUAL_DOCUMENT"
	KindBankForm           Kind = "BANK_FORM"
	KindRiskBased          Kind = "RISK_BASED"
	KindAccountDocument    Kind = "ACCOUNT_DOCUMENT"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindEntityDocument, KindIndividualDocument, KindBankForm, KindRiskBased, KindAccountDocument:
		return true
	}
	return false
}

// Template is one catalog rule. Templates are reference data: the catalog
// owns them and cases only ever see the Items derived from them.
//
// Seq is the template's stable position in the catalog. Requirement ids are
// derived from it, never from SortOrder, so re-sorting the display order
// does not renumber requirements.
type Template struct {
	ID              string            `json:"id" db:"id"`
	Seq             int               `json:"seq" db:"seq"`
	Name            string            `json:"name" db:"name"`
	Description     string            `json:"description" db:"description"`
	Kind            Kind              `json:"kind" db:"kind"`
	Category        string            `json:"category" db:"category"`
	EntityType      domain.EntityType `json:"entity_type,omitempty" db:"entity_type"`
	ResidencyStatus string            `json:"residency_status,omitempty" db:"residency_status"`
	RiskLevel       domain.RiskLevel  `json:"risk_level,omitempty" db:"risk_level"`
	FormCategory    string            `json:"form_category,omitempty" db:"form_category"`
	AccountType     string            `json:"account_type,omitempty" db:"account_type"`
	Required        bool              `json:"required" db:"required"`
	ValidityMonths  int               `json:"validity_months" db:"validity_months"`
	SortOrder       int               `json:"sort_order" db:"sort_order"`
	Active          bool              `json:"active" db:"active"`
}

// Item is one resolved requirement for a case owner.
type Item struct {
	ID             string `json:"id"`
	TemplateID     string `json:"template_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Kind           Kind   `json:"kind"`
	Required       bool   `json:"required"`
	ValidityMonths int    `json:"validity_months,omitempty"`
	OwnerID        string `json:"owner_id"`
	SortOrder      int    `json:"sort_order"`
}

// OwnerEntity is the owner id of requirements that belong to the case entity
// rather than to a linked party.
const OwnerEntity = "ENTITY"
