package domain

import (
	"strings"

	dErrors "casedesk/pkg/domain-errors"
)

// EntityType classifies the applicant behind a case. It selects the entity
// documents and the bank form category of the checklist.
type EntityType string

const (
	EntityIndividualAccount    EntityType = "INDIVIDUAL_ACCOUNT"
	EntityNonListedCompany     EntityType = "NON_LISTED_COMPANY"
	EntityListedCompany        EntityType = "LISTED_COMPANY"
	EntityPartnership          EntityType = "PARTNERSHIP"
	EntityTrust                EntityType = "TRUST"
	EntitySocietyAssociation   EntityType = "SOCIETY_ASSOCIATION_CLUB"
	EntityCharity              EntityType = "CHARITY"
	EntitySoleProprietorship   EntityType = "SOLE_PROPRIETORSHIP"
	EntityGovernment           EntityType = "GOVERNMENT_ENTITY"
	EntityFinancialInstitution EntityType = "FINANCIAL_INSTITUTION"
)

var validEntityTypes = map[EntityType]bool{
	EntityIndividualAccount:    true,
	EntityNonListedCompany:     true,
	EntityListedCompany:        true,
	EntityPartnership:          true,
	EntityTrust:                true,
	EntitySocietyAssociation:   true,
	EntityCharity:              true,
	EntitySoleProprietorship:   true,
	EntityGovernment:           true,
	EntityFinancialInstitution: true,
}

func ParseEntityType(s string) (EntityType, error) {
	e := EntityType(strings.ToUpper(strings.TrimSpace(s)))
	if e == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "entity type cannot be empty")
	}
	if !validEntityTypes[e] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid entity type")
	}
	return e, nil
}

func (e EntityType) IsValid() bool {
	return validEntityTypes[e]
}

func (e EntityType) String() string {
	return string(e)
}

// FormCategory is the bank form set that applies to the entity type.
func (e EntityType) FormCategory() string {
	if e == EntityIndividualAccount {
		return FormCategoryIndividual
	}
	return FormCategoryCorporate
}

const (
	FormCategoryIndividual = "INDIVIDUAL"
	FormCategoryCorporate  = "CORPORATE"
)

// DefaultResidencyStatus applies to parties whose residency was never captured.
const DefaultResidencyStatus = "Singaporean/PR"
