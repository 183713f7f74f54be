// Package parties holds Party reference data. Cases refer to parties by id
// only; a party's lifecycle is independent of every case that links it.
package parties

import (
	"context"
	"strings"
	"time"

	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
)

type Type string

const (
	TypeIndividual Type = "INDIVIDUAL"
	TypeCorporate  Type = "CORPORATE"
)

func (t Type) IsValid() bool {
	return t == TypeIndividual || t == TypeCorporate
}

// Party is a natural person or corporate entity referenced by cases.
//
// Invariants:
//   - ID and Name are non-empty
//   - Type is INDIVIDUAL or CORPORATE
//   - RiskScore is within 0..100
//
// PEP and sanctions flags are supplied by an external screening process;
// this service only records them.
type Party struct {
	ID                   domain.PartyID `json:"id" db:"id"`
	Name                 string         `json:"name" db:"name"`
	Type                 Type           `json:"type" db:"party_type"`
	ResidencyStatus      string         `json:"residency_status,omitempty" db:"residency_status"`
	Nationality          string         `json:"nationality,omitempty" db:"nationality"`
	RegistrationNumber   string         `json:"registration_number,omitempty" db:"registration_number"`
	IncorporationCountry string         `json:"incorporation_country,omitempty" db:"incorporation_country"`
	IsPEP                bool           `json:"is_pep" db:"is_pep"`
	IsSanctioned         bool           `json:"is_sanctioned" db:"is_sanctioned"`
	RiskScore            int            `json:"risk_score" db:"risk_score"`
	RiskFactors          []RiskFactor   `json:"risk_factors,omitempty" db:"-"`
	CreatedAt            time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at" db:"updated_at"`
}

// RiskFactor is one screening observation owned by a party.
type RiskFactor struct {
	Factor   string `json:"factor" db:"factor"`
	Category string `json:"category" db:"category"`
	Score    int    `json:"score" db:"score"`
	Active   bool   `json:"active" db:"active"`
}

// Residency returns the residency status used for requirement resolution.
func (p *Party) Residency() string {
	if r := strings.TrimSpace(p.ResidencyStatus); r != "" {
		return r
	}
	return domain.DefaultResidencyStatus
}

// ActiveRiskFactors returns the factors still in force.
func (p *Party) ActiveRiskFactors() []RiskFactor {
	var out []RiskFactor
	for _, f := range p.RiskFactors {
		if f.Active {
			out = append(out, f)
		}
	}
	return out
}

func (p *Party) Validate() error {
	if p.ID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "party id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "party name is required")
	}
	if !p.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "party type must be INDIVIDUAL or CORPORATE")
	}
	if p.RiskScore < 0 || p.RiskScore > 100 {
		return dErrors.New(dErrors.CodeValidation, "risk score must be within 0..100")
	}
	return nil
}

// Clone returns a deep copy.
func (p *Party) Clone() *Party {
	if p == nil {
		return nil
	}
	cp := *p
	cp.RiskFactors = append([]RiskFactor(nil), p.RiskFactors...)
	return &cp
}

// Lookup resolves a weak party reference.
// FindByID returns sentinel.ErrNotFound when the id is unknown.
type Lookup interface {
	FindByID(ctx context.Context, id domain.PartyID) (*Party, error)
}
