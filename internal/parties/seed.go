package parties

import (
	"context"
	"fmt"
	"time"
)

// Saver is implemented by both party stores.
type Saver interface {
	Save(ctx context.Context, p *Party) error
}

// DemoParties returns the reference parties loaded in development mode.
func DemoParties(now time.Time) []*Party {
	return []*Party{
		{
			ID: "PTY-DIRECTOR-1", Name: "Tan Wei Ming", Type: TypeIndividual,
			ResidencyStatus: "Singaporean/PR", Nationality: "SG", RiskScore: 10,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "PTY-DIRECTOR-2", Name: "Elena Novak", Type: TypeIndividual,
			ResidencyStatus: "Foreigner", Nationality: "CZ", RiskScore: 35,
			RiskFactors: []RiskFactor{{Factor: "Foreign national", Category: "GEOGRAPHIC", Score: 15, Active: true}},
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "PTY-SHAREHOLDER-1", Name: "Harbour Holdings Pte Ltd", Type: TypeCorporate,
			RegistrationNumber: "201912345K", IncorporationCountry: "SG", RiskScore: 20,
			CreatedAt: now, UpdatedAt: now,
		},
		{
			ID: "PTY-PEP-1", Name: "Rafael Ortega", Type: TypeIndividual,
			ResidencyStatus: "Foreigner", Nationality: "PA", IsPEP: true, RiskScore: 80,
			RiskFactors: []RiskFactor{
				{Factor: "Politically exposed person", Category: "PEP", Score: 50, Active: true},
				{Factor: "High-risk jurisdiction", Category: "GEOGRAPHIC", Score: 20, Active: true},
			},
			CreatedAt: now, UpdatedAt: now,
		},
	}
}

// Seed saves parties in order, stopping at the first failure.
func Seed(ctx context.Context, store Saver, parties []*Party) error {
	for _, p := range parties {
		if err := store.Save(ctx, p); err != nil {
			return fmt.Errorf("seed party %s: %w", p.ID, err)
		}
	}
	return nil
}
