package parties

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/sentinel"
)

type PartyStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestPartyStoreSuite(t *testing.T) {
	suite.Run(t, new(PartyStoreSuite))
}

func (s *PartyStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *PartyStoreSuite) TestSaveAndFind() {
	s.Run("finds a saved party", func() {
		p := DemoParties(time.Now())[1]
		s.Require().NoError(s.store.Save(s.ctx, p))

		found, err := s.store.FindByID(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal("Foreigner", found.Residency())
		s.Len(found.ActiveRiskFactors(), 1)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, "PTY-UNKNOWN")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects invalid parties", func() {
		err := s.store.Save(s.ctx, &Party{ID: "PTY-X", Type: TypeIndividual})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// Justification: parties are shared across cases, so a caller editing a
// returned party must not change what other cases see.
func (s *PartyStoreSuite) TestReturnsCopies() {
	p := DemoParties(time.Now())[3]
	s.Require().NoError(s.store.Save(s.ctx, p))

	found, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	found.RiskFactors[0].Active = false
	found.Name = "changed"

	again, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Rafael Ortega", again.Name)
	s.True(again.RiskFactors[0].Active)
}

func (s *PartyStoreSuite) TestSeedAndList() {
	s.Require().NoError(Seed(s.ctx, s.store, DemoParties(time.Now())))

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 4)
	s.Equal("PTY-DIRECTOR-1", string(all[0].ID))
}

func (s *PartyStoreSuite) TestResidencyDefault() {
	p := &Party{ID: "PTY-1", Name: "No Residency", Type: TypeIndividual}
	s.Equal("Singaporean/PR", p.Residency())
}
