package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedesk/internal/approval"
	"casedesk/internal/requirements"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
	dErrors "casedesk/pkg/domain-errors"
)

var (
	testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	rm      = domain.Actor{ID: "u-rm", Name: "Rita", Role: domain.RoleRM}
	checker = domain.Actor{ID: "u-chk", Name: "Chen", Role: domain.RoleChecker}
	compl   = domain.Actor{ID: "u-cmp", Name: "Cora", Role: domain.RoleCompliance}
)

func newTestCase(t *testing.T) *Case {
	t.Helper()
	c, err := NewCase("CASE-1", EntityData{Name: "Acme Pte Ltd", Type: domain.EntityNonListedCompany}, "", "", rm, testNow)
	require.NoError(t, err)
	return c
}

// TestNewCase validates the construction invariants:
// "entity name is required, types are known, defaults are applied"
func TestNewCase(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		c := newTestCase(t)
		assert.Equal(t, CaseDraft, c.Status)
		assert.Equal(t, domain.RiskMedium, c.RiskLevel)
		assert.Equal(t, domain.PriorityNormal, c.Priority)
		assert.Equal(t, "u-rm", c.AssignedTo)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := NewCase("CASE-1", EntityData{Name: "  ", Type: domain.EntityTrust}, "", "", rm, testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewCase("CASE-1", EntityData{Name: "X", Type: "SPACESHIP"}, "", "", rm, testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewCase("CASE-1", EntityData{Name: "X", Type: domain.EntityTrust}, "EXTREME", "", rm, testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		_, err = NewCase("CASE-1", EntityData{Name: "X", Type: domain.EntityTrust}, "", "SOMEDAY", rm, testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

// TestCanUpdate covers who may re-rate a case and when:
// "risk is free in DRAFT, compliance-only afterwards, and never lowered past checker review"
func TestCanUpdate(t *testing.T) {
	level := func(r domain.RiskLevel) *domain.RiskLevel { return &r }
	at := func(status workflow.State, risk domain.RiskLevel) *Case {
		c := newTestCase(t)
		c.Status = status
		c.RiskLevel = risk
		return c
	}

	t.Run("rm re-rates a draft", func(t *testing.T) {
		c := at(CaseDraft, "HIGH")
		assert.NoError(t, c.CanUpdate(Update{RiskLevel: level(domain.RiskLow)}, rm))
	})

	t.Run("rm cannot re-rate after submission", func(t *testing.T) {
		c := at(CasePendingComplianceReview, "HIGH")
		err := c.CanUpdate(Update{RiskLevel: level(domain.RiskLow)}, rm)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorizedActor))
	})

	t.Run("same level is not a change", func(t *testing.T) {
		c := at(CasePendingComplianceReview, "HIGH")
		assert.NoError(t, c.CanUpdate(Update{RiskLevel: level(domain.RiskHigh)}, rm))
	})

	t.Run("compliance lowers during checker review", func(t *testing.T) {
		c := at(CasePendingCheckerReview, "HIGH")
		assert.NoError(t, c.CanUpdate(Update{RiskLevel: level(domain.RiskMedium)}, compl))
	})

	t.Run("compliance raises during compliance review", func(t *testing.T) {
		c := at(CasePendingComplianceReview, "MEDIUM")
		assert.NoError(t, c.CanUpdate(Update{RiskLevel: level(domain.RiskCritical)}, compl))
	})

	// Justification: lowering an elevated case at compliance review would let
	// it be approved without the GM step.
	t.Run("no one lowers past checker review", func(t *testing.T) {
		for _, status := range []workflow.State{CasePendingComplianceReview, CasePendingGMApproval, CaseApproved} {
			c := at(status, "HIGH")
			err := c.CanUpdate(Update{RiskLevel: level(domain.RiskLow)}, compl)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition), status)
		}
	})

	t.Run("rejects unknown priority", func(t *testing.T) {
		c := at(CaseDraft, "LOW")
		p := domain.Priority("SOMEDAY")
		err := c.CanUpdate(Update{Priority: &p}, rm)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestApplyStatus(t *testing.T) {
	c := newTestCase(t)
	c.ApplyStatus(CasePendingCheckerReview, rm, testNow)
	assert.Empty(t, c.CheckedBy)

	c.ApplyStatus(CasePendingComplianceReview, checker, testNow)
	assert.Equal(t, "u-chk", c.CheckedBy)

	prev := c.ApplyStatus(CaseApproved, compl, testNow)
	assert.Equal(t, CasePendingComplianceReview, prev)
	assert.Equal(t, "u-cmp", c.ApprovedBy)
	require.NotNil(t, c.ActualCompletionDate)
}

func TestPartyLinks(t *testing.T) {
	c := newTestCase(t)
	link := CasePartyLink{ID: "LNK-1", PartyID: "P1", RelationshipType: "DIRECTOR", OwnershipPercentage: decimal.NewFromInt(40)}

	require.NoError(t, c.CanLinkParty(link))
	first := c.ApplyLinkParty(link, testNow)
	assert.True(t, first.IsPrimary)

	t.Run("same party and relationship conflicts", func(t *testing.T) {
		dup := link
		dup.RelationshipType = "director"
		assert.True(t, dErrors.HasCode(c.CanLinkParty(dup), dErrors.CodeConflict))
	})

	t.Run("same party with another relationship is allowed", func(t *testing.T) {
		other := link
		other.RelationshipType = "SHAREHOLDER"
		require.NoError(t, c.CanLinkParty(other))
		second := c.ApplyLinkParty(other, testNow)
		assert.False(t, second.IsPrimary)
		assert.Equal(t, []domain.PartyID{"P1"}, c.PartyIDs())
	})

	t.Run("ownership bounds", func(t *testing.T) {
		bad := CasePartyLink{PartyID: "P2", RelationshipType: "SHAREHOLDER", OwnershipPercentage: decimal.RequireFromString("100.01")}
		assert.True(t, dErrors.HasCode(c.CanLinkParty(bad), dErrors.CodeInvariantViolation))
	})
}

func TestSubmissions(t *testing.T) {
	c := newTestCase(t)
	item := requirements.Item{ID: "req-entity-0", Name: "ARCA", OwnerID: requirements.OwnerEntity, Required: true}
	link := c.EnsureDocumentLink(item, testNow)
	assert.True(t, link.Mandatory)
	assert.Same(t, link, c.EnsureDocumentLink(item, testNow))
	assert.Equal(t, requirements.StatusMissing, link.Status())

	data := SubmissionData{MasterDocID: "doc-1"}
	require.NoError(t, c.CanSubmit(link, data))
	sub := c.ApplySubmit(link, data, SubmissionPendingChecker, rm, testNow)
	assert.Equal(t, MethodUpload, sub.Method)

	t.Run("pending submission blocks resubmission", func(t *testing.T) {
		err := c.CanSubmit(link, SubmissionData{MasterDocID: "doc-2"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})

	t.Run("review stamps the stage reviewer", func(t *testing.T) {
		c.ApplyReview(sub, SubmissionPendingCompliance, checker, testNow)
		assert.Equal(t, "u-chk", sub.CheckerReviewedBy)
		c.ApplyReview(sub, SubmissionVerified, compl, testNow)
		assert.Equal(t, "u-cmp", sub.ComplianceReviewedBy)
		assert.Equal(t, "VERIFIED", c.LatestByRequirement()["req-entity-0"].Status)
		assert.Empty(t, c.UnverifiedMandatoryLinks())
	})

	t.Run("only the latest submission may be reviewed", func(t *testing.T) {
		old := link.Latest()
		c.ApplySubmit(link, SubmissionData{MasterDocID: "doc-3"}, SubmissionPendingChecker, rm, testNow)
		_, oldSub, ok := c.FindSubmission(old.ID)
		require.True(t, ok)
		err := c.CanReview(link, oldSub, SubmissionRejected, testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))
		assert.Equal(t, []string{"req-entity-0"}, c.UnverifiedMandatoryLinks())
	})
}

func TestExpiry(t *testing.T) {
	c := newTestCase(t)
	link := c.EnsureDocumentLink(requirements.Item{ID: "req-forms-0"}, testNow)
	yesterday := testNow.AddDate(0, 0, -1)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	sub := c.ApplySubmit(link, SubmissionData{MasterDocID: "d", ExpiryDate: &yesterday}, SubmissionPendingCompliance, rm, testNow)
	err := c.CanReview(link, sub, SubmissionVerified, testNow)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeExpiredDocument))
	assert.NoError(t, c.CanReview(link, sub, SubmissionRejected, testNow), "rejecting an expired document is allowed")

	sub.ExpiryDate = &today
	assert.NoError(t, c.CanReview(link, sub, SubmissionVerified, testNow))
}

func TestVerifiedRecordsAreCopies(t *testing.T) {
	c := newTestCase(t)
	expiry := testNow.AddDate(1, 0, 0)
	link := c.EnsureDocumentLink(requirements.Item{ID: "req-entity-0", Name: "ARCA", OwnerID: "ENTITY"}, testNow)
	sub := c.ApplySubmit(link, SubmissionData{MasterDocID: "d-1", ExpiryDate: &expiry}, SubmissionPendingCompliance, rm, testNow)
	c.ApplyReview(sub, SubmissionVerified, compl, testNow)

	records := c.VerifiedRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "ARCA", records[0].DocumentName)
	assert.Equal(t, testNow, records[0].VerifiedAt)

	*sub.ExpiryDate = testNow
	sub.Status = SubmissionRejected
	assert.Equal(t, expiry, *records[0].ExpiryDate)
}

func TestClone(t *testing.T) {
	c := newTestCase(t)
	c.ApplyLinkParty(CasePartyLink{PartyID: "P1", RelationshipType: "DIRECTOR"}, testNow)
	link := c.EnsureDocumentLink(requirements.Item{ID: "req-entity-0"}, testNow)
	c.ApplySubmit(link, SubmissionData{MasterDocID: "d"}, SubmissionPendingChecker, rm, testNow)
	c.AddSnapshot(&approval.Snapshot{ID: "SNP-1", Type: approval.TypeKYC, Decision: approval.DecisionApproved})

	cp := c.Clone()
	cp.DocumentLinks[0].Submissions[0].Status = SubmissionVerified
	cp.PartyLinks[0].RelationshipType = "SHAREHOLDER"
	cp.Snapshots[0].Decision = approval.DecisionRejected

	assert.Equal(t, SubmissionPendingChecker, c.DocumentLinks[0].Submissions[0].Status)
	assert.Equal(t, "DIRECTOR", c.PartyLinks[0].RelationshipType)
	assert.Equal(t, approval.DecisionApproved, c.Snapshots[0].Decision)
}

func TestAccounts(t *testing.T) {
	c := newTestCase(t)
	c.ApplyLinkParty(CasePartyLink{PartyID: "P1", RelationshipType: "DIRECTOR"}, testNow)

	t.Run("signatories must be linked", func(t *testing.T) {
		err := c.CanProposeAccount(AccountData{AccountType: "CURRENT", Currency: "SGD", Signatories: []Signatory{{PartyID: "P9"}}})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	data := AccountData{AccountType: "current", Currency: "sgd", Signatories: []Signatory{{PartyID: "P1", SignatoryType: "AUTHORISED"}}}
	require.NoError(t, c.CanProposeAccount(data))
	acc := c.ApplyProposeAccount(data, rm, testNow)
	assert.Equal(t, AccountProposed, acc.Status)
	assert.Equal(t, "CURRENT", acc.AccountType)
	assert.Equal(t, domain.PartyID("P1"), acc.PrimaryHolderID)
	assert.Equal(t, []string{"CURRENT"}, c.ProposedAccountTypes())

	t.Run("activation preconditions", func(t *testing.T) {
		err := c.CanActivate(acc, "123", testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition))

		c.ApplyAccountStatus(acc, AccountPendingComplianceReview, testNow)
		err = c.CanActivate(acc, "", testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

		err = c.CanActivate(acc, "123", testNow)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeCaseNotApproved))

		c.AddSnapshot(&approval.Snapshot{Type: approval.TypeKYC, Decision: approval.DecisionApproved, ValidUntil: testNow.AddDate(1, 0, 0)})
		require.NoError(t, c.CanActivate(acc, "123", testNow))
		c.ApplyActivate(acc, "123", compl, testNow)
		assert.Equal(t, AccountActive, acc.Status)
		assert.Equal(t, "u-cmp", acc.ActivatedBy)
	})
}
