package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "casedesk/pkg/domain-errors"
)

// TestGeneratedIDs_Invariants validates the generation invariant:
// "generated ids are prefixed, unique and parse back unchanged"
//
// Justification: ids replace per-request counters, so uniqueness across calls
// is the property that matters.
func TestGeneratedIDs_Invariants(t *testing.T) {
	t.Run("carries type prefix", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(NewCaseID().String(), "CASE-"))
		assert.True(t, strings.HasPrefix(NewSubmissionID().String(), "SUB-"))
		assert.True(t, strings.HasPrefix(NewLinkID().String(), "LNK-"))
		assert.True(t, strings.HasPrefix(NewCommentID().String(), "COM-"))
		assert.True(t, strings.HasPrefix(NewAccountID().String(), "ACC-"))
		assert.True(t, strings.HasPrefix(NewActivityID().String(), "ACT-"))
		assert.True(t, strings.HasPrefix(NewSnapshotID().String(), "SNP-"))
	})

	t.Run("unique across many calls", func(t *testing.T) {
		seen := make(map[CaseID]struct{}, 1000)
		for i := 0; i < 1000; i++ {
			id := NewCaseID()
			_, dup := seen[id]
			require.False(t, dup, "duplicate id %s", id)
			seen[id] = struct{}{}
		}
	})

	t.Run("round-trips through parse", func(t *testing.T) {
		id := NewCaseID()
		parsed, err := ParseCaseID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
}

// TestParseID_SecurityInvariants validates security-critical parsing rules.
//
// Justification: These are trust boundary invariants - parsing must reject
// attack vectors at API entry points.
func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		// Attack vectors
		{"SQL injection attempt", "'; DROP TABLE cases;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "CASE-1\x00suffix", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Unicode zero-width space", "CASE\u200B-1", true},

		// Edge cases
		{"Empty string", "", true},
		{"Whitespace only", "   ", true},
		{"Embedded space", "CASE 1", true},

		// Valid
		{"Short legacy id", "CASE-1", false},
		{"Party code", "P001", false},
		{"Generated id", NewCaseID().String(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCaseID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

// TestAllIDTypes_ConsistentBehavior ensures all ID types have identical parsing behavior.
//
// Justification: Inconsistent validation across ID types could create security holes.
func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	for _, input := range []string{"", "bad id", "x/y", "CASE-1"} {
		t.Run("input: "+input, func(t *testing.T) {
			_, errCase := ParseCaseID(input)
			_, errParty := ParsePartyID(input)
			_, errSub := ParseSubmissionID(input)
			_, errAcc := ParseAccountID(input)

			assert.Equal(t, errCase == nil, errParty == nil)
			assert.Equal(t, errCase == nil, errSub == nil)
			assert.Equal(t, errCase == nil, errAcc == nil)
		})
	}
}

func TestEnums(t *testing.T) {
	t.Run("risk ordering", func(t *testing.T) {
		assert.True(t, RiskCritical.IsAtLeast(RiskHigh))
		assert.True(t, RiskMedium.IsAtLeast(RiskMedium))
		assert.False(t, RiskLow.IsAtLeast(RiskMedium))
		assert.False(t, RiskLevel("UNKNOWN").IsAtLeast(RiskLow))
		assert.True(t, RiskHigh.IsElevated())
		assert.False(t, RiskMedium.IsElevated())
	})

	t.Run("parsers normalise case", func(t *testing.T) {
		r, err := ParseRiskLevel(" high ")
		require.NoError(t, err)
		assert.Equal(t, RiskHigh, r)

		role, err := ParseRole("checker")
		require.NoError(t, err)
		assert.Equal(t, RoleChecker, role)

		e, err := ParseEntityType("non_listed_company")
		require.NoError(t, err)
		assert.Equal(t, EntityNonListedCompany, e)
	})

	t.Run("parsers reject unknown values", func(t *testing.T) {
		_, err := ParseRiskLevel("EXTREME")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		_, err = ParseRole("intern")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		_, err = ParsePriority("")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("form category follows entity type", func(t *testing.T) {
		assert.Equal(t, FormCategoryIndividual, EntityIndividualAccount.FormCategory())
		assert.Equal(t, FormCategoryCorporate, EntityTrust.FormCategory())
	})
}
