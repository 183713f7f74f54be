package requirements

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	items := []Item{
		{ID: "req-entity-0", Kind: KindEntityDocument, Required: true},
		{ID: "req-forms-0", Kind: KindBankForm, Required: true},
		{ID: "req-risk-0", Kind: KindRiskBased, Required: false},
	}

	t.Run("items without submissions are missing", func(t *testing.T) {
		c := Evaluate(items, nil)
		require.Len(t, c.Items, 3)
		for _, it := range c.Items {
			assert.Equal(t, StatusMissing, it.Status)
		}
		assert.False(t, c.Complete())
		assert.Len(t, c.Missing(), 2)
	})

	t.Run("latest status is authoritative", func(t *testing.T) {
		c := Evaluate(items, map[string]Latest{
			"req-entity-0": {SubmissionID: "SUB-2", Status: StatusVerified},
			"req-forms-0":  {SubmissionID: "SUB-3", Status: "REJECTED"},
		})
		entity, ok := c.Find("req-entity-0")
		require.True(t, ok)
		assert.Equal(t, "SUB-2", entity.SubmissionID)
		assert.Equal(t, []string{"req-forms-0"}, []string{c.Missing()[0].ID})
	})

	t.Run("optional items do not block completion", func(t *testing.T) {
		c := Evaluate(items, map[string]Latest{
			"req-entity-0": {Status: StatusVerified},
			"req-forms-0":  {Status: StatusVerified},
		})
		assert.True(t, c.Complete())
		assert.False(t, c.GroupVerified(KindRiskBased))
		assert.True(t, c.GroupVerified(KindBankForm))
	})

	t.Run("empty groups count as verified", func(t *testing.T) {
		c := Evaluate(nil, nil)
		assert.True(t, c.Complete())
		assert.True(t, c.GroupVerified(KindRiskBased))
		_, ok := c.Find("req-entity-0")
		assert.False(t, ok)
	})
}
