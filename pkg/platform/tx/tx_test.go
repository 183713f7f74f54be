package tx

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestContextTx(t *testing.T) {
	t.Run("absent", func(t *testing.T) {
		_, ok := From(context.Background())
		assert.False(t, ok)
	})

	t.Run("nil tx is not stored", func(t *testing.T) {
		ctx := WithTx(context.Background(), nil)
		_, ok := From(ctx)
		assert.False(t, ok)
	})

	t.Run("present then detached", func(t *testing.T) {
		ctx := WithTx(context.Background(), &sqlx.Tx{})
		_, ok := From(ctx)
		assert.True(t, ok)

		_, ok = From(Detach(ctx))
		assert.False(t, ok)
	})
}
