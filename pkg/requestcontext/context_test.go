package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"casedesk/pkg/domain"
)

func TestAccessors(t *testing.T) {
	t.Run("empty context yields zero values", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, domain.Actor{}, Actor(ctx))
		assert.Empty(t, ClientIP(ctx))
		assert.Empty(t, UserAgent(ctx))
		assert.Empty(t, RequestID(ctx))
		assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
	})

	t.Run("values round trip", func(t *testing.T) {
		at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		actor := domain.Actor{ID: "U002", Role: domain.RoleChecker}
		ctx := WithTime(context.Background(), at)
		ctx = WithActor(ctx, actor)
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithClientMetadata(ctx, "192.0.2.1", "curl/8.0")

		assert.Equal(t, actor, Actor(ctx))
		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "192.0.2.1", ClientIP(ctx))
		assert.Equal(t, "curl/8.0", UserAgent(ctx))
		assert.Equal(t, at, Now(ctx))
	})
}
