package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedesk/internal/requirements"
	"casedesk/pkg/platform/circuit"
)

func getHealth(t *testing.T, a *app) (int, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	a.health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	t.Run("ok without optional backends", func(t *testing.T) {
		code, body := getHealth(t, &app{})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
		assert.NotContains(t, body, "catalog_cache")
	})

	// Justification: a degraded cache falls back to the backing catalog, so
	// the instance stays in rotation while operators can still see it.
	t.Run("reports a degraded catalog cache", func(t *testing.T) {
		client := goredis.NewClient(&goredis.Options{
			Addr:        "127.0.0.1:1",
			DialTimeout: 50 * time.Millisecond,
			MaxRetries:  -1,
		})
		t.Cleanup(func() { _ = client.Close() })
		cache := requirements.NewCachedCatalog(
			requirements.NewMemoryCatalog(requirements.DefaultTemplates()), client, time.Minute,
			requirements.WithCacheBreaker(circuit.New("catalog-cache", circuit.WithFailureThreshold(1))),
		)
		_, err := cache.Templates(context.Background())
		require.NoError(t, err)
		require.True(t, cache.Degraded())

		code, body := getHealth(t, &app{catalogCache: cache})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "degraded", body["catalog_cache"])
	})
}
