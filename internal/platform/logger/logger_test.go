package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casedesk/internal/platform/config"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json at info drops debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(config.LogConfig{Level: "info", Format: "json"}, &buf)
		log.Debug("hidden")
		log.Info("shown", "case_id", "CASE-1")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "shown", line["msg"])
		assert.Equal(t, "CASE-1", line["case_id"])
	})

	t.Run("text at debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(config.LogConfig{Level: "debug", Format: "text"}, &buf)
		log.Debug("visible")
		assert.Contains(t, buf.String(), "msg=visible")
	})
}
