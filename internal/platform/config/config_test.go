package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.UsesPostgres())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 24, cfg.Policy.ValidityMonths["MEDIUM"])
	assert.Equal(t, 3, cfg.Policy.ReviewMonths["CRITICAL"])
	assert.Equal(t, 3, cfg.Policy.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Policy.TxTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CatalogTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CASEDESK_SERVER_ADDR", ":9090")
	t.Setenv("CASEDESK_DB_URL", "postgres://casedesk@localhost/casedesk?sslmode=disable")
	t.Setenv("CASEDESK_DB_DRIVER", "pgx")
	t.Setenv("CASEDESK_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CASEDESK_POLICY_VALIDITY_HIGH_MONTHS", "9")
	t.Setenv("CASEDESK_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 9, cfg.Policy.ValidityMonths["HIGH"])
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, errMsg: "unsupported database driver"},
		{name: "zero retries", mutate: func(c *Config) { c.Policy.MaxRetries = 0 }, errMsg: "max retries"},
		{name: "non-positive validity", mutate: func(c *Config) { c.Policy.ValidityMonths["LOW"] = 0 }, errMsg: "validity months for LOW"},
		{name: "dev key in production", mutate: func(c *Config) { c.Env = EnvProduction }, errMsg: "development jwt signing key"},
		{name: "kafka without topic", mutate: func(c *Config) {
			c.Kafka.Brokers = []string{"localhost:9092"}
			c.Kafka.Topic = ""
		}, errMsg: "kafka topic"},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "verbose" }, errMsg: "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
