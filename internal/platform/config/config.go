// Package config loads process configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	envPrefix = "CASEDESK"

	// DevSigningKey is accepted only outside production.
	DevSigningKey = "dev-secret-key-change-in-production"
)

type Config struct {
	Env      string
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     AuthConfig
	Policy   PolicyConfig
	Log      LogConfig
	Workflow WorkflowConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	SeedDemoData    bool
}

// DatabaseConfig selects Postgres persistence. An empty URL runs the
// service on in-memory stores.
type DatabaseConfig struct {
	Driver          string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig enables the requirement catalog cache when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CatalogTTL   time.Duration
}

// KafkaConfig enables the Kafka notification sink when Brokers is set.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	ClientID          string
	Partitions        int32
	ReplicationFactor int16
}

type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
}

// PolicyConfig holds approval periods in months and the concurrency policy
// for case mutations.
type PolicyConfig struct {
	ValidityMonths map[string]int
	ReviewMonths   map[string]int
	MaxRetries     int
	TxTimeout      time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// WorkflowConfig optionally replaces the embedded workflow tables and
// requirement catalog.
type WorkflowConfig struct {
	GraphFile   string
	CatalogFile string
}

// Load reads .env when present, then the environment. Variables use the
// CASEDESK_ prefix, e.g. CASEDESK_SERVER_ADDR.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	cfg := &Config{
		Env: v.GetString("ENV"),
		Server: ServerConfig{
			Addr:            v.GetString("SERVER_ADDR"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			SeedDemoData:    v.GetBool("SEED_DEMO_DATA"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DB_DRIVER"),
			URL:             v.GetString("DB_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			CatalogTTL:   v.GetDuration("REDIS_CATALOG_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers:           splitAndTrim(v.GetString("KAFKA_BROKERS")),
			Topic:             v.GetString("KAFKA_TOPIC"),
			ClientID:          v.GetString("KAFKA_CLIENT_ID"),
			Partitions:        v.GetInt32("KAFKA_PARTITIONS"),
			ReplicationFactor: int16(v.GetInt("KAFKA_REPLICATION_FACTOR")),
		},
		Auth: AuthConfig{
			JWTSigningKey: v.GetString("JWT_SIGNING_KEY"),
			Issuer:        v.GetString("JWT_ISSUER"),
		},
		Policy: PolicyConfig{
			ValidityMonths: map[string]int{
				"LOW":      v.GetInt("POLICY_VALIDITY_LOW_MONTHS"),
				"MEDIUM":   v.GetInt("POLICY_VALIDITY_MEDIUM_MONTHS"),
				"HIGH":     v.GetInt("POLICY_VALIDITY_HIGH_MONTHS"),
				"CRITICAL": v.GetInt("POLICY_VALIDITY_CRITICAL_MONTHS"),
			},
			ReviewMonths: map[string]int{
				"MEDIUM":   v.GetInt("POLICY_REVIEW_MEDIUM_MONTHS"),
				"HIGH":     v.GetInt("POLICY_REVIEW_HIGH_MONTHS"),
				"CRITICAL": v.GetInt("POLICY_REVIEW_CRITICAL_MONTHS"),
			},
			MaxRetries: v.GetInt("POLICY_MAX_RETRIES"),
			TxTimeout:  v.GetDuration("POLICY_TX_TIMEOUT"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("LOG_LEVEL")),
			Format: strings.ToLower(v.GetString("LOG_FORMAT")),
		},
		Workflow: WorkflowConfig{
			GraphFile:   v.GetString("WORKFLOW_GRAPH_FILE"),
			CatalogFile: v.GetString("WORKFLOW_CATALOG_FILE"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "20s")
	v.SetDefault("SEED_DEMO_DATA", false)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")
	v.SetDefault("REDIS_CATALOG_TTL", "10m")

	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "casedesk.case-events")
	v.SetDefault("KAFKA_CLIENT_ID", "casedesk")
	v.SetDefault("KAFKA_PARTITIONS", 3)
	v.SetDefault("KAFKA_REPLICATION_FACTOR", 1)

	v.SetDefault("JWT_SIGNING_KEY", DevSigningKey)
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("POLICY_VALIDITY_LOW_MONTHS", 36)
	v.SetDefault("POLICY_VALIDITY_MEDIUM_MONTHS", 24)
	v.SetDefault("POLICY_VALIDITY_HIGH_MONTHS", 12)
	v.SetDefault("POLICY_VALIDITY_CRITICAL_MONTHS", 6)
	v.SetDefault("POLICY_REVIEW_MEDIUM_MONTHS", 12)
	v.SetDefault("POLICY_REVIEW_HIGH_MONTHS", 6)
	v.SetDefault("POLICY_REVIEW_CRITICAL_MONTHS", 3)
	v.SetDefault("POLICY_MAX_RETRIES", 3)
	v.SetDefault("POLICY_TX_TIMEOUT", "5s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("WORKFLOW_GRAPH_FILE", "")
	v.SetDefault("WORKFLOW_CATALOG_FILE", "")
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		errs = append(errs, fmt.Errorf("env must be %s or %s", EnvDevelopment, EnvProduction))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server addr is required"))
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	if c.Auth.JWTSigningKey == "" {
		errs = append(errs, errors.New("jwt signing key is required"))
	}
	if c.Env == EnvProduction && c.Auth.JWTSigningKey == DevSigningKey {
		errs = append(errs, errors.New("the development jwt signing key cannot be used in production"))
	}
	if c.Env == EnvProduction && c.Server.SeedDemoData {
		errs = append(errs, errors.New("demo data cannot be seeded in production"))
	}
	for level, m := range c.Policy.ValidityMonths {
		if m <= 0 {
			errs = append(errs, fmt.Errorf("validity months for %s must be positive", level))
		}
	}
	for level, m := range c.Policy.ReviewMonths {
		if m < 0 {
			errs = append(errs, fmt.Errorf("review months for %s cannot be negative", level))
		}
	}
	if c.Policy.MaxRetries < 1 {
		errs = append(errs, errors.New("policy max retries must be at least 1"))
	}
	if c.Policy.TxTimeout <= 0 {
		errs = append(errs, errors.New("policy tx timeout must be positive"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("kafka topic is required when brokers are set"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unsupported log level %q", c.Log.Level))
	}
	return errors.Join(errs...)
}

// UsesPostgres reports whether persistence is backed by a database.
func (c *Config) UsesPostgres() bool {
	return c.Database.URL != ""
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
