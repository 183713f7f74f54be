package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"

	"casedesk/internal/approval"
	casemetrics "casedesk/internal/cases/metrics"
	"casedesk/internal/cases/service"
	"casedesk/internal/cases/store"
	"casedesk/internal/notify"
	"casedesk/internal/parties"
	"casedesk/internal/platform/config"
	"casedesk/internal/platform/kafka"
	"casedesk/internal/platform/postgres"
	"casedesk/internal/platform/redis"
	"casedesk/internal/requirements"
	reqmetrics "casedesk/internal/requirements/metrics"
	"casedesk/internal/workflow"
	"casedesk/pkg/domain"
)

// app owns the service and the infrastructure clients it was built on.
type app struct {
	service *service.Service
	db      *sqlx.DB
	redis   *redis.Client
	kafka   *kgo.Client
	sink    *notify.KafkaSink
	log     *slog.Logger

	catalogCache *requirements.CachedCatalog
}

func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{log: log}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	tables := workflow.Default()
	if cfg.Workflow.GraphFile != "" {
		t, err := workflow.LoadFile(cfg.Workflow.GraphFile)
		if err != nil {
			return nil, err
		}
		tables = t
	}
	templates := requirements.DefaultTemplates()
	if cfg.Workflow.CatalogFile != "" {
		t, err := requirements.LoadFile(cfg.Workflow.CatalogFile)
		if err != nil {
			return nil, err
		}
		templates = t
	}

	var (
		caseStore service.Store
		txRunner  service.TxRunner
		partyRepo interface {
			parties.Lookup
			parties.Saver
		}
		catalog requirements.Catalog
	)
	if cfg.UsesPostgres() {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.db = db
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return nil, err
			}
		}
		pgCases := store.NewPostgresStore(db)
		caseStore = pgCases
		txRunner = store.NewPostgresTx(db, pgCases, cfg.Policy.TxTimeout)
		partyRepo = parties.NewPostgres(db)
		pgCatalog := requirements.NewPostgresCatalog(db)
		if err := pgCatalog.Upsert(ctx, templates); err != nil {
			return nil, fmt.Errorf("seed requirement catalog: %w", err)
		}
		catalog = pgCatalog
	} else {
		memCases := store.NewInMemoryStore()
		caseStore = memCases
		txRunner = service.NewShardedTx(memCases, cfg.Policy.TxTimeout)
		partyRepo = parties.NewInMemory()
		catalog = requirements.NewMemoryCatalog(templates)
	}

	if cfg.Server.SeedDemoData {
		if err := parties.Seed(ctx, partyRepo, parties.DemoParties(time.Now().UTC())); err != nil {
			return nil, err
		}
	}

	reqMetrics := reqmetrics.NewWith(reg)
	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.redis = rc
		a.catalogCache = requirements.NewCachedCatalog(catalog, rc.Client, cfg.Redis.CatalogTTL,
			requirements.WithCacheLogger(log),
			requirements.WithCacheMetrics(reqMetrics),
		)
		// The templates loaded above replace whatever an earlier deployment cached.
		if err := a.catalogCache.Invalidate(ctx); err != nil {
			log.WarnContext(ctx, "catalog cache not cleared, serving cached templates until they expire", "error", err)
		}
		catalog = a.catalogCache
	}

	sinks := notify.Fanout{notify.NewLogSink(log)}
	kc, err := kafka.NewClient(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if kc != nil {
		a.kafka = kc
		if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka.Topic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return nil, err
		}
		a.sink = notify.NewKafkaSink(kc, cfg.Kafka.Topic, log)
		sinks = append(sinks, a.sink)
	}

	svc, err := service.New(caseStore, txRunner, partyRepo,
		requirements.NewResolver(catalog, requirements.WithMetrics(reqMetrics)),
		service.WithLogger(log),
		service.WithMetrics(casemetrics.NewWith(reg)),
		service.WithSink(sinks),
		service.WithTables(tables),
		service.WithPolicy(policyFrom(cfg.Policy)),
		service.WithMaxRetries(cfg.Policy.MaxRetries),
	)
	if err != nil {
		return nil, err
	}
	a.service = svc
	ok = true
	return a, nil
}

// policyFrom converts configured month counts into an approval policy.
// Levels left at zero keep their defaults.
func policyFrom(cfg config.PolicyConfig) approval.Policy {
	p := approval.DefaultPolicy()
	for level, months := range cfg.ValidityMonths {
		if months > 0 {
			p.Validity[domain.RiskLevel(level)] = months
		}
	}
	for level, months := range cfg.ReviewMonths {
		risk := domain.RiskLevel(level)
		switch {
		case months > 0:
			p.Review[risk] = months
		case months == 0:
			delete(p.Review, risk)
		}
	}
	return p
}

// Ping checks every configured backend.
func (a *app) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var errs []error
	if a.db != nil {
		if err := a.db.PingContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("postgres: %w", err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Health(ctx); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if a.kafka != nil {
		if err := a.kafka.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("kafka: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Flush waits for buffered notifications to be delivered.
func (a *app) Flush(ctx context.Context) {
	if a.sink == nil {
		return
	}
	if err := a.sink.Flush(ctx); err != nil {
		a.log.Warn("failed to flush notifications", "error", err)
	}
}

func (a *app) Close() {
	if a.kafka != nil {
		a.kafka.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
