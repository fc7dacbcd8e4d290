package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"schemematch/internal/platform/config"
	platformredis "schemematch/internal/platform/redis"
	"schemematch/internal/scheme/ports"
	"schemematch/internal/scheme/store"
	"schemematch/pkg/platform/audit/publisher"
	"schemematch/pkg/platform/audit/publishers/kafka"
	"schemematch/pkg/platform/audit/store/memory"
	auditpg "schemematch/pkg/platform/audit/store/postgres"
)

// infra holds the external connections and the adapters built on them.
type infra struct {
	source ports.CatalogSource
	cache  ports.CatalogCache
	audit  ports.AuditPublisher

	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (i *infra) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		i.closers[n]()
	}
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *infra, err error) {
	i := &infra{}
	defer func() {
		if err != nil {
			i.Close()
		}
	}()

	dbs := map[string]*sql.DB{}
	openDB := func(dsn string) (*sql.DB, error) {
		if db, ok := dbs[dsn]; ok {
			return db, nil
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		i.closers = append(i.closers, func() { _ = db.Close() })
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		dbs[dsn] = db
		return db, nil
	}

	switch cfg.Catalog.Source {
	case config.SourcePostgres:
		db, err := openDB(cfg.Catalog.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if _, err := db.ExecContext(ctx, store.PostgresSchema); err != nil {
			return nil, fmt.Errorf("create catalog tables: %w", err)
		}
		i.source = store.NewPostgresSource(db)
	case config.SourceS3:
		client, err := store.NewS3Client(ctx, cfg.Catalog.S3Region, cfg.Catalog.S3Endpoint)
		if err != nil {
			return nil, err
		}
		i.source = store.NewS3Source(client, cfg.Catalog.S3Bucket, cfg.Catalog.S3Key)
	default:
		i.source = store.NewFileSource(cfg.Catalog.FilePath)
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if redisClient != nil {
		i.closers = append(i.closers, func() { _ = redisClient.Close() })
		i.cache = store.NewRedisCache(redisClient.Client, store.WithCacheKey(cfg.Redis.CacheKey))
	} else {
		log.WarnContext(ctx, "no redis configured; catalog has no fallback copy")
	}

	switch cfg.Audit.Sink {
	case config.SinkKafka:
		client, err := kafka.NewClient(cfg.Audit.KafkaBrokers)
		if err != nil {
			return nil, err
		}
		i.closers = append(i.closers, client.Close)
		if err := kafka.EnsureTopic(ctx, client, cfg.Audit.KafkaTopic, 3, 1); err != nil {
			return nil, err
		}
		i.audit = kafka.New(client, cfg.Audit.KafkaTopic)
	case config.SinkPostgres:
		db, err := openDB(cfg.Audit.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if _, err := db.ExecContext(ctx, auditpg.Schema); err != nil {
			return nil, fmt.Errorf("create audit table: %w", err)
		}
		pub := publisher.NewPublisher(auditpg.New(db),
			publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
			publisher.WithLogger(log),
		)
		i.closers = append(i.closers, pub.Close)
		i.audit = pub
	default:
		pub := publisher.NewPublisher(memory.NewInMemoryStore(),
			publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
			publisher.WithLogger(log),
		)
		i.closers = append(i.closers, pub.Close)
		i.audit = pub
	}
	return i, nil
}
