package main

import (
	"context"
	"fmt"
	"time"

	"dataroom/backend/go/internal/config"
	"dataroom/backend/go/internal/database/kafka"
	"dataroom/backend/go/internal/database/milvus"
	"dataroom/backend/go/internal/database/minio"
	"dataroom/backend/go/internal/database/mysql"
	"dataroom/backend/go/internal/database/redis"
	"dataroom/backend/go/internal/discovery/etcd"
	"dataroom/backend/go/internal/embedding"
	"dataroom/backend/go/internal/rag_service/rag/dal"
	"dataroom/backend/go/internal/rag_service/rag/interfaces"
	"dataroom/backend/go/internal/rag_service/rag/loaders"
	"dataroom/backend/go/internal/rag_service/rag/pipeline"
	"dataroom/backend/go/internal/rag_service/rag/schema"
	"dataroom/backend/go/internal/rag_service/rag/splitters"
	"dataroom/backend/go/internal/rag_service/rag/storages/docstore"
	"dataroom/backend/go/internal/rag_service/rag/storages/vectorstore"
	"dataroom/backend/go/internal/rag_service/service"
	"dataroom/backend/go/pkg/circuitbreaker"
	"dataroom/backend/go/pkg/logger"
)

// dependencies holds everything main needs to serve and to shut down.
type dependencies struct {
	Server *service.Server

	log       *logger.Logger
	events    interfaces.EventPublisher
	discovery *etcd.ServiceDiscovery
	reg       *etcd.Registration
	closers   []func() error
}

// buildDependencies connects the configured backends. The vector store is
// required; Redis, MinIO, MySQL, Kafka and etcd are used only when configured.
func buildDependencies(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*dependencies, error) {
	d := &dependencies{log: log}

	embedder, err := buildEmbedder(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	newStore, err := buildStoreFactory(cfg, embedder, log)
	if err != nil {
		return nil, err
	}

	opts := pipeline.Options{
		CollectionSuffix: cfg.Rag.CollectionSuffix,
		Chunking:         splitters.Config(cfg.Rag.Chunking.Indexing),
		FileChunking:     splitters.Config(cfg.Rag.Chunking.Default),
		Vectorizer: schema.VectorizerConfig{
			Provider:  cfg.Embedding.Provider,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
		},
		DefaultLimit: cfg.Rag.DefaultLimit,
	}
	registry := pipeline.NewRegistry(func(ctx context.Context, projectID string) (*pipeline.ProjectRag, error) {
		return pipeline.Connect(ctx, projectID, newStore, opts, log)
	})

	deps := service.Deps{
		Registry: registry,
		Loader:   loaders.NewAutoLoader(),
		Log:      log,
	}

	if cfg.Databases.MinIO.Endpoint != "" {
		client, err := minio.GetClient(ctx, &cfg.Databases.MinIO)
		if err != nil {
			return nil, err
		}
		archive, err := docstore.NewMinioArchive(ctx, client, cfg.Databases.MinIO.Bucket)
		if err != nil {
			return nil, err
		}
		deps.Archive = archive
		log.Info(fmt.Sprintf("Archiving raw documents to MinIO bucket %s", cfg.Databases.MinIO.Bucket))
	}

	if cfg.Databases.MySQL.Address != "" {
		db, err := mysql.GetDB(&cfg.Databases.MySQL)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, mysql.Close)
		projectDal := dal.NewProjectDAL(db)
		if err := projectDal.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("failed to migrate project catalog: %w", err)
		}
		deps.Catalog = projectDal
	}

	d.events = kafka.NoopPublisher{}
	if len(cfg.Databases.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopic(ctx, &cfg.Databases.Kafka); err != nil {
			log.Warn(fmt.Sprintf("Kafka topic check failed, publishing anyway: %v", err))
		}
		d.events = kafka.NewIndexEventPublisher(&cfg.Databases.Kafka)
		log.Info(fmt.Sprintf("Publishing index events to Kafka topic %s", cfg.Databases.Kafka.Topic))
	}
	deps.Events = d.events
	d.closers = append(d.closers, d.events.Close)

	if len(cfg.Databases.Etcd.Endpoints) > 0 {
		sd, err := etcd.NewServiceDiscovery(&cfg.Databases.Etcd, log)
		if err != nil {
			return nil, err
		}
		d.discovery = sd
		d.closers = append(d.closers, sd.Close)
	}

	d.Server = service.NewServer(deps)
	return d, nil
}

func buildEmbedder(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (embedding.Embedding, error) {
	embedder, err := embedding.NewEmdModel(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding model: %w", err)
	}
	log.Info(fmt.Sprintf("Using %s embeddings (dimension %d)", cfg.Embedding.Provider, cfg.Embedding.Dimension))

	cacheCfg := cfg.Embedding.Cache
	ttl := 10 * time.Minute
	if cacheCfg.TTL != "" {
		if ttl, err = time.ParseDuration(cacheCfg.TTL); err != nil {
			return nil, fmt.Errorf("invalid embedding cache ttl %q: %w", cacheCfg.TTL, err)
		}
	}

	var cache embedding.VectorCache
	switch {
	case cacheCfg.Redis && cfg.Databases.Redis.Address != "":
		rdb, err := redis.GetClient(ctx, &cfg.Databases.Redis)
		if err != nil {
			return nil, err
		}
		cache = embedding.NewRedisVectorCache(rdb, ttl, log)
	case cacheCfg.Capacity > 0:
		lru, err := embedding.NewLRUVectorCache(cacheCfg.Capacity, ttl)
		if err != nil {
			return nil, err
		}
		cache = lru
	default:
		return embedder, nil
	}
	return embedding.NewCachedModel(embedder, cache, embedding.ModelKey(cfg.Embedding), log), nil
}

func buildStoreFactory(cfg *config.AppConfig, embedder embedding.Embedding, log *logger.Logger) (pipeline.StoreFactory, error) {
	switch cfg.VectorStore.Type {
	case config.VectorStoreMemory:
		// One store shared by all projects; collections keep them apart.
		store := vectorstore.NewMemoryStore(embedder)
		log.Warn("Using the in-memory vector store; indexed data is lost on restart")
		return func(context.Context) (interfaces.VectorStore, error) { return store, nil }, nil
	case config.VectorStoreMilvus:
		mcfg := cfg.VectorStore.Milvus
		breaker, err := buildBreaker(cfg.VectorStore.CircuitBreaker)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (interfaces.VectorStore, error) {
			client, err := milvus.GetClient(ctx, &mcfg)
			if err != nil {
				return nil, err
			}
			store, err := vectorstore.NewMilvusStore(client, embedder, vectorstore.MilvusOptions{
				Dimension:     cfg.Embedding.Dimension,
				TextMaxLength: mcfg.TextMaxLength,
				Index:         mcfg.Index,
			}, log)
			if err != nil {
				return nil, err
			}
			if breaker == nil {
				return store, nil
			}
			return vectorstore.NewGuardedStore(store, breaker), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported vector store type: %s", cfg.VectorStore.Type)
	}
}

// buildBreaker returns the breaker shared by every project's Milvus store, or
// nil when disabled.
func buildBreaker(cfg config.CircuitBreakerConfig) (*circuitbreaker.Breaker, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid circuit breaker timeout %q: %w", cfg.Timeout, err)
	}
	return circuitbreaker.New(circuitbreaker.Settings{
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		Timeout:          timeout,
	}), nil
}

// Register announces this instance in etcd when discovery is configured.
func (d *dependencies) Register(ctx context.Context, serviceName, addr string) {
	if d.discovery == nil {
		return
	}
	reg, err := d.discovery.Register(ctx, serviceName, addr)
	if err != nil {
		d.log.Warn(fmt.Sprintf("Failed to register with etcd: %v", err))
		return
	}
	d.reg = reg
}

// Deregister revokes the etcd lease, if any.
func (d *dependencies) Deregister(ctx context.Context) {
	if d.reg == nil {
		return
	}
	if err := d.reg.Stop(ctx); err != nil {
		d.log.Warn(fmt.Sprintf("Failed to deregister from etcd: %v", err))
	}
}

// Close releases backend connections in reverse order of creation.
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.log.Warn(fmt.Sprintf("Failed to close dependency: %v", err))
		}
	}
	_ = milvus.Close()
	_ = redis.Close()
}
