package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"nlquery-engine/internal/ai"
	appsvc "nlquery-engine/internal/app"
	"nlquery-engine/internal/config"
	"nlquery-engine/internal/metrics"
	"nlquery-engine/internal/model"
	"nlquery-engine/internal/nlsql"
	mysqlClient "nlquery-engine/internal/platform/mysql"
	rabbitmqClient "nlquery-engine/internal/platform/rabbitmq"
	redisClient "nlquery-engine/internal/platform/redis"
	"nlquery-engine/internal/platform/sqlpool"
	"nlquery-engine/internal/repository"
	"nlquery-engine/internal/worker"
)

// App owns every long-lived resource: the metadata store, redis, the job
// queue, the target-database pool and the ingest worker.
type App struct {
	Config      *config.Config
	Storage     *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	Pool        *sqlpool.Pool
	Embedder    ai.Embedder
	IntentModel *nlsql.IntentModel
	Collector   *metrics.Collector
	Ingest      *appsvc.IngestService

	ingestWorker *worker.IngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	storage, err := mysqlClient.New(ctx, cfg.StorageDSN())
	if err != nil {
		return nil, err
	}
	if err := storage.AutoMigrate(&model.IngestionJob{}, &model.Document{}, &model.Chunk{}); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.IngestQueue)
	if err != nil {
		return nil, err
	}

	embedder := newEmbedder(cfg)

	intentModel, err := nlsql.NewIntentModel(ctx, embedder, cfg.Query.IntentConfidence)
	if err != nil {
		// Intent prediction degrades to the rule-based fallback.
		log.Printf("intent model unavailable, using rules only: %v", err)
		intentModel = nil
	}

	if err := os.MkdirAll(cfg.Ingest.SpoolDir, 0o755); err != nil {
		return nil, fmt.Errorf("create spool dir failed: %w", err)
	}

	jobRepo := repository.NewJobRepository(storage)
	docRepo := repository.NewDocumentRepository(storage)
	chunkRepo := repository.NewChunkRepository(storage)
	publisher := rabbitmqClient.NewTaskPublisher(mqConn, cfg.RabbitMQ.IngestQueue)

	ingestService := appsvc.NewIngestService(
		jobRepo,
		docRepo,
		chunkRepo,
		publisher,
		embedder,
		cfg.Ingest.SpoolDir,
		cfg.Ingest.MaxChunksPerDoc,
		cfg.Ingest.MaxFileSizeMB,
		cfg.Embedding.BatchSize,
	)

	ingestWorker := worker.NewIngestWorker(mqConn, ingestService, cfg.RabbitMQ.IngestQueue)
	if err := ingestWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	return &App{
		Config:       cfg,
		Storage:      storage,
		Redis:        redisCli,
		MQConn:       mqConn,
		Pool:         sqlpool.New(),
		Embedder:     embedder,
		IntentModel:  intentModel,
		Collector:    metrics.NewCollector(),
		Ingest:       ingestService,
		ingestWorker: ingestWorker,
		StartedAt:    time.Now(),
	}, nil
}

func newEmbedder(cfg *config.Config) ai.Embedder {
	if cfg.Embedding.APIKey != "" {
		return ai.NewOpenAIEmbedder(cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Embedding.Model)
	}
	return ai.NewLocalEmbedder(cfg.Embedding.LocalDim)
}

func (a *App) Close() error {
	var closeErr error

	if a.ingestWorker != nil {
		a.ingestWorker.Close()
	}
	if a.Pool != nil {
		if err := a.Pool.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Storage != nil {
		if sqlDB, err := a.Storage.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
