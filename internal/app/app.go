package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ugel-ilo/sgd-backend/internal/config"
	"github.com/ugel-ilo/sgd-backend/internal/core"
	db "github.com/ugel-ilo/sgd-backend/internal/core/database"
	"github.com/ugel-ilo/sgd-backend/internal/core/extraction"
	"github.com/ugel-ilo/sgd-backend/internal/core/ingest"
	"github.com/ugel-ilo/sgd-backend/internal/core/llm"
	"github.com/ugel-ilo/sgd-backend/internal/core/metadata"
	objectclient "github.com/ugel-ilo/sgd-backend/internal/core/object-client"
	"github.com/ugel-ilo/sgd-backend/internal/core/ocr"
	"github.com/ugel-ilo/sgd-backend/internal/core/queue"
	"github.com/ugel-ilo/sgd-backend/internal/core/search"
)

// App holds every long-lived component. The same wiring backs both the API
// binary (server plus workers) and the worker-only binary.
type App struct {
	Config   *config.Config
	DBClient *db.DatabaseClient
	Jobs     core.JobStore
	Pool     *ingest.Pool
	Server   *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	geminiEmbedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel, cfg.EmbedDim)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the llm: %w", err)
	}

	extractor := extraction.NewEngine(
		ocr.NewTesseractEngine(), ocr.NewPopplerRasterizer(), cfg.OCRLanguage, cfg.OCRDpi)
	metaExtractor := metadata.NewExtractor(llmProvider)

	jobs := queue.NewStore(dbClient.DB(), time.Duration(cfg.JobLeaseMinutes)*time.Minute)

	orch := ingest.NewOrchestrator(dbClient, objClient, extractor, metaExtractor, geminiEmbedder, jobs,
		ingest.Config{
			Bucket:       cfg.BucketName,
			ChunkSize:    cfg.ChunkSize,
			ChunkOverlap: cfg.ChunkOverlap,
		})
	pool := ingest.NewPool(orch, jobs, ingest.PoolConfig{
		NumWorkers:       cfg.NumWorkers,
		MaxJobsPerWorker: cfg.MaxJobsPerWorker,
		PollInterval:     time.Duration(cfg.WorkerPollSeconds) * time.Second,
		MaxAttempts:      cfg.MaxJobAttempts,
		RetryBaseSeconds: cfg.RetryBaseSeconds,
	})

	searchEngine := search.NewEngine(dbClient, geminiEmbedder)
	server := NewServer(cfg, dbClient, objClient, jobs, searchEngine)

	return &App{
		Config:   cfg,
		DBClient: dbClient,
		Jobs:     jobs,
		Pool:     pool,
		Server:   server,
	}, nil
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
