package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/truststack/scorer/internal/api/handlers"
	"github.com/truststack/scorer/internal/attributes"
	"github.com/truststack/scorer/internal/classify"
	"github.com/truststack/scorer/internal/gate"
	"github.com/truststack/scorer/internal/ingestion"
	"github.com/truststack/scorer/internal/llm"
	"github.com/truststack/scorer/internal/metrics"
	"github.com/truststack/scorer/internal/middleware/ratelimit"
	"github.com/truststack/scorer/internal/pipeline"
	"github.com/truststack/scorer/internal/reputation/neo4j"
	"github.com/truststack/scorer/internal/rubric"
	"github.com/truststack/scorer/internal/storage/sqlite"
	"github.com/truststack/scorer/internal/triage"
	"github.com/truststack/scorer/internal/vector/zilliz"
	"github.com/truststack/scorer/pkg/config"
	appLogger "github.com/truststack/scorer/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting TrustStack scoring server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	rubricStore := rubric.NewStore(cfg.Rubric.Path)

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.EmbeddingModel,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
		cfg.LLM.TimeoutSec,
	)

	var cacheStore classify.Store
	switch cfg.Cache.Backend {
	case "redis":
		cacheStore, err = classify.NewRedisStore(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			appLogger.Fatal("Failed to create Redis cache store", zap.Error(err))
		}
	default:
		cacheStore, err = classify.NewFileStore(cfg.Cache.Dir, cfg.LLM.Model)
		if err != nil {
			appLogger.Fatal("Failed to create file cache store", zap.Error(err))
		}
	}

	classifier := classify.NewClassifier(
		llmClient,
		cacheStore,
		time.Duration(cfg.LLM.MinRequestInterval)*time.Millisecond,
		rubricStore.Rubric().Defaults.MaxLLMItems,
	)

	// Heuristic and linguistic detectors are always on. The reputation
	// and vector backed detectors decline gracefully when their backend
	// stays disabled.
	aggregator := attributes.NewAggregator(
		attributes.AILabelingDetector{},
		attributes.AuthorIdentityDetector{},
		attributes.TitleBodyConsistencyDetector{},
		attributes.AIDisclosureDetector{},
		attributes.PrivacyPolicyDetector{},
		attributes.CitationSupportDetector{},
		attributes.SponsoredLabelDetector{},
		attributes.ReadabilityDetector{},
		attributes.ToneDetector{},
	)

	if cfg.Neo4j.Enabled {
		neo4jClient, err := neo4j.NewClient(
			cfg.Neo4j.URI,
			cfg.Neo4j.Username,
			cfg.Neo4j.Password,
			cfg.Neo4j.Database,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Neo4j client", zap.Error(err))
		}
		defer neo4jClient.Close(context.Background())
		aggregator.Register(attributes.DomainTrustDetector{Lookup: neo4jClient})
	}

	if cfg.Zilliz.Enabled {
		zillizClient, err := zilliz.NewClient(
			cfg.Zilliz.Endpoint,
			cfg.Zilliz.APIKey,
			cfg.Zilliz.CollectionName,
			cfg.Zilliz.VectorDim,
		)
		if err != nil {
			appLogger.Fatal("Failed to create Zilliz client", zap.Error(err))
		}
		defer zillizClient.Close()

		err = zillizClient.EnsureCollection(context.Background())
		if err != nil {
			appLogger.Fatal("Failed to ensure exemplar collection", zap.Error(err))
		}
		aggregator.Register(attributes.EmbeddingSimilarityDetector{
			Embedder: llmClient,
			Searcher: zillizClient,
		})
	}

	scoringPipeline := pipeline.New(
		gate.New(),
		triage.NewScorer(cfg.Triage.PromoteThreshold),
		aggregator,
		classifier,
		rubricStore,
		sqliteClient,
	)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.Server.RequestsPerMinute,
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(limiter.Middleware())

	runsHandler := handlers.NewRunsHandler(scoringPipeline, ingestion.NewNormalizer(), sqliteClient)
	rubricHandler := handlers.NewRubricHandler(rubricStore)

	api := app.Group("/api/v1")

	api.Post("/runs", runsHandler.HandleCreateRun)
	api.Get("/runs", runsHandler.HandleListRuns)
	api.Get("/runs/:id", runsHandler.HandleGetRun)

	api.Get("/rubric", rubricHandler.HandleGetRubric)
	api.Post("/rubric/reload", rubricHandler.HandleReloadRubric)

	app.Get("/metrics", metrics.MetricsHandler())

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
