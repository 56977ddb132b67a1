// Command search-indexer wires every component into a running process:
// it loads configuration, opens the database pool and one index shard per
// configured prefecture, starts the Redis-backed ingest consumer and the
// background bulk-load job, and serves the REST surface.
//
// Grounded on the sibling pre-processor service's main.go for the overall
// shape (background job goroutines with panic recovery, a single process
// serving both jobs and an HTTP listener).
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"search-indexer/config"
	"search-indexer/consumer"
	"search-indexer/db"
	"search-indexer/exportcache"
	"search-indexer/gateway"
	"search-indexer/index"
	"search-indexer/journal"
	"search-indexer/logger"
	"search-indexer/middleware"
	"search-indexer/queryproc"
	"search-indexer/rest"
	"search-indexer/router"
	"search-indexer/searchservice"
	"search-indexer/tokenize"
	"search-indexer/usecase"
	"search-indexer/utils"
)

// bulkLoadInterval paces the background ingest job once it has caught up to
// the end of the upstream table (it still wakes promptly while pages remain).
const bulkLoadInterval = 30 * time.Second

// bulkLoadBatchSize is the page size the ingest job requests per cycle.
const bulkLoadBatchSize = 200

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Default().Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	shutdownOTel, err := logger.InitOTelProvider(ctx, logger.OTelConfig{
		ServiceName:  logger.ServiceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		Enabled:      cfg.OTelEnabled,
	})
	if err != nil {
		slog.Default().Error("failed to initialize otel provider", "error", err)
		os.Exit(1)
	}
	defer shutdownOTel(context.Background())

	// logger.New must run after InitOTelProvider: its OTel fan-out handler
	// bridges whatever LoggerProvider is registered at construction time.
	log := logger.New(getLogLevel(), cfg.OTelEnabled)

	pool, err := db.Connect(ctx, cfg.Database.BuildPostgresURL())
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	repo := gateway.New(pool)

	tok, err := tokenize.New(cfg.TokenizerBackend, log)
	if err != nil {
		log.Error("failed to construct tokenizer", "error", err)
		os.Exit(1)
	}
	proc := queryproc.New(tok)

	services := make(map[string]*searchservice.Service, len(cfg.Prefectures))
	routerConfigs := make(map[string]router.PrefectureConfig, len(cfg.Prefectures))
	for code, prefCfg := range cfg.Prefectures {
		eng, err := index.Open(prefCfg.Dir, log)
		if err != nil {
			log.Error("failed to open index shard", "prefecture", code, "dir", prefCfg.Dir, "error", err)
			os.Exit(1)
		}
		defer eng.Close()

		svc, err := searchservice.New(eng, proc)
		if err != nil {
			log.Error("failed to build search service", "prefecture", code, "error", err)
			os.Exit(1)
		}
		services[code] = svc
		routerConfigs[code] = router.PrefectureConfig{Name: prefCfg.Name}
	}

	r := router.New(services, routerConfigs)

	j, err := journal.Open(cfg.JournalRoot, proc, log)
	if err != nil {
		log.Error("failed to open journal", "error", err)
		os.Exit(1)
	}

	ec, err := exportcache.Open(cfg.ExportCacheRoot, r)
	if err != nil {
		log.Error("failed to open export cache", "error", err)
		os.Exit(1)
	}

	sanitizer := utils.NewQuerySanitizer(utils.DefaultSecurityConfig())
	searchUC := usecase.NewSearchRecordsUsecase(r, sanitizer, j)
	indexUC := usecase.NewIndexRecordsUsecase(repo, router.NewRoutingIndexEngine(r), tok)

	go runBulkLoadJob(ctx, log, indexUC)

	eventHandler := consumer.NewIndexEventHandler(r, log)
	defer eventHandler.Stop()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "search-indexer"
	}
	subscriber, err := consumer.NewRedisSubscriber(ctx, cfg.RedisAddr, cfg.RedisStream, cfg.RedisGroup, eventHandler, log)
	if err != nil {
		log.Error("failed to start redis subscriber", "error", err)
		os.Exit(1)
	}
	defer subscriber.Close()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("redis subscriber panicked", "panic", r)
			}
		}()
		if err := subscriber.Run(ctx, hostname); err != nil {
			log.Error("redis subscriber stopped", "error", err)
		}
	}()

	handler := rest.NewHandler(searchUC, r, j, ec)
	e := echo.New()
	e.HideBanner = true
	if cfg.OTelEnabled {
		e.Use(otelecho.Middleware(logger.ServiceName))
		e.Use(middleware.OTelStatusMiddleware())
	}
	handler.RegisterRoutes(e)

	log.Info("starting search-indexer", "addr", cfg.HTTP.Addr, "prefectures", len(services))
	if err := e.Start(cfg.HTTP.Addr); err != nil {
		log.Error("http server stopped", "error", err)
		os.Exit(1)
	}
}

// runBulkLoadJob repeatedly pages through the upstream repository, indexing
// each page as it arrives. Once a cycle exhausts the upstream table it backs
// off for bulkLoadInterval and then starts a new pass from the newest row,
// picking up whatever has been written upstream since.
func runBulkLoadJob(ctx context.Context, log *slog.Logger, uc *usecase.IndexRecordsUsecase) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("bulk load job panicked", "panic", r)
		}
	}()

	var lastCreatedAt *time.Time
	var lastID string

	for {
		result, err := uc.Execute(ctx, lastCreatedAt, lastID, bulkLoadBatchSize)
		if err != nil {
			log.Error("bulk load page failed", "error", err)
			time.Sleep(bulkLoadInterval)
			continue
		}

		if result.IndexedCount > 0 {
			log.Info("bulk load page indexed", "count", result.IndexedCount)
			lastCreatedAt = result.NextCreatedAt
			lastID = result.NextID
		}

		if result.ExhaustedPages {
			lastCreatedAt = nil
			lastID = ""
			time.Sleep(bulkLoadInterval)
		}
	}
}

func getLogLevel() string {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		return v
	}
	return "info"
}

