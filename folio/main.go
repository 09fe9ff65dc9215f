package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/folio/config"
	"folio/folio/controllers"
	"folio/folio/prompts"
	"folio/folio/routes"
	"folio/folio/services/llm"
	"folio/folio/services/ratelimit"
	"folio/folio/services/scheduler"
	"folio/folio/sources/psql"
	"folio/folio/sources/psql/dao"
	"folio/folio/sources/redisstore"
	"folio/folio/sources/storage"
	"folio/folio/utils/logging"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	if err := logging.InitLogger(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
		Dir:    cfg.LogDir,
	}); err != nil {
		panic(err)
	}
	defer logging.Sync()

	if err := cfg.Validate(); err != nil {
		logging.ErrorLogger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := psql.NewDatabase(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.ErrorLogger.Fatal("database connection error", zap.Error(err))
	}
	defer db.Close()

	p, err := prompts.Load(cfg.PromptsFile)
	if err != nil {
		logging.ErrorLogger.Fatal("prompts", zap.Error(err))
	}

	rateDAO := dao.NewRateLimitDAO(db.DB)
	var counter ratelimit.Counter = rateDAO
	switch cfg.RateLimitBackend {
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logging.ErrorLogger.Fatal("pgx pool error", zap.Error(err))
		}
		defer pool.Close()
		counter = dao.NewAtomicRateLimitDAO(pool)
	case config.BackendRedis:
		rdb, err := redisstore.Connect(ctx, cfg.RedisURL)
		if err != nil {
			logging.ErrorLogger.Fatal("redis connection error", zap.Error(err))
		}
		defer rdb.Close()
		counter = redisstore.NewRateLimitStore(rdb, "")
	}
	limiter := ratelimit.NewLimiter(counter, cfg.RateLimitMax, cfg.RateLimitWindow)
	logging.AppLogger.Info("rate limiter ready",
		zap.String("backend", cfg.RateLimitBackend),
		zap.Int("max", cfg.RateLimitMax),
		zap.Duration("window", cfg.RateLimitWindow))

	// redis counters expire on their own
	if cfg.RateLimitBackend != config.BackendRedis {
		purge, err := scheduler.Start(cfg.RateLimitPurge, scheduler.NewPurgeJob(rateDAO, cfg.RateLimitWindow))
		if err != nil {
			logging.ErrorLogger.Fatal("purge schedule", zap.String("schedule", cfg.RateLimitPurge), zap.Error(err))
		}
		defer purge.Stop()
	}

	var archive controllers.SummaryArchive
	if cfg.MinIOEnabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Fatal("minio connection error", zap.Error(err))
		}
		archive = storage.NewSummaryArchive(minioClient, cfg.MinIOBucket)
	}

	gateway := llm.NewGatewayClient(cfg.AIGatewayURL, cfg.AIGatewayAPIKey, cfg.AIModel, cfg.UpstreamTimeout)
	completer := llm.NewCompletionClient(cfg.AIGatewayURL, cfg.AIGatewayAPIKey, cfg.AIModel, cfg.SummaryTimeout)

	r := routes.NewRouter(cfg, routes.Controllers{
		Health:  controllers.NewHealthController(db),
		Chat:    controllers.NewChatController(gateway, limiter, p),
		Summary: controllers.NewSummaryController(dao.NewArticleSummaryDAO(db.DB), completer, p, archive),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
	}()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
