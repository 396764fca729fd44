package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/medialint/scene-validator/internal/analyzer"
	"github.com/medialint/scene-validator/internal/callback"
	"github.com/medialint/scene-validator/internal/config"
	"github.com/medialint/scene-validator/internal/events"
	"github.com/medialint/scene-validator/internal/httpserver"
	"github.com/medialint/scene-validator/internal/logging"
	"github.com/medialint/scene-validator/internal/media"
	"github.com/medialint/scene-validator/internal/metrics"
	"github.com/medialint/scene-validator/internal/store"
	"github.com/medialint/scene-validator/internal/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer logger.Sync()

	var st store.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalw("db open failed", "error", err)
		}
		defer db.Close()
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
		if err := db.Ping(); err != nil {
			logger.Fatalw("db ping failed", "error", err)
		}
		st = store.NewPGStore(db)
	} else {
		logger.Warnw("no database configured, using in-memory store")
		st = store.NewMemoryStore()
	}

	promRegistry := prometheus.NewRegistry()
	reg := metrics.NewRegistry(promRegistry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	source, err := media.New(ctx, logger)
	if err != nil {
		logger.Fatalw("media source init failed", "error", err)
	}
	gemini, err := analyzer.NewClient(analyzer.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
		Retries: 1,
		Metrics: reg,
	})
	if err != nil {
		logger.Fatalw("analyzer client init failed", "error", err)
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(events.KafkaPublisherConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			logger.Fatalw("kafka publisher init failed", "error", err)
		}
		defer kp.Close()
		publisher = kp
	}

	svc := validator.New(validator.Deps{
		Store:            st,
		Media:            source,
		Analyzer:         gemini,
		Notifier:         callback.NewSender(10 * time.Second),
		Publisher:        publisher,
		Metrics:          reg,
		Log:              logger,
		FrameSampleCount: cfg.FrameSampleCount,
	})
	server := httpserver.New(httpserver.Config{
		Service:    svc,
		Store:      st,
		AuthSecret: cfg.AuthSecret,
		Metrics:    reg,
		Gatherer:   promRegistry,
		Log:        logger,
	})

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: server.Router(),
	}

	go func() {
		logger.Infow("scene validator listening", "addr", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalw("http server error", "error", err)
		}
	}()

	waitForShutdown(cancel, httpServer, logger)
}

func waitForShutdown(cancel context.CancelFunc, srv *http.Server, logger *zap.SugaredLogger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	cancel()
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorw("graceful shutdown failed", "error", err)
	}
}
