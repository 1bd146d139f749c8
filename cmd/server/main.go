package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hlspress/hlspress/internal/api"
	"github.com/hlspress/hlspress/internal/cache"
	"github.com/hlspress/hlspress/internal/config"
	"github.com/hlspress/hlspress/internal/database"
	"github.com/hlspress/hlspress/internal/events"
	"github.com/hlspress/hlspress/internal/logging"
	"github.com/hlspress/hlspress/internal/queue"
	"github.com/hlspress/hlspress/internal/realtime"
	"github.com/hlspress/hlspress/internal/storage"
	"github.com/hlspress/hlspress/internal/tracing"
	"github.com/hlspress/hlspress/internal/transcoder"
	"github.com/hlspress/hlspress/internal/webhook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
		if err != nil {
			log.Fatalf("failed to initialize tracing: %v", err)
		}
		defer closer.Close()
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := database.NewRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to ensure database schema: %v", err)
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize storage: %v", err)
	}

	listCache, err := cache.New(cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer listCache.Close()

	bus := events.NewBus()
	hub := realtime.NewHub(log)
	bus.Register(hub)
	if len(cfg.Webhooks) > 0 {
		bus.Register(webhook.NewService(cfg.Webhooks, log))
	}

	ffmpeg := transcoder.NewFFmpeg(cfg.Transcoder.FFmpegPath, cfg.Transcoder.FFprobePath, log)
	pipeline := transcoder.NewService(ffmpeg, repo, bus, log, cfg.Transcoder.SegmentTime, cfg.Storage.PublicURL)

	jobs := queue.New(pipeline, repo, bus, log)
	jobs.Start()
	defer jobs.Stop()

	// Interrupted jobs go back on the queue before any new request can
	// be accepted, so they keep their place at the head.
	if err := jobs.ResumePending(ctx, store); err != nil {
		log.Fatalf("failed to resume pending jobs: %v", err)
	}

	handlers := api.New(repo, ffmpeg, jobs, store, listCache, bus, log)
	router := api.SetupRouter(handlers, hub, cfg, log)

	// Uploads and segment downloads can legitimately take minutes, so
	// only the header read is put on a clock.
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("forced shutdown: %v", err)
	}
	// queue.Stop (deferred) waits for the in-flight job; an interrupted
	// one is replayed from the database on the next start.
}
