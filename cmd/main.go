package main

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"placelink/internal/config"
	"placelink/internal/core/enrich"
	"placelink/internal/core/notify"
	"placelink/internal/core/resolve"
	"placelink/internal/logger"
	rds "placelink/internal/platform/redis"
	tasks "placelink/internal/platform/tasks"
	"placelink/internal/search"
	"placelink/internal/server"
	"placelink/internal/worker"
)

func main() {
	cfg := config.Load()
	log.Printf("[placelink] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	// Initialize logger
	logr := logger.New("main")

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// Asynq client and server. Concurrency defaults to 1 to match the
	// one-job-at-a-time drain; raising it is safe because per-entity
	// exclusion comes from the distributed lock, not queue ordering.
	taskClient := tasks.New(redisSvc)
	defer taskClient.Close()
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{"enrich": 1},
	})

	// Provider registry
	providers, err := config.LoadProviders(cfg.ProvidersFile)
	if err != nil {
		log.Fatalf("failed to load provider registry: %v", err)
	}

	// Core services
	adapter := search.NewHTTPAdapter(search.Options{
		Endpoint: cfg.SearchEndpoint,
		APIKey:   cfg.SearchAPIKey,
		RPS:      cfg.SearchRPS,
	})
	resolver := resolve.New(adapter, providers, cfg.MinMatchScore, cfg.SearchMaxResults)
	store := enrich.NewStore(redisSvc, cfg.FoundTTL, cfg.NotFoundTTL, cfg.LockTTL)
	publisher := notify.NewPublisher(redisSvc)
	enrichSvc := enrich.NewService(store, resolver, publisher, taskClient, cfg)

	// Worker mux
	mux := worker.NewMux()
	mux.HandleFunc(tasks.TaskTypeEnrich, enrichSvc.HandleEnrichTask)

	// Start worker
	go func() {
		if err := asynqServer.Start(mux.Mux()); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "Placelink Enrichment",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})

	deps := server.Dependencies{
		Enrich:  enrich.NewHandler(enrichSvc, store, providers, cfg),
		Updates: notify.NewHandler(redisSvc),
		Redis:   redisSvc,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark application as ready after all services are initialized
	go func() {
		time.Sleep(2 * time.Second)
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("Shutting down...")
		asynqServer.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
