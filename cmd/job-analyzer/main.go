package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/poke-max/job-analyzer/internal/config"
	"github.com/poke-max/job-analyzer/internal/gcp"
	"github.com/poke-max/job-analyzer/internal/handlers"
	"github.com/poke-max/job-analyzer/internal/ollama"
	"github.com/poke-max/job-analyzer/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or could not be loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fsClient, err := gcp.NewFirestoreClient(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer fsClient.Close()

	storageClient, err := gcp.NewStorageClient(ctx, cfg.CredentialsFile)
	if err != nil {
		log.Fatalf("Failed to create Storage client: %v", err)
	}
	defer storageClient.Close()

	chat, err := ollama.NewClient(cfg.OllamaAPIURL, cfg.OllamaAPIKey, cfg.OllamaModel, cfg.OllamaTimeout, ollama.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		Delay:       cfg.RetryDelay,
	})
	if err != nil {
		log.Fatalf("Failed to create inference client: %v", err)
	}

	analyzer := services.NewAnalyzer(chat)
	store := services.NewStore(fsClient, storageClient, services.StoreConfig{
		Collection: cfg.JobsCollection,
		Folder:     cfg.StorageFolder,
		BucketName: cfg.StorageBucket,
	})
	worker := services.NewWorker(analyzer, store, services.WorkerConfig{
		ImageQuality: cfg.ImageQuality,
		ItemPause:    time.Second,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	handlers.New(worker, store).Register(router)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(ctx)
		return nil
	})
	g.Go(func() error {
		log.Printf("Listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Shutdown complete")
}
