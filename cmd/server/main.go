package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/S1nghAryan/pbl-4/internal/api"
	"github.com/S1nghAryan/pbl-4/internal/config"
	"github.com/S1nghAryan/pbl-4/internal/extract"
	"github.com/S1nghAryan/pbl-4/internal/index"
	"github.com/S1nghAryan/pbl-4/internal/llm"
	"github.com/S1nghAryan/pbl-4/internal/rag"
	"github.com/joho/godotenv"
	"github.com/philippgille/chromem-go"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize collaborators.
	llmClient := llm.NewClient(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
	extractor := &extract.PDFExtractor{FallbackPdftotext: cfg.PDFFallbackPdftotext}

	var builder index.Builder
	switch cfg.Strategy {
	case config.StrategyTruncation:
		builder = index.NewTruncationBuilder(cfg.MaxContextChars)
	default:
		embed := chromem.NewEmbeddingFuncOpenAICompat(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, nil)
		builder = index.NewVectorBuilder(embed)
	}

	// Initialize pipeline.
	pipeline := rag.NewPipeline(cfg, llmClient, extractor, builder, log)
	pipeline.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(pipeline, llmClient, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		// Drain in-flight requests before tearing down their collaborators.
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		pipeline.Stop()
		llmClient.Close()
	}()

	log.Info("starting server", "port", cfg.Port, "strategy", cfg.Strategy)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
