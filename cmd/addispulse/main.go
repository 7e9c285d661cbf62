package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/addispulse/addispulse/internal/brief"
	"github.com/addispulse/addispulse/internal/config"
	"github.com/addispulse/addispulse/internal/digest"
	"github.com/addispulse/addispulse/internal/fetch"
	"github.com/addispulse/addispulse/internal/homepage"
	"github.com/addispulse/addispulse/internal/langid"
	"github.com/addispulse/addispulse/internal/logger"
	"github.com/addispulse/addispulse/internal/newsapi"
	"github.com/addispulse/addispulse/internal/pipeline"
	"github.com/addispulse/addispulse/internal/resolve"
	"github.com/addispulse/addispulse/internal/retry"
	"github.com/addispulse/addispulse/internal/rss"
	"github.com/addispulse/addispulse/internal/scheduler"
	"github.com/addispulse/addispulse/internal/server"
	"github.com/addispulse/addispulse/internal/sources"
	"github.com/addispulse/addispulse/internal/telegram"
	"github.com/addispulse/addispulse/internal/vectorstore"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	registry := sources.NewRegistry()
	if cfg.SourcesConfigPath != "" {
		registry, err = sources.Load(cfg.SourcesConfigPath)
		if err != nil {
			logger.Error("failed to load sources config", "path", cfg.SourcesConfigPath, "error", err)
			os.Exit(1)
		}
	}

	embedding := vectorstore.LocalEmbedding()
	if cfg.EmbeddingProvider == "openai" {
		embedding = vectorstore.OpenAIEmbedding(cfg.OpenAIAPIKey)
	}
	store, err := vectorstore.New(cfg.ChromaPath, embedding)
	if err != nil {
		logger.Error("failed to open vector store", "path", cfg.ChromaPath, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	completer, err := brief.NewGeminiCompleter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Error("failed to create Gemini client", "error", err)
		os.Exit(1)
	}
	defer completer.Close()
	composer := brief.NewComposer(store, completer)

	detector := langid.New()
	pacer := fetch.NewPacer(cfg.FetchDelay)
	renderer := fetch.NewCollyRenderer(pacer)
	retryCfg := retry.Config{MaxAttempts: cfg.RetryAttempts, Delay: cfg.RetryDelay}

	feeds := rss.NewHarvester(rss.NewParser(), registry, cfg.WindowDays)
	pages := homepage.NewHarvester(renderer, registry, cfg.FetchTimeout, retryCfg, cfg.HomepageLinkCap, cfg.HomepageKeepCap)
	scoop := digest.NewHarvester(renderer, cfg.FetchTimeout)
	resolver := resolve.New(renderer, registry, detector, cfg.WindowDays, cfg.FetchTimeout, retryCfg, cfg.ResolveConcurrency)

	pipe := pipeline.New(registry, feeds, pages, scoop, resolver, store, detector, pipeline.Options{
		PriorityURLPart:     cfg.PriorityURLPart,
		CandidateCap:        cfg.CandidateCap,
		ResultCap:           cfg.ResultCap,
		SimilarityThreshold: cfg.SimilarityThreshold,
	})

	handler := server.NewHandler(pipe, store, composer, newsapi.NewClient(cfg.NewsAPIKey), telegram.NewFetcher())
	srv := server.NewServer(cfg.ListenAddr, handler, cfg.Debug)

	var sched *scheduler.Scheduler
	if cfg.CronSpec != "" {
		sched = scheduler.New()
		if err := sched.Schedule(cfg.CronSpec, pipe.Run); err != nil {
			logger.Error("invalid cron spec", "spec", cfg.CronSpec, "error", err)
			os.Exit(1)
		}
		sched.Start()
		logger.Info("scheduler started", "spec", cfg.CronSpec)
	}

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}
