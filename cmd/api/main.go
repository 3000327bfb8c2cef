package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mchlbschmdt/ai-concierge/cmd/mainconfig"
	"github.com/mchlbschmdt/ai-concierge/internal/api/router"
	"github.com/mchlbschmdt/ai-concierge/internal/app/bootstrap"
	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/messaging"
	"github.com/mchlbschmdt/ai-concierge/internal/observability/metrics"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

func main() {
	cfg, logger := mainconfig.Load()
	logger.Info("starting ai-concierge API server", "env", cfg.Env, "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.OptionalAWSConfig(ctx, cfg)
	if err != nil {
		fatal(logger, "failed to load AWS config", err)
	}
	rt, err := bootstrap.BuildRuntime(ctx, cfg, logger)
	if err != nil {
		fatal(logger, "failed to build runtime", err)
	}
	defer rt.Close()

	metricsHandler, conciergeMetrics, messagingMetrics := setupMetrics()

	recommender, releaseLLM, err := bootstrap.BuildRecommender(ctx, cfg, awsCfg, logger)
	if err != nil {
		fatal(logger, "failed to build recommender", err)
	}
	defer releaseLLM()
	service, err := bootstrap.BuildConversationService(rt, recommender, cfg, conciergeMetrics, logger)
	if err != nil {
		fatal(logger, "failed to build conversation service", err)
	}

	queue, err := bootstrap.BuildQueue(cfg, awsCfg)
	if err != nil {
		fatal(logger, "failed to build queue", err)
	}

	// With the in-memory queue nothing else can drain jobs, so the API runs
	// the worker itself.
	var worker *conversation.Worker
	if cfg.UseMemoryQueue {
		messenger, provider, err := bootstrap.BuildReplyMessenger(cfg, logger)
		if err != nil {
			fatal(logger, "failed to build reply messenger", err)
		}
		opts := append(rt.WorkerOptions(),
			conversation.WithWorkerCount(cfg.WorkerCount),
			conversation.WithWorkerMetrics(messagingMetrics),
		)
		worker = conversation.NewWorker(service, queue, messenger, logger, opts...)
		worker.Start(ctx)
		logger.Info("in-process conversation worker started", "provider", provider, "workers", cfg.WorkerCount)
	}

	routerCfg := &router.Config{
		Logger:               logger,
		MessagingHandler:     messaging.NewHandler(conversation.NewPublisher(queue, logger), rt.Processed, messagingMetrics, logger),
		ConversationHandler:  conversation.NewHandler(service, rt.Transcripts(), logger),
		MetricsHandler:       metricsHandler,
		AdminToken:           cfg.AdminAPIToken,
		WebhookRatePerSecond: cfg.WebhookRatePerSecond,
		WebhookBurst:         cfg.WebhookBurst,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	cancel()
	if worker != nil {
		worker.Wait()
	}
	logger.Info("server stopped")
}

// setupMetrics registers the concierge collectors on a private registry.
func setupMetrics() (http.Handler, *metrics.ConciergeMetrics, *metrics.MessagingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	handler := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	return handler, metrics.NewConciergeMetrics(reg), metrics.NewMessagingMetrics(reg)
}

func fatal(logger *logging.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
