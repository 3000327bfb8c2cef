package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mchlbschmdt/ai-concierge/cmd/mainconfig"
	"github.com/mchlbschmdt/ai-concierge/internal/app/bootstrap"
	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/observability/metrics"
)

func main() {
	cfg, logger := mainconfig.Load()
	if cfg.UseMemoryQueue {
		logger.Error("conversation worker needs a shared queue; unset USE_MEMORY_QUEUE and set CONVERSATION_QUEUE_URL")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsConfig, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	rt, err := bootstrap.BuildRuntime(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build runtime", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	reg := prometheus.NewRegistry()
	conciergeMetrics := metrics.NewConciergeMetrics(reg)
	messagingMetrics := metrics.NewMessagingMetrics(reg)

	recommender, releaseLLM, err := bootstrap.BuildRecommender(ctx, cfg, &awsConfig, logger)
	if err != nil {
		logger.Error("failed to build recommender", "error", err)
		os.Exit(1)
	}
	defer releaseLLM()
	processor, err := bootstrap.BuildConversationService(rt, recommender, cfg, conciergeMetrics, logger)
	if err != nil {
		logger.Error("failed to build conversation service", "error", err)
		os.Exit(1)
	}
	queue, err := bootstrap.BuildQueue(cfg, &awsConfig)
	if err != nil {
		logger.Error("failed to build queue", "error", err)
		os.Exit(1)
	}
	messenger, provider, err := bootstrap.BuildReplyMessenger(cfg, logger)
	if err != nil {
		logger.Error("failed to build reply messenger", "error", err)
		os.Exit(1)
	}

	opts := append(rt.WorkerOptions(),
		conversation.WithWorkerCount(cfg.WorkerCount),
		conversation.WithWorkerMetrics(messagingMetrics),
	)
	worker := conversation.NewWorker(processor, queue, messenger, logger, opts...)
	worker.Start(ctx)
	logger.Info("conversation worker started", "provider", provider, "workers", cfg.WorkerCount)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics server stopped", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down conversation worker...")
	cancel()

	doneCtx, doneCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer doneCancel()
	_ = metricsSrv.Shutdown(doneCtx)

	waitCh := make(chan struct{})
	go func() {
		worker.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		logger.Info("conversation worker stopped")
	case <-doneCtx.Done():
		logger.Error("conversation worker shutdown timed out", "error", doneCtx.Err())
	}
}
