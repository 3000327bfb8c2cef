package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mchlbschmdt/ai-concierge/cmd/mainconfig"
	"github.com/mchlbschmdt/ai-concierge/internal/app/bootstrap"
	"github.com/mchlbschmdt/ai-concierge/internal/conversation"
	"github.com/mchlbschmdt/ai-concierge/internal/observability/metrics"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

type jobHandler interface {
	HandleJob(ctx context.Context, body string) error
}

// sqsHandler runs each record through the worker. Failed jobs are logged and
// not reported back, so SQS never redelivers a job that may already have
// texted the guest.
type sqsHandler struct {
	jobs   jobHandler
	logger *logging.Logger
}

func (h *sqsHandler) handle(ctx context.Context, evt events.SQSEvent) (events.SQSEventResponse, error) {
	for _, record := range evt.Records {
		if err := h.jobs.HandleJob(ctx, record.Body); err != nil {
			h.logger.Error("conversation job failed", "message_id", record.MessageId, "error", err)
		}
	}
	return events.SQSEventResponse{}, nil
}

func main() {
	cfg, logger := mainconfig.Load()
	ctx := context.Background()

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

	recommender, _, err := bootstrap.BuildRecommender(ctx, cfg, &awsConfig, logger)
	if err != nil {
		logger.Error("failed to build recommender", "error", err)
		os.Exit(1)
	}
	// Metrics are process-local in Lambda; the registry keeps collectors valid.
	reg := prometheus.NewRegistry()
	processor, err := bootstrap.BuildConversationService(rt, recommender, cfg, metrics.NewConciergeMetrics(reg), logger)
	if err != nil {
		logger.Error("failed to build conversation service", "error", err)
		os.Exit(1)
	}
	queue, err := bootstrap.BuildQueue(cfg, &awsConfig)
	if err != nil {
		logger.Error("failed to build queue", "error", err)
		os.Exit(1)
	}
	messenger, _, err := bootstrap.BuildReplyMessenger(cfg, logger)
	if err != nil {
		logger.Error("failed to build reply messenger", "error", err)
		os.Exit(1)
	}

	worker := conversation.NewWorker(processor, queue, messenger, logger,
		append(rt.WorkerOptions(), conversation.WithWorkerMetrics(metrics.NewMessagingMetrics(reg)))...)
	h := &sqsHandler{jobs: worker, logger: logger}
	lambda.Start(h.handle)
}
