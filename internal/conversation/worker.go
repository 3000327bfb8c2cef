package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mchlbschmdt/ai-concierge/internal/observability/metrics"
	"github.com/mchlbschmdt/ai-concierge/pkg/logging"
)

const (
	defaultWorkerCount  = 2
	defaultWaitSeconds  = 2
	defaultBatchSize    = 5
	maxWaitSeconds      = 20
	maxReceiveBatchSize = 10
	deleteTimeout       = 5 * time.Second
	defaultSendTimeout  = 10 * time.Second
	transcriptTimeout   = 5 * time.Second
)

// Worker consumes guest message jobs, runs the dialog and texts the reply
// back segment by segment.
type Worker struct {
	processor   Processor
	queue       Queue
	messenger   ReplyMessenger
	transcripts []transcriptSink
	metrics     *metrics.MessagingMetrics
	logger      *logging.Logger

	cfg workerConfig
	wg  sync.WaitGroup
}

type workerConfig struct {
	workers          int
	receiveWaitSecs  int
	receiveBatchSize int
	sendTimeout      time.Duration
	transcripts      []transcriptSink
	metrics          *metrics.MessagingMetrics
}

// WorkerOption customizes worker behavior.
type WorkerOption func(*workerConfig)

// WithWorkerCount sets the number of concurrent consumer goroutines.
func WithWorkerCount(count int) WorkerOption {
	return func(cfg *workerConfig) {
		if count > 0 {
			cfg.workers = count
		}
	}
}

// WithReceiveWaitSeconds sets the long-poll wait duration.
func WithReceiveWaitSeconds(seconds int) WorkerOption {
	return func(cfg *workerConfig) {
		if seconds < 0 {
			return
		}
		if seconds > maxWaitSeconds {
			seconds = maxWaitSeconds
		}
		cfg.receiveWaitSecs = seconds
	}
}

// WithReceiveBatchSize sets how many messages to fetch per poll.
func WithReceiveBatchSize(size int) WorkerOption {
	return func(cfg *workerConfig) {
		if size <= 0 {
			return
		}
		if size > maxReceiveBatchSize {
			size = maxReceiveBatchSize
		}
		cfg.receiveBatchSize = size
	}
}

// WithSendTimeout bounds each outbound segment.
func WithSendTimeout(d time.Duration) WorkerOption {
	return func(cfg *workerConfig) {
		if d > 0 {
			cfg.sendTimeout = d
		}
	}
}

// WithTranscriptCache mirrors every message into the Redis transcript.
func WithTranscriptCache(cache *TranscriptCache) WorkerOption {
	return func(cfg *workerConfig) {
		if cache != nil {
			cfg.transcripts = append(cfg.transcripts, cache)
		}
	}
}

// WithTranscriptStore persists every message to PostgreSQL.
func WithTranscriptStore(store *TranscriptStore) WorkerOption {
	return func(cfg *workerConfig) {
		if store != nil {
			cfg.transcripts = append(cfg.transcripts, store)
		}
	}
}

// WithWorkerMetrics counts outbound sends.
func WithWorkerMetrics(m *metrics.MessagingMetrics) WorkerOption {
	return func(cfg *workerConfig) { cfg.metrics = m }
}

// NewWorker builds a worker. messenger may be nil, in which case replies are
// only logged and recorded.
func NewWorker(processor Processor, queue Queue, messenger ReplyMessenger, logger *logging.Logger, opts ...WorkerOption) *Worker {
	if processor == nil {
		panic("conversation: processor cannot be nil")
	}
	if queue == nil {
		panic("conversation: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	cfg := workerConfig{
		workers:          defaultWorkerCount,
		receiveWaitSecs:  defaultWaitSeconds,
		receiveBatchSize: defaultBatchSize,
		sendTimeout:      defaultSendTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		processor:   processor,
		queue:       queue,
		messenger:   messenger,
		transcripts: cfg.transcripts,
		metrics:     cfg.metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// Start launches the consumer goroutines; they stop when ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for i := 0; i < w.cfg.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i+1)
	}
}

// Wait blocks until all consumers have exited.
func (w *Worker) Wait() {
	w.wg.Wait()
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()
	w.logger.Debug("conversation worker started", "worker_id", workerID)

	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("conversation worker stopping", "worker_id", workerID)
			return
		default:
		}

		messages, err := w.queue.Receive(ctx, w.cfg.receiveBatchSize, w.cfg.receiveWaitSecs)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			w.logger.Error("failed to receive conversation jobs", "error", err, "worker_id", workerID)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 5*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		for _, msg := range messages {
			w.handleMessage(ctx, msg)
		}
	}
}

// handleMessage always deletes the message: a turn has already been
// persisted by the time a send can fail, so redelivery would answer twice.
func (w *Worker) handleMessage(ctx context.Context, msg QueueMessage) {
	if err := w.HandleJob(ctx, msg.Body); err != nil {
		w.logger.Error("conversation job failed", "error", err, "msg_id", msg.ID)
	}
	deleteCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	if err := w.queue.Delete(deleteCtx, msg.ReceiptHandle); err != nil {
		w.logger.Error("failed to delete conversation job", "error", err, "msg_id", msg.ID)
	}
}

// HandleJob processes one encoded job body. It is shared by the polling
// worker and the Lambda entrypoint.
func (w *Worker) HandleJob(ctx context.Context, body string) error {
	payload, err := decodePayload(body)
	if err != nil {
		return err
	}
	req := payload.Message
	w.logger.Info("worker processing job",
		"job_id", payload.ID,
		"phone", logging.MaskPhone(req.PhoneNumber),
		"message_id", req.MessageID,
		"queued_ms", time.Since(payload.EnqueuedAt).Milliseconds(),
	)

	w.record(ctx, TranscriptMessage{
		PhoneNumber:       req.PhoneNumber,
		Role:              RoleGuest,
		Body:              req.Message,
		ProviderMessageID: req.MessageID,
		Timestamp:         payload.EnqueuedAt,
	})

	resp, err := w.processor.ProcessMessage(ctx, req)
	if err != nil {
		return fmt.Errorf("conversation: job %s: %w", payload.ID, err)
	}
	return w.deliver(ctx, req, resp)
}

func (w *Worker) deliver(ctx context.Context, req MessageRequest, resp *Response) error {
	segments := resp.Segments
	if len(segments) == 0 && resp.Message != "" {
		segments = []string{resp.Message}
	}
	var errs []error
	for i, part := range segments {
		reply := OutboundReply{
			To:        resp.PhoneNumber,
			Body:      part,
			Part:      i + 1,
			Parts:     len(segments),
			InReplyTo: req.MessageID,
		}
		if err := w.send(ctx, reply); err != nil {
			errs = append(errs, fmt.Errorf("segment %d: %w", i+1, err))
			w.metrics.ObserveOutbound("failed")
			// Later segments read oddly without the earlier ones.
			break
		}
		w.metrics.ObserveOutbound("sent")
	}
	w.record(ctx, TranscriptMessage{
		PhoneNumber:       resp.PhoneNumber,
		Role:              RoleConcierge,
		Body:              resp.Message,
		ProviderMessageID: req.MessageID,
		Intent:            string(resp.Intent),
		Timestamp:         resp.Timestamp,
	})
	if len(errs) > 0 {
		return fmt.Errorf("conversation: deliver reply: %w", errors.Join(errs...))
	}
	return nil
}

func (w *Worker) send(ctx context.Context, reply OutboundReply) error {
	if w.messenger == nil {
		w.logger.Info("reply not sent: no messenger configured",
			"to", logging.MaskPhone(reply.To), "part", reply.Part, "parts", reply.Parts)
		return nil
	}
	sendCtx, cancel := context.WithTimeout(ctx, w.cfg.sendTimeout)
	defer cancel()
	return w.messenger.SendReply(sendCtx, reply)
}

func (w *Worker) record(ctx context.Context, msg TranscriptMessage) {
	if len(w.transcripts) == 0 {
		return
	}
	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), transcriptTimeout)
	defer cancel()
	for _, sink := range w.transcripts {
		if err := sink.Append(recCtx, msg); err != nil {
			w.logger.Warn("failed to append transcript", "error", err, "phone", logging.MaskPhone(msg.PhoneNumber))
		}
	}
}
