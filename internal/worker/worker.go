// Package worker reads alert messages from Kafka, hands them to a pool of
// goroutines, and applies the delivery policy: commit, redeliver in process,
// or move to the dead-letter topic.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Dyel-L/alert-processor/internal/metrics"
	"github.com/Dyel-L/alert-processor/internal/processor"
	"github.com/Dyel-L/alert-processor/internal/retry"
)

const (
	// DefaultWorkers is the default size of the worker pool.
	DefaultWorkers = 4
	// fetchErrorBackoff is the pause after a failed fetch.
	fetchErrorBackoff = time.Second
	// commitTimeout bounds an offset commit. Commits outlive the run context
	// so settled messages are still committed during shutdown.
	commitTimeout = 5 * time.Second
)

// MessageReader fetches and commits Kafka messages.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	CommitMessage(ctx context.Context, msg kafka.Message) error
}

// MessageHandler handles one message payload.
type MessageHandler interface {
	HandleMessage(ctx context.Context, raw []byte) error
}

// DeadLetterPublisher moves a message that exhausted its attempts aside.
type DeadLetterPublisher interface {
	Publish(ctx context.Context, msg kafka.Message, cause error, attempts int) error
}

// outcome is the delivery policy decision for one message.
type outcome int

const (
	outcomeCommit outcome = iota
	outcomeHold
)

// Worker runs the consume loop.
type Worker struct {
	reader  MessageReader
	handler MessageHandler
	dlq     DeadLetterPublisher
	workers int
	retry   retry.Config
	metrics metrics.Recorder
	offsets *offsetTracker
	commit  sync.Mutex
}

// Option configures a Worker.
type Option func(*Worker)

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) Option {
	return func(w *Worker) {
		w.metrics = metrics.OrNoOp(m)
	}
}

// WithWorkers sets the pool size. Values below 1 keep the default.
func WithWorkers(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.workers = n
		}
	}
}

// WithRetry sets the in-process redelivery policy.
func WithRetry(cfg retry.Config) Option {
	return func(w *Worker) {
		w.retry = cfg
	}
}

// New creates a Worker.
func New(reader MessageReader, handler MessageHandler, dlq DeadLetterPublisher, opts ...Option) *Worker {
	w := &Worker{
		reader:  reader,
		handler: handler,
		dlq:     dlq,
		workers: DefaultWorkers,
		retry:   retry.DefaultConfig(),
		metrics: metrics.NewNoOp(),
		offsets: newOffsetTracker(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run reads messages until ctx is done, then waits for in-flight messages.
func (w *Worker) Run(ctx context.Context) error {
	slog.Info("Starting alert processing loop", "workers", w.workers)

	jobs := make(chan kafka.Message, w.workers*2)
	var wg sync.WaitGroup

	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go w.runWorker(ctx, jobs, &wg)
	}

	w.dispatch(ctx, jobs)

	close(jobs)
	wg.Wait()
	slog.Info("Alert processing loop stopped")
	return nil
}

func (w *Worker) runWorker(ctx context.Context, jobs <-chan kafka.Message, wg *sync.WaitGroup) {
	defer wg.Done()
	for msg := range jobs {
		if ctx.Err() != nil {
			// Left uncommitted; redelivered after restart.
			continue
		}
		if w.deliver(ctx, msg) == outcomeCommit {
			w.settle(msg)
		}
	}
}

// dispatch reads messages and hands them to the pool in fetch order.
func (w *Worker) dispatch(ctx context.Context, jobs chan<- kafka.Message) {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			slog.Error("Failed to read alert message", "error", err)
			w.metrics.RecordError()
			select {
			case <-ctx.Done():
				return
			case <-time.After(fetchErrorBackoff):
			}
			continue
		}

		w.offsets.track(msg)
		select {
		case jobs <- msg:
		case <-ctx.Done():
			return
		}
	}
}

// deliver runs the handler with in-process redelivery and decides whether the
// message's offset may be committed.
func (w *Worker) deliver(ctx context.Context, msg kafka.Message) outcome {
	attempts := 0
	err := retry.Do(ctx, w.retry, "handle alert message", processor.IsRetryable, func(attempt int) error {
		attempts = attempt
		if attempt > 1 {
			w.metrics.RecordRedelivered()
		}
		return w.handler.HandleMessage(ctx, msg.Value)
	})

	switch {
	case err == nil:
		return outcomeCommit

	case ctx.Err() != nil || errors.Is(err, processor.ErrInterrupted):
		slog.Warn("Delivery interrupted, leaving offset uncommitted",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return outcomeHold

	case !processor.IsRetryable(err):
		slog.Info("Committing message that can never succeed",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", err,
		)
		return outcomeCommit
	}

	if pubErr := w.deadLetter(ctx, msg, err, attempts); pubErr != nil {
		slog.Warn("Dead-letter publish interrupted, leaving offset uncommitted",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"error", pubErr,
		)
		return outcomeHold
	}
	w.metrics.RecordDeadLettered()
	return outcomeCommit
}

// deadLetter publishes msg to the dead-letter topic, retrying with backoff
// until it succeeds or ctx is done.
func (w *Worker) deadLetter(ctx context.Context, msg kafka.Message, cause error, attempts int) error {
	cfg := w.retry
	cfg.MaxAttempts = math.MaxInt
	if cfg.InitialBackoff <= 0 || cfg.MaxBackoff <= 0 {
		def := retry.DefaultConfig()
		cfg.InitialBackoff, cfg.MaxBackoff = def.InitialBackoff, def.MaxBackoff
	}

	return retry.Do(ctx, cfg, "publish dead letter", func(error) bool { return ctx.Err() == nil }, func(int) error {
		err := w.dlq.Publish(ctx, msg, cause, attempts)
		if err != nil {
			w.metrics.RecordError()
		}
		return err
	})
}

// settle commits the highest offset that no unsettled message precedes.
func (w *Worker) settle(msg kafka.Message) {
	w.commit.Lock()
	defer w.commit.Unlock()

	ready, ok := w.offsets.settle(msg)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()
	if err := w.reader.CommitMessage(ctx, ready); err != nil {
		slog.Error("Failed to commit offset",
			"partition", ready.Partition,
			"offset", ready.Offset,
			"error", err,
		)
		w.metrics.RecordError()
	}
}
