package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"news-chat/internal/usecase"
)

const (
	defaultRunTimeout = 10 * time.Minute
	initialBackoff    = 30 * time.Second
)

// Ingester runs one fetch-and-index pass.
type Ingester interface {
	Run(ctx context.Context) (usecase.IngestSummary, error)
}

// FeedRefreshWorker re-ingests the configured feeds on a fixed interval,
// retrying failed passes sooner with exponential backoff capped at the interval.
type FeedRefreshWorker struct {
	ingester   Ingester
	interval   time.Duration
	runTimeout time.Duration
	logger     *slog.Logger

	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	backoff  time.Duration
}

func NewFeedRefreshWorker(ingester Ingester, interval time.Duration, logger *slog.Logger) *FeedRefreshWorker {
	runTimeout := defaultRunTimeout
	if interval > 0 && interval < runTimeout {
		runTimeout = interval
	}
	return &FeedRefreshWorker{
		ingester:   ingester,
		interval:   interval,
		runTimeout: runTimeout,
		logger:     logger,
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start runs a first pass immediately, then one per interval.
func (w *FeedRefreshWorker) Start() {
	w.logger.Info("feed_refresh_worker_started", slog.Duration("interval", w.interval))
	go w.run()
}

// Stop cancels any in-flight pass and waits for the loop to exit.
func (w *FeedRefreshWorker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("feed_refresh_worker_stopping")
		close(w.stopChan)
	})
	<-w.done
}

func (w *FeedRefreshWorker) run() {
	defer close(w.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-w.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-timer.C:
			w.refresh(ctx)
			timer.Reset(w.nextDelay())
		}
	}
}

func (w *FeedRefreshWorker) refresh(ctx context.Context) {
	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()

	summary, err := w.ingester.Run(runCtx)
	if err != nil {
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Warn("feed_refresh_failed", slog.String("error", err.Error()), slog.Duration("retry_in", w.backoff))
		return
	}

	w.backoff = 0
	w.logger.Info("feed_refresh_completed",
		slog.Int("fetched", summary.Fetched),
		slog.Int("indexed", summary.Indexed),
		slog.Int("failed", summary.Failed))
}

func (w *FeedRefreshWorker) nextDelay() time.Duration {
	if w.backoff > 0 {
		return w.backoff
	}
	return w.interval
}

func (w *FeedRefreshWorker) nextBackoff(current time.Duration) time.Duration {
	next := initialBackoff
	if current > 0 {
		next = current * 2
	}
	if next > w.interval {
		return w.interval
	}
	return next
}
