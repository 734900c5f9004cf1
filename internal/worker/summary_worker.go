// Package worker runs the out-of-band jobs of the orchestrator. The
// answer path never waits on anything here.
package worker

import (
	"context"
	"log/slog"
	"time"

	"campus-orchestrator/internal/usecase"
)

const (
	defaultPollInterval = 500 * time.Millisecond
	summaryTimeout      = 60 * time.Second
	initialBackoff      = 1 * time.Second
	maxBackoff          = 5 * time.Minute
)

// SummaryWorker drains the backlog of unsummarized conversation
// messages. Failures back off exponentially and are never surfaced
// past the worker: a missing summary only degrades later answers.
type SummaryWorker struct {
	summarize usecase.RollingSummaryUsecase
	logger    *slog.Logger
	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
	backoff   time.Duration
}

// NewSummaryWorker creates a worker polling at the given interval;
// zero means the default.
func NewSummaryWorker(summarize usecase.RollingSummaryUsecase, interval time.Duration, logger *slog.Logger) *SummaryWorker {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &SummaryWorker{
		summarize: summarize,
		logger:    logger,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

func (w *SummaryWorker) Start() {
	w.logger.Info("summary_worker_started")
	go w.run()
}

// Stop signals the worker and waits for the in-flight poll to finish.
func (w *SummaryWorker) Stop() {
	w.logger.Info("summary_worker_stopping")
	close(w.stopChan)
	<-w.doneChan
}

func (w *SummaryWorker) run() {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			w.processNext()
			if w.backoff > 0 {
				ticker.Reset(w.backoff)
			} else {
				ticker.Reset(w.interval)
			}
		}
	}
}

func (w *SummaryWorker) processNext() {
	ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
	defer cancel()

	processed, err := w.summarize.SummarizeNext(ctx)
	if err != nil {
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Warn("summary_worker_backing_off",
			slog.Duration("backoff", w.backoff),
			slog.String("error", err.Error()))
		return
	}
	w.backoff = 0
	if processed {
		// Keep draining: skip the idle wait while there is a backlog.
		w.drain()
	}
}

func (w *SummaryWorker) drain() {
	for {
		select {
		case <-w.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), summaryTimeout)
		processed, err := w.summarize.SummarizeNext(ctx)
		cancel()
		if err != nil {
			w.backoff = w.nextBackoff(w.backoff)
			w.logger.Warn("summary_worker_backing_off",
				slog.Duration("backoff", w.backoff),
				slog.String("error", err.Error()))
			return
		}
		if !processed {
			return
		}
	}
}

func (w *SummaryWorker) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
