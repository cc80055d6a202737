package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	rcron "github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/service"
)

// AutoTagger classifies a batch of untagged tickets.
type AutoTagger interface {
	AutoTag(ctx context.Context, batchSize int) (*service.AutoTagResult, error)
}

// AutoTagWorker runs AutoTag on a cron schedule. Runs never overlap: a tick
// that fires while the previous batch is still in flight is skipped.
type AutoTagWorker struct {
	tagger    AutoTagger
	batchSize int
	timeout   time.Duration
	logger    *zap.Logger
	cron      *rcron.Cron
}

// NewAutoTagWorker validates schedule (standard five-field cron or a
// descriptor such as "@every 15m") and returns a stopped worker.
func NewAutoTagWorker(tagger AutoTagger, schedule string, batchSize int, timeout time.Duration, logger *zap.Logger) (*AutoTagWorker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &AutoTagWorker{
		tagger:    tagger,
		batchSize: batchSize,
		timeout:   timeout,
		logger:    logger,
	}
	w.cron = rcron.New(rcron.WithChain(rcron.SkipIfStillRunning(cronLogger{logger})))
	if _, err := w.cron.AddFunc(strings.TrimSpace(schedule), w.run); err != nil {
		return nil, fmt.Errorf("invalid auto-tag schedule %q: %w", schedule, err)
	}
	return w, nil
}

// Start begins scheduling in the background.
func (w *AutoTagWorker) Start() {
	w.cron.Start()
	w.logger.Info("auto-tag worker started", zap.Int("batch_size", w.batchSize))
}

// Stop halts scheduling and waits for a running batch, or until ctx is done.
func (w *AutoTagWorker) Stop(ctx context.Context) {
	select {
	case <-w.cron.Stop().Done():
	case <-ctx.Done():
		w.logger.Warn("auto-tag worker stop timed out")
	}
}

func (w *AutoTagWorker) run() {
	ctx := context.Background()
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}
	w.RunOnce(ctx)
}

// RunOnce performs a single batch and logs the outcome.
func (w *AutoTagWorker) RunOnce(ctx context.Context) {
	res, err := w.tagger.AutoTag(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("auto-tag run failed", zap.Error(err))
		return
	}
	w.logger.Info("auto-tag run finished",
		zap.Int("tagged", len(res.Tagged)),
		zap.Int("failed", len(res.Failed)))
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	logger *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
