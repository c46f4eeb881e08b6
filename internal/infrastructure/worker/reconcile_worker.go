package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/application/service"
)

// ReconcileWorkerConfig holds configuration for the reconciliation worker
type ReconcileWorkerConfig struct {
	Interval  time.Duration
	BatchSize int
}

// DefaultReconcileWorkerConfig returns default configuration
func DefaultReconcileWorkerConfig() ReconcileWorkerConfig {
	return ReconcileWorkerConfig{
		Interval:  time.Hour,
		BatchSize: 100,
	}
}

// ReconcileWorker periodically compares unreconciled ledger entries against
// the payment gateway. Each tick processes one bounded batch so a large
// backlog drains gradually instead of holding a connection for minutes.
type ReconcileWorker struct {
	config ReconcileWorkerConfig
	ledger service.LedgerService
	logger *zap.Logger

	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
	isRunning  bool
	matched    int
	mismatched int
	lastRun    time.Time
	lastError  error
}

// NewReconcileWorker creates a new reconciliation worker
func NewReconcileWorker(config ReconcileWorkerConfig, ledger service.LedgerService, logger *zap.Logger) *ReconcileWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultReconcileWorkerConfig().Interval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultReconcileWorkerConfig().BatchSize
	}
	return &ReconcileWorker{
		config: config,
		ledger: ledger,
		logger: logger,
	}
}

// Start begins the reconciliation loop
func (w *ReconcileWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("reconcile worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.mu.Unlock()

	w.logger.Info("ReconcileWorker started",
		zap.Duration("interval", w.config.Interval),
		zap.Int("batch_size", w.config.BatchSize))

	go w.runLoop()

	return nil
}

// Stop gracefully terminates the worker
func (w *ReconcileWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}

	w.logger.Info("ReconcileWorker stopped",
		zap.Int("matched_total", w.matched),
		zap.Int("mismatched_total", w.mismatched))

	return nil
}

// Name returns the worker name for identification
func (w *ReconcileWorker) Name() string {
	return "ReconcileWorker"
}

func (w *ReconcileWorker) runLoop() {
	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("Reconcile loop context cancelled")
			return

		case <-ticker.C:
			w.runOnce()
		}
	}
}

func (w *ReconcileWorker) runOnce() {
	result, err := w.ledger.Reconcile(w.ctx, w.config.BatchSize)

	w.mu.Lock()
	w.lastRun = time.Now()
	w.lastError = err
	if result != nil {
		w.matched += result.Matched
		w.mismatched += result.Mismatched
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("Reconciliation run failed", zap.Error(err))
		return
	}
	if result.Batch == 0 {
		return
	}

	w.logger.Info("Reconciliation run finished",
		zap.Int("batch", result.Batch),
		zap.Int("matched", result.Matched),
		zap.Int("mismatched", result.Mismatched),
		zap.Int("errors", result.Errors))
}
