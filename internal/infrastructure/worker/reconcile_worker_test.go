package worker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// mockLedgerService records Reconcile calls; the other methods are unused
// by the worker.
type mockLedgerService struct {
	mu            sync.Mutex
	calls         int
	lastBatchSize int
	result        *entity.ReconcileResult
	err           error
}

func (m *mockLedgerService) Record(ctx context.Context, entry *entity.LedgerEntry) error {
	return fmt.Errorf("not implemented")
}

func (m *mockLedgerService) RecordCancellation(ctx context.Context, appointmentID int64, details *entity.CancellationDetails) ([]*entity.LedgerEntry, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockLedgerService) GetByAppointment(ctx context.Context, appointmentID int64) ([]*entity.LedgerEntry, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockLedgerService) ListByTaxYear(ctx context.Context, year int) ([]*entity.LedgerEntry, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *mockLedgerService) CalculateBalance(entries []*entity.LedgerEntry) int64 {
	return 0
}

func (m *mockLedgerService) CalculateSummary(entries []*entity.LedgerEntry) *entity.LedgerSummary {
	return nil
}

func (m *mockLedgerService) Reconcile(ctx context.Context, batchSize int) (*entity.ReconcileResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastBatchSize = batchSize
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockLedgerService) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestReconcileWorker_RunsBatchesOnTicker(t *testing.T) {
	ledger := &mockLedgerService{result: &entity.ReconcileResult{Batch: 2, Matched: 2}}
	w := NewReconcileWorker(ReconcileWorkerConfig{
		Interval:  10 * time.Millisecond,
		BatchSize: 25,
	}, ledger, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	assert.Eventually(t, func() bool {
		return ledger.callCount() >= 2
	}, time.Second, 5*time.Millisecond)

	ledger.mu.Lock()
	assert.Equal(t, 25, ledger.lastBatchSize)
	ledger.mu.Unlock()
}

func TestReconcileWorker_StartTwiceFails(t *testing.T) {
	ledger := &mockLedgerService{result: &entity.ReconcileResult{}}
	w := NewReconcileWorker(DefaultReconcileWorkerConfig(), ledger, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	assert.Error(t, w.Start(context.Background()))
}

func TestReconcileWorker_StopIsIdempotent(t *testing.T) {
	ledger := &mockLedgerService{result: &entity.ReconcileResult{}}
	w := NewReconcileWorker(DefaultReconcileWorkerConfig(), ledger, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

func TestReconcileWorker_ErrorDoesNotStopLoop(t *testing.T) {
	ledger := &mockLedgerService{err: fmt.Errorf("gateway unavailable")}
	w := NewReconcileWorker(ReconcileWorkerConfig{
		Interval:  10 * time.Millisecond,
		BatchSize: 10,
	}, ledger, zap.NewNop())

	require.NoError(t, w.Start(context.Background()))
	defer func() { _ = w.Stop() }()

	assert.Eventually(t, func() bool {
		return ledger.callCount() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestManager_StartsAndStopsInOrder(t *testing.T) {
	ledger := &mockLedgerService{result: &entity.ReconcileResult{}}
	m := NewManager(zap.NewNop())
	m.Register(NewReconcileWorker(DefaultReconcileWorkerConfig(), ledger, zap.NewNop()))

	require.Equal(t, 1, m.Count())
	require.NoError(t, m.StartAll(context.Background()))
	m.StopAll()
}
