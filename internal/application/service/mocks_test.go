package service

import (
	"context"
	"time"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// Mock repositories and stores. Each method delegates to an optional func
// field so individual tests only wire up what they care about.

type mockAppealRepo struct {
	createFunc                 func(ctx context.Context, appeal *entity.Appeal) error
	getByIDFunc                func(ctx context.Context, id int64) (*entity.Appeal, error)
	getOpenByAppointmentIDFunc func(ctx context.Context, appointmentID int64) (*entity.Appeal, error)
	getByAppealerSinceFunc     func(ctx context.Context, appealerID int64, since time.Time) ([]*entity.Appeal, error)
	listFunc                   func(ctx context.Context, limit, offset int) ([]*entity.Appeal, error)
	listOpenFunc               func(ctx context.Context) ([]*entity.Appeal, error)
	updateStatusFunc           func(ctx context.Context, id int64, status entity.AppealStatus) error
	updateAssigneeFunc         func(ctx context.Context, id int64, assigneeID int64) error
	updateResolutionFunc       func(ctx context.Context, id int64, status entity.AppealStatus, decision entity.Decision, actions, notes string, reviewedBy int64, closedAt time.Time) error
	countOpenFunc              func(ctx context.Context) (int, error)
	countOverdueFunc           func(ctx context.Context, now time.Time) (int, error)
	countByPriorityFunc        func(ctx context.Context, priority entity.Priority) (int, error)
}

func (m *mockAppealRepo) Create(ctx context.Context, appeal *entity.Appeal) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, appeal)
	}
	appeal.ID = 1
	return nil
}

func (m *mockAppealRepo) GetByID(ctx context.Context, id int64) (*entity.Appeal, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAppealRepo) GetOpenByAppointmentID(ctx context.Context, appointmentID int64) (*entity.Appeal, error) {
	if m.getOpenByAppointmentIDFunc != nil {
		return m.getOpenByAppointmentIDFunc(ctx, appointmentID)
	}
	return nil, nil
}

func (m *mockAppealRepo) GetByAppealerSince(ctx context.Context, appealerID int64, since time.Time) ([]*entity.Appeal, error) {
	if m.getByAppealerSinceFunc != nil {
		return m.getByAppealerSinceFunc(ctx, appealerID, since)
	}
	return nil, nil
}

func (m *mockAppealRepo) List(ctx context.Context, limit, offset int) ([]*entity.Appeal, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockAppealRepo) ListOpen(ctx context.Context) ([]*entity.Appeal, error) {
	if m.listOpenFunc != nil {
		return m.listOpenFunc(ctx)
	}
	return nil, nil
}

func (m *mockAppealRepo) UpdateStatus(ctx context.Context, id int64, status entity.AppealStatus) error {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockAppealRepo) UpdateAssignee(ctx context.Context, id int64, assigneeID int64) error {
	if m.updateAssigneeFunc != nil {
		return m.updateAssigneeFunc(ctx, id, assigneeID)
	}
	return nil
}

func (m *mockAppealRepo) UpdateResolution(ctx context.Context, id int64, status entity.AppealStatus, decision entity.Decision, actions, notes string, reviewedBy int64, closedAt time.Time) error {
	if m.updateResolutionFunc != nil {
		return m.updateResolutionFunc(ctx, id, status, decision, actions, notes, reviewedBy, closedAt)
	}
	return nil
}

func (m *mockAppealRepo) CountOpen(ctx context.Context) (int, error) {
	if m.countOpenFunc != nil {
		return m.countOpenFunc(ctx)
	}
	return 0, nil
}

func (m *mockAppealRepo) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	if m.countOverdueFunc != nil {
		return m.countOverdueFunc(ctx, now)
	}
	return 0, nil
}

func (m *mockAppealRepo) CountByPriority(ctx context.Context, priority entity.Priority) (int, error) {
	if m.countByPriorityFunc != nil {
		return m.countByPriorityFunc(ctx, priority)
	}
	return 0, nil
}

type mockAdjustmentRepo struct {
	createFunc           func(ctx context.Context, c *entity.AdjustmentCase) error
	getByIDFunc          func(ctx context.Context, id int64) (*entity.AdjustmentCase, error)
	listFunc             func(ctx context.Context, limit, offset int) ([]*entity.AdjustmentCase, error)
	listPendingFunc      func(ctx context.Context) ([]*entity.AdjustmentCase, error)
	updateResolutionFunc func(ctx context.Context, id int64, status entity.AdjustmentStatus, resolvedBy int64, notes string, resolvedAt time.Time) error
	countPendingFunc     func(ctx context.Context) (int, error)
	countExpiredFunc     func(ctx context.Context, now time.Time) (int, error)
}

func (m *mockAdjustmentRepo) Create(ctx context.Context, c *entity.AdjustmentCase) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, c)
	}
	c.ID = 1
	return nil
}

func (m *mockAdjustmentRepo) GetByID(ctx context.Context, id int64) (*entity.AdjustmentCase, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAdjustmentRepo) List(ctx context.Context, limit, offset int) ([]*entity.AdjustmentCase, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockAdjustmentRepo) ListPending(ctx context.Context) ([]*entity.AdjustmentCase, error) {
	if m.listPendingFunc != nil {
		return m.listPendingFunc(ctx)
	}
	return nil, nil
}

func (m *mockAdjustmentRepo) UpdateResolution(ctx context.Context, id int64, status entity.AdjustmentStatus, resolvedBy int64, notes string, resolvedAt time.Time) error {
	if m.updateResolutionFunc != nil {
		return m.updateResolutionFunc(ctx, id, status, resolvedBy, notes, resolvedAt)
	}
	return nil
}

func (m *mockAdjustmentRepo) CountPending(ctx context.Context) (int, error) {
	if m.countPendingFunc != nil {
		return m.countPendingFunc(ctx)
	}
	return 0, nil
}

func (m *mockAdjustmentRepo) CountExpired(ctx context.Context, now time.Time) (int, error) {
	if m.countExpiredFunc != nil {
		return m.countExpiredFunc(ctx, now)
	}
	return 0, nil
}

type mockLedgerRepo struct {
	createFunc               func(ctx context.Context, entry *entity.LedgerEntry) error
	getByIDFunc              func(ctx context.Context, id int64) (*entity.LedgerEntry, error)
	getByAppointmentIDFunc   func(ctx context.Context, appointmentID int64) ([]*entity.LedgerEntry, error)
	listFunc                 func(ctx context.Context, limit, offset int) ([]*entity.LedgerEntry, error)
	listByTaxYearFunc        func(ctx context.Context, year int) ([]*entity.LedgerEntry, error)
	getUnreconciledFunc      func(ctx context.Context, limit int) ([]*entity.LedgerEntry, error)
	updateReconciliationFunc func(ctx context.Context, id int64, reconciled bool, discrepancyCents int64, note string, at time.Time) error

	created []*entity.LedgerEntry
}

func (m *mockLedgerRepo) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, entry)
	}
	entry.ID = int64(len(m.created) + 1)
	m.created = append(m.created, entry)
	return nil
}

func (m *mockLedgerRepo) GetByID(ctx context.Context, id int64) (*entity.LedgerEntry, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockLedgerRepo) GetByAppointmentID(ctx context.Context, appointmentID int64) ([]*entity.LedgerEntry, error) {
	if m.getByAppointmentIDFunc != nil {
		return m.getByAppointmentIDFunc(ctx, appointmentID)
	}
	return nil, nil
}

func (m *mockLedgerRepo) List(ctx context.Context, limit, offset int) ([]*entity.LedgerEntry, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockLedgerRepo) ListByTaxYear(ctx context.Context, year int) ([]*entity.LedgerEntry, error) {
	if m.listByTaxYearFunc != nil {
		return m.listByTaxYearFunc(ctx, year)
	}
	return nil, nil
}

func (m *mockLedgerRepo) GetUnreconciled(ctx context.Context, limit int) ([]*entity.LedgerEntry, error) {
	if m.getUnreconciledFunc != nil {
		return m.getUnreconciledFunc(ctx, limit)
	}
	return nil, nil
}

func (m *mockLedgerRepo) UpdateReconciliation(ctx context.Context, id int64, reconciled bool, discrepancyCents int64, note string, at time.Time) error {
	if m.updateReconciliationFunc != nil {
		return m.updateReconciliationFunc(ctx, id, reconciled, discrepancyCents, note, at)
	}
	return nil
}

type mockAuditRepo struct {
	createFunc func(ctx context.Context, event *entity.AuditEvent) error
	searchFunc func(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error)

	events []*entity.AuditEvent
}

func (m *mockAuditRepo) Create(ctx context.Context, event *entity.AuditEvent) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, event)
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockAuditRepo) Search(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error) {
	if m.searchFunc != nil {
		return m.searchFunc(ctx, filter)
	}
	return m.events, nil
}

func (m *mockAuditRepo) eventTypes() []entity.AuditEventType {
	types := make([]entity.AuditEventType, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

type mockAppointmentStore struct {
	getByIDFunc          func(ctx context.Context, id int64) (*entity.Appointment, error)
	addToRefundTotalFunc func(ctx context.Context, id int64, amountCents int64) error
	setOpenAppealFunc    func(ctx context.Context, id int64, open bool) error
}

func (m *mockAppointmentStore) GetByID(ctx context.Context, id int64) (*entity.Appointment, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAppointmentStore) AddToRefundTotal(ctx context.Context, id int64, amountCents int64) error {
	if m.addToRefundTotalFunc != nil {
		return m.addToRefundTotalFunc(ctx, id, amountCents)
	}
	return nil
}

func (m *mockAppointmentStore) SetOpenAppeal(ctx context.Context, id int64, open bool) error {
	if m.setOpenAppealFunc != nil {
		return m.setOpenAppealFunc(ctx, id, open)
	}
	return nil
}

type mockUserStore struct {
	getByIDFunc             func(ctx context.Context, id int64) (*entity.User, error)
	getNamesFunc            func(ctx context.Context, ids []int64) (map[int64]string, error)
	saveScrutinyProfileFunc func(ctx context.Context, profile *entity.ScrutinyProfile) error
	setFrozenFunc           func(ctx context.Context, id int64, frozen bool) error
	clearWarningsFunc       func(ctx context.Context, id int64) error
}

func (m *mockUserStore) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.User{ID: id, Role: entity.RoleHomeowner}, nil
}

func (m *mockUserStore) GetNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	if m.getNamesFunc != nil {
		return m.getNamesFunc(ctx, ids)
	}
	return map[int64]string{}, nil
}

func (m *mockUserStore) SaveScrutinyProfile(ctx context.Context, profile *entity.ScrutinyProfile) error {
	if m.saveScrutinyProfileFunc != nil {
		return m.saveScrutinyProfileFunc(ctx, profile)
	}
	return nil
}

func (m *mockUserStore) SetFrozen(ctx context.Context, id int64, frozen bool) error {
	if m.setFrozenFunc != nil {
		return m.setFrozenFunc(ctx, id, frozen)
	}
	return nil
}

func (m *mockUserStore) ClearWarnings(ctx context.Context, id int64) error {
	if m.clearWarningsFunc != nil {
		return m.clearWarningsFunc(ctx, id)
	}
	return nil
}

type mockGateway struct {
	refundFunc   func(ctx context.Context, paymentRef string, amountCents int64, reason, idempotencyKey string) (*port.RefundResult, error)
	transferFunc func(ctx context.Context, destinationRef string, amountCents int64, idempotencyKey string) (*port.TransferResult, error)
	retrieveFunc func(ctx context.Context, objectType, objectID string) (*port.GatewayObject, error)

	refundCalls   int
	transferCalls int
}

func (m *mockGateway) Refund(ctx context.Context, paymentRef string, amountCents int64, reason, idempotencyKey string) (*port.RefundResult, error) {
	m.refundCalls++
	if m.refundFunc != nil {
		return m.refundFunc(ctx, paymentRef, amountCents, reason, idempotencyKey)
	}
	return &port.RefundResult{ExternalID: "re_test", Status: "succeeded"}, nil
}

func (m *mockGateway) Transfer(ctx context.Context, destinationRef string, amountCents int64, idempotencyKey string) (*port.TransferResult, error) {
	m.transferCalls++
	if m.transferFunc != nil {
		return m.transferFunc(ctx, destinationRef, amountCents, idempotencyKey)
	}
	return &port.TransferResult{ExternalID: "tr_test"}, nil
}

func (m *mockGateway) Retrieve(ctx context.Context, objectType, objectID string) (*port.GatewayObject, error) {
	if m.retrieveFunc != nil {
		return m.retrieveFunc(ctx, objectType, objectID)
	}
	return &port.GatewayObject{ID: objectID}, nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
