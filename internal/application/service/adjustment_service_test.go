package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/homeshine/conflict-engine/internal/application/dispatcher"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

type adjustmentFixture struct {
	adjustmentRepo *mockAdjustmentRepo
	ledgerRepo     *mockLedgerRepo
	auditRepo      *mockAuditRepo
	svc            AdjustmentService
}

func newAdjustmentFixture() *adjustmentFixture {
	f := &adjustmentFixture{
		adjustmentRepo: &mockAdjustmentRepo{},
		ledgerRepo:     &mockLedgerRepo{},
		auditRepo:      &mockAuditRepo{},
	}

	tx := &mockTxManager{}
	logger := &mockLogger{}
	ledger := NewLedgerService(f.ledgerRepo, &mockGateway{}, tx, logger)
	audit := NewAuditService(f.auditRepo, logger)
	f.svc = NewAdjustmentService(f.adjustmentRepo, ledger, audit, dispatcher.NewDispatcher(logger), tx, logger)
	return f
}

func pendingCase(delta int64) *entity.AdjustmentCase {
	return &entity.AdjustmentCase{
		ID:              3,
		AppointmentID:   1,
		CleanerID:       7,
		HomeownerID:     5,
		OriginalSize:    "2br",
		ReportedSize:    "4br",
		PriceDeltaCents: delta,
		Status:          entity.AdjustmentPendingOwner,
		ExpiresAt:       time.Now().Add(24 * time.Hour),
	}
}

func TestAdjustmentService_Resolve_Approve(t *testing.T) {
	f := newAdjustmentFixture()
	f.adjustmentRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.AdjustmentCase, error) {
		return pendingCase(4500), nil
	}

	var gotStatus entity.AdjustmentStatus
	f.adjustmentRepo.updateResolutionFunc = func(ctx context.Context, id int64, status entity.AdjustmentStatus, resolvedBy int64, notes string, resolvedAt time.Time) error {
		gotStatus = status
		return nil
	}

	c, err := f.svc.Resolve(context.Background(), 3, entity.DecisionApprove, 99, "cleaner photos confirm 4br")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if gotStatus != entity.AdjustmentOwnerApproved || c.Status != entity.AdjustmentOwnerApproved {
		t.Errorf("status = %s (persisted %s), want owner_approved", c.Status, gotStatus)
	}
	if c.ResolvedBy == nil || *c.ResolvedBy != 99 {
		t.Error("expected resolver to be stamped")
	}

	if len(f.ledgerRepo.created) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(f.ledgerRepo.created))
	}
	entry := f.ledgerRepo.created[0]
	if entry.EntryType != entity.EntrySizeAdjustmentCharge || entry.Direction != entity.DirectionCredit {
		t.Errorf("entry = %s/%s, want size_adjustment_charge/credit", entry.EntryType, entry.Direction)
	}
	if entry.AmountCents != 4500 {
		t.Errorf("amount = %d, want 4500", entry.AmountCents)
	}

	types := f.auditRepo.eventTypes()
	if len(types) != 1 || types[0] != entity.AuditAdjustmentResolved {
		t.Errorf("audit events = %v, want [adjustment_resolved]", types)
	}
}

func TestAdjustmentService_Resolve_ApproveNegativeDelta(t *testing.T) {
	f := newAdjustmentFixture()
	f.adjustmentRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.AdjustmentCase, error) {
		return pendingCase(-3000), nil
	}

	if _, err := f.svc.Resolve(context.Background(), 3, entity.DecisionApprove, 99, "home is smaller"); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if len(f.ledgerRepo.created) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(f.ledgerRepo.created))
	}
	entry := f.ledgerRepo.created[0]
	if entry.EntryType != entity.EntrySizeAdjustmentCredit || entry.Direction != entity.DirectionDebit {
		t.Errorf("entry = %s/%s, want size_adjustment_credit/debit", entry.EntryType, entry.Direction)
	}
	if entry.AmountCents != 3000 {
		t.Errorf("amount = %d, want positive 3000", entry.AmountCents)
	}
}

func TestAdjustmentService_Resolve_DenyPostsNothing(t *testing.T) {
	f := newAdjustmentFixture()
	f.adjustmentRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.AdjustmentCase, error) {
		return pendingCase(4500), nil
	}

	c, err := f.svc.Resolve(context.Background(), 3, entity.DecisionDeny, 99, "photos inconclusive")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if c.Status != entity.AdjustmentOwnerDenied {
		t.Errorf("status = %s, want owner_denied", c.Status)
	}
	if len(f.ledgerRepo.created) != 0 {
		t.Error("denied cases must not post ledger entries")
	}
}

func TestAdjustmentService_Resolve_NotFound(t *testing.T) {
	f := newAdjustmentFixture()

	_, err := f.svc.Resolve(context.Background(), 404, entity.DecisionApprove, 99, "")
	if !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestAdjustmentService_Resolve_TerminalAndExpired(t *testing.T) {
	tests := []struct {
		name string
		c    *entity.AdjustmentCase
	}{
		{
			name: "already resolved",
			c: func() *entity.AdjustmentCase {
				c := pendingCase(4500)
				c.Status = entity.AdjustmentOwnerDenied
				return c
			}(),
		},
		{
			name: "expired while pending",
			c: func() *entity.AdjustmentCase {
				c := pendingCase(4500)
				c.ExpiresAt = time.Now().Add(-1 * time.Hour)
				return c
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAdjustmentFixture()
			f.adjustmentRepo.getByIDFunc = func(ctx context.Context, id int64) (*entity.AdjustmentCase, error) {
				return tt.c, nil
			}

			_, err := f.svc.Resolve(context.Background(), 3, entity.DecisionApprove, 99, "")
			if !errors.Is(err, entity.ErrCaseClosed) {
				t.Errorf("Resolve() error = %v, want ErrCaseClosed", err)
			}
		})
	}
}

func TestAdjustmentService_Resolve_RejectsPartial(t *testing.T) {
	f := newAdjustmentFixture()

	_, err := f.svc.Resolve(context.Background(), 3, entity.DecisionPartial, 99, "")
	if !errors.Is(err, entity.ErrValidation) {
		t.Errorf("Resolve() error = %v, want ErrValidation", err)
	}
}
