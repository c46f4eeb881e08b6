package service

import (
	"context"
	"fmt"
	"time"

	"github.com/homeshine/conflict-engine/internal/application/dispatcher"
	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
	"github.com/homeshine/conflict-engine/internal/domain/event"
)

// AdjustmentService resolves home-size billing disputes. The lifecycle is
// two-outcome: a pending case either gets an owner decision or expires.
type AdjustmentService interface {
	GetCase(ctx context.Context, id int64) (*entity.AdjustmentCase, error)
	ListCases(ctx context.Context, limit, offset int) ([]*entity.AdjustmentCase, error)
	Resolve(ctx context.Context, caseID int64, decision entity.Decision, resolverID int64, notes string) (*entity.AdjustmentCase, error)
}

type adjustmentServiceImpl struct {
	adjustmentRepo port.AdjustmentRepository
	ledger         LedgerService
	audit          AuditService
	events         dispatcher.Dispatcher
	txManager      port.TransactionManager
	logger         Logger
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(
	adjustmentRepo port.AdjustmentRepository,
	ledger LedgerService,
	audit AuditService,
	events dispatcher.Dispatcher,
	txManager port.TransactionManager,
	logger Logger,
) AdjustmentService {
	return &adjustmentServiceImpl{
		adjustmentRepo: adjustmentRepo,
		ledger:         ledger,
		audit:          audit,
		events:         events,
		txManager:      txManager,
		logger:         logger,
	}
}

// GetCase retrieves an adjustment case by id
func (s *adjustmentServiceImpl) GetCase(ctx context.Context, id int64) (*entity.AdjustmentCase, error) {
	c, err := s.adjustmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get adjustment case: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: adjustment case %d", entity.ErrNotFound, id)
	}
	return c, nil
}

// ListCases returns adjustment cases ordered by creation time
func (s *adjustmentServiceImpl) ListCases(ctx context.Context, limit, offset int) ([]*entity.AdjustmentCase, error) {
	cases, err := s.adjustmentRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list adjustment cases: %w", err)
	}
	return cases, nil
}

// Resolve records the owner's decision on a pending case. Approval posts the
// price delta to the ledger in the same transaction as the status write:
// positive deltas are billed to the homeowner as revenue, negative deltas
// become a credit back.
func (s *adjustmentServiceImpl) Resolve(ctx context.Context, caseID int64, decision entity.Decision, resolverID int64, notes string) (*entity.AdjustmentCase, error) {
	if decision != entity.DecisionApprove && decision != entity.DecisionDeny {
		return nil, fmt.Errorf("%w: adjustment decision must be approve or deny", entity.ErrValidation)
	}

	c, err := s.adjustmentRepo.GetByID(ctx, caseID)
	if err != nil {
		return nil, fmt.Errorf("get adjustment case: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: adjustment case %d", entity.ErrNotFound, caseID)
	}

	now := time.Now()
	if effective := c.EffectiveStatus(now); effective.IsTerminal() {
		return nil, fmt.Errorf("%w: adjustment case %d is %s", entity.ErrCaseClosed, caseID, effective)
	}

	previous := c.Status
	targetStatus := entity.AdjustmentOwnerDenied
	if decision == entity.DecisionApprove {
		targetStatus = entity.AdjustmentOwnerApproved
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.adjustmentRepo.UpdateResolution(txCtx, caseID, targetStatus, resolverID, notes, now); err != nil {
			return fmt.Errorf("update resolution: %w", err)
		}
		if targetStatus == entity.AdjustmentOwnerApproved && c.PriceDeltaCents != 0 {
			return s.ledger.Record(txCtx, sizeAdjustmentEntry(c, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.Status = targetStatus
	c.ResolvedBy = &resolverID
	c.ResolvedAt = &now
	c.ResolutionNotes = notes

	s.audit.Log(ctx, &entity.AuditEvent{
		AppointmentID: &c.AppointmentID,
		CaseID:        &c.ID,
		CaseType:      entity.CaseTypeAdjustment,
		EventType:     entity.AuditAdjustmentResolved,
		ActorID:       &resolverID,
		PreviousState: previous.String(),
		NewState:      targetStatus.String(),
		EventData:     mustJSON(map[string]interface{}{"decision": decision, "price_delta_cents": c.PriceDeltaCents, "notes": notes}),
	})

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeAdjustmentResolved, c.ID, entity.AdjustmentCaseNumber(c.ID), map[string]interface{}{
		"decision": string(decision),
	}))

	s.logger.Info("Adjustment case resolved",
		"case_id", caseID,
		"decision", decision,
		"price_delta_cents", c.PriceDeltaCents,
	)
	return c, nil
}

// sizeAdjustmentEntry builds the ledger posting for an approved repricing.
func sizeAdjustmentEntry(c *entity.AdjustmentCase, effectiveAt time.Time) *entity.LedgerEntry {
	entry := &entity.LedgerEntry{
		AppointmentID: c.AppointmentID,
		PartyType:     entity.PartyHomeowner,
		PartyID:       c.HomeownerID,
		EffectiveAt:   effectiveAt,
		Description:   fmt.Sprintf("size adjustment %s -> %s", c.OriginalSize, c.ReportedSize),
	}
	if c.PriceDeltaCents > 0 {
		entry.EntryType = entity.EntrySizeAdjustmentCharge
		entry.AmountCents = c.PriceDeltaCents
		entry.Direction = entity.DirectionCredit
		entry.AccountType = entity.AccountRevenue
	} else {
		entry.EntryType = entity.EntrySizeAdjustmentCredit
		entry.AmountCents = -c.PriceDeltaCents
		entry.Direction = entity.DirectionDebit
		entry.AccountType = entity.AccountRefundsPayable
	}
	return entry
}
