package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/homeshine/conflict-engine/internal/application/dispatcher"
	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
	"github.com/homeshine/conflict-engine/internal/domain/event"
)

// MoneyMovementService executes refunds and payouts against the payment
// gateway, recording ledger and audit entries. Validation happens before
// any external call; a gateway failure leaves no partial state behind.
type MoneyMovementService interface {
	Refund(ctx context.Context, caseID int64, caseType entity.CaseType, amountCents int64, reason string, reviewerID int64) (*entity.LedgerEntry, error)
	Payout(ctx context.Context, caseID int64, caseType entity.CaseType, amountCents int64, reason string, reviewerID int64) (*entity.LedgerEntry, error)
}

type moneyServiceImpl struct {
	appealRepo       port.AppealRepository
	adjustmentRepo   port.AdjustmentRepository
	appointmentStore port.AppointmentStore
	userStore        port.UserStore
	gateway          port.PaymentGateway
	ledger           LedgerService
	audit            AuditService
	events           dispatcher.Dispatcher
	txManager        port.TransactionManager
	logger           Logger
}

// NewMoneyMovementService creates a new MoneyMovementService
func NewMoneyMovementService(
	appealRepo port.AppealRepository,
	adjustmentRepo port.AdjustmentRepository,
	appointmentStore port.AppointmentStore,
	userStore port.UserStore,
	gateway port.PaymentGateway,
	ledger LedgerService,
	audit AuditService,
	events dispatcher.Dispatcher,
	txManager port.TransactionManager,
	logger Logger,
) MoneyMovementService {
	return &moneyServiceImpl{
		appealRepo:       appealRepo,
		adjustmentRepo:   adjustmentRepo,
		appointmentStore: appointmentStore,
		userStore:        userStore,
		gateway:          gateway,
		ledger:           ledger,
		audit:            audit,
		events:           events,
		txManager:        txManager,
		logger:           logger,
	}
}

// caseContext is the resolved target of a money movement.
type caseContext struct {
	appointment *entity.Appointment
	homeownerID int64
	cleanerID   int64
}

// resolveCase loads the case and its appointment. For appeals the cleaner
// side is the appealer when they are a cleaner; for adjustment cases both
// parties are explicit on the record.
func (s *moneyServiceImpl) resolveCase(ctx context.Context, caseID int64, caseType entity.CaseType) (*caseContext, error) {
	var appointmentID int64
	var cleanerID int64

	switch caseType {
	case entity.CaseTypeAppeal:
		appeal, err := s.appealRepo.GetByID(ctx, caseID)
		if err != nil {
			return nil, fmt.Errorf("get appeal: %w", err)
		}
		if appeal == nil {
			return nil, fmt.Errorf("%w: appeal %d", entity.ErrNotFound, caseID)
		}
		appointmentID = appeal.AppointmentID
		if appeal.AppealerRole == entity.RoleCleaner {
			cleanerID = appeal.AppealerID
		}
	case entity.CaseTypeAdjustment:
		adjustment, err := s.adjustmentRepo.GetByID(ctx, caseID)
		if err != nil {
			return nil, fmt.Errorf("get adjustment case: %w", err)
		}
		if adjustment == nil {
			return nil, fmt.Errorf("%w: adjustment case %d", entity.ErrNotFound, caseID)
		}
		appointmentID = adjustment.AppointmentID
		cleanerID = adjustment.CleanerID
	default:
		return nil, fmt.Errorf("%w: unknown case type %q", entity.ErrValidation, caseType)
	}

	appointment, err := s.appointmentStore.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, fmt.Errorf("%w: appointment %d", entity.ErrNotFound, appointmentID)
	}

	return &caseContext{
		appointment: appointment,
		homeownerID: appointment.HomeownerID,
		cleanerID:   cleanerID,
	}, nil
}

// Refund reverses money back to the homeowner through the gateway, then
// updates the appointment's running refund total and posts a refunds_payable
// debit, all in one transaction, followed by a refund_completed audit event.
func (s *moneyServiceImpl) Refund(ctx context.Context, caseID int64, caseType entity.CaseType, amountCents int64, reason string, reviewerID int64) (*entity.LedgerEntry, error) {
	if err := validateMovement(amountCents, reason); err != nil {
		return nil, err
	}

	cc, err := s.resolveCase(ctx, caseID, caseType)
	if err != nil {
		return nil, err
	}
	if cc.appointment.PaymentRef == "" {
		return nil, fmt.Errorf("%w: appointment %d has no payment reference", entity.ErrValidation, cc.appointment.ID)
	}

	idempotencyKey := fmt.Sprintf("%s:%d:refund", caseType, caseID)
	result, err := s.gateway.Refund(ctx, cc.appointment.PaymentRef, amountCents, reason, idempotencyKey)
	if err != nil {
		s.logger.Error("Gateway refund failed",
			"error", err,
			"case_id", caseID,
			"case_type", caseType,
			"amount_cents", amountCents,
		)
		s.audit.Log(ctx, s.movementEvent(entity.AuditRefundFailed, cc.appointment.ID, caseID, caseType, reviewerID, amountCents, reason, err.Error()))
		return nil, fmt.Errorf("%w: refund: %v", entity.ErrGateway, err)
	}

	entry := &entity.LedgerEntry{
		AppointmentID: cc.appointment.ID,
		EntryType:     entity.EntryRefund,
		AmountCents:   amountCents,
		Direction:     entity.DirectionDebit,
		AccountType:   entity.AccountRefundsPayable,
		PartyType:     entity.PartyHomeowner,
		PartyID:       cc.homeownerID,
		ExternalRef:   result.ExternalID,
		Description:   reason,
		EffectiveAt:   time.Now(),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.appointmentStore.AddToRefundTotal(txCtx, cc.appointment.ID, amountCents); err != nil {
			return fmt.Errorf("update refund total: %w", err)
		}
		return s.ledger.Record(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, s.movementEvent(entity.AuditRefundCompleted, cc.appointment.ID, caseID, caseType, reviewerID, amountCents, reason, result.ExternalID))
	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeRefundCompleted, caseID, caseNumberFor(caseType, caseID), map[string]interface{}{
		"amount_cents": amountCents,
		"external_id":  result.ExternalID,
	}))

	s.logger.Info("Refund completed",
		"case_id", caseID,
		"case_type", caseType,
		"amount_cents", amountCents,
		"external_id", result.ExternalID,
	)
	return entry, nil
}

// Payout transfers money to the cleaner's payable destination, posting a
// payouts_payable debit.
func (s *moneyServiceImpl) Payout(ctx context.Context, caseID int64, caseType entity.CaseType, amountCents int64, reason string, reviewerID int64) (*entity.LedgerEntry, error) {
	if err := validateMovement(amountCents, reason); err != nil {
		return nil, err
	}

	cc, err := s.resolveCase(ctx, caseID, caseType)
	if err != nil {
		return nil, err
	}
	if cc.cleanerID == 0 {
		return nil, fmt.Errorf("%w: case has no cleaner to pay out", entity.ErrValidation)
	}

	cleaner, err := s.userStore.GetByID(ctx, cc.cleanerID)
	if err != nil {
		return nil, fmt.Errorf("get cleaner: %w", err)
	}
	if cleaner == nil {
		return nil, fmt.Errorf("%w: user %d", entity.ErrNotFound, cc.cleanerID)
	}
	if cleaner.PayoutDestination == "" {
		return nil, fmt.Errorf("%w: cleaner %d has no payable destination on file", entity.ErrValidation, cleaner.ID)
	}

	idempotencyKey := fmt.Sprintf("%s:%d:payout", caseType, caseID)
	result, err := s.gateway.Transfer(ctx, cleaner.PayoutDestination, amountCents, idempotencyKey)
	if err != nil {
		s.logger.Error("Gateway payout failed",
			"error", err,
			"case_id", caseID,
			"case_type", caseType,
			"amount_cents", amountCents,
		)
		s.audit.Log(ctx, s.movementEvent(entity.AuditPayoutFailed, cc.appointment.ID, caseID, caseType, reviewerID, amountCents, reason, err.Error()))
		return nil, fmt.Errorf("%w: payout: %v", entity.ErrGateway, err)
	}

	entry := &entity.LedgerEntry{
		AppointmentID: cc.appointment.ID,
		EntryType:     entity.EntryPayout,
		AmountCents:   amountCents,
		Direction:     entity.DirectionDebit,
		AccountType:   entity.AccountPayoutsPayable,
		PartyType:     entity.PartyCleaner,
		PartyID:       cleaner.ID,
		ExternalRef:   result.ExternalID,
		Description:   reason,
		EffectiveAt:   time.Now(),
	}

	if err := s.ledger.Record(ctx, entry); err != nil {
		return nil, err
	}

	s.audit.Log(ctx, s.movementEvent(entity.AuditPayoutCompleted, cc.appointment.ID, caseID, caseType, reviewerID, amountCents, reason, result.ExternalID))
	s.events.DispatchAsync(ctx, event.NewEvent(event.TypePayoutCompleted, caseID, caseNumberFor(caseType, caseID), map[string]interface{}{
		"amount_cents": amountCents,
		"external_id":  result.ExternalID,
	}))

	s.logger.Info("Payout completed",
		"case_id", caseID,
		"case_type", caseType,
		"amount_cents", amountCents,
		"external_id", result.ExternalID,
	)
	return entry, nil
}

func caseNumberFor(caseType entity.CaseType, caseID int64) string {
	if caseType == entity.CaseTypeAdjustment {
		return entity.AdjustmentCaseNumber(caseID)
	}
	return entity.AppealCaseNumber(caseID)
}

// validateMovement rejects bad input before any side effect.
func validateMovement(amountCents int64, reason string) error {
	if amountCents <= 0 {
		return fmt.Errorf("%w: amount must be positive", entity.ErrValidation)
	}
	if reason == "" {
		return fmt.Errorf("%w: reason is required", entity.ErrValidation)
	}
	return nil
}

func (s *moneyServiceImpl) movementEvent(eventType entity.AuditEventType, appointmentID, caseID int64, caseType entity.CaseType, reviewerID, amountCents int64, reason, detail string) *entity.AuditEvent {
	data, _ := json.Marshal(map[string]interface{}{
		"amount_cents": amountCents,
		"reason":       reason,
		"detail":       detail,
	})
	return &entity.AuditEvent{
		AppointmentID: &appointmentID,
		CaseID:        &caseID,
		CaseType:      caseType,
		EventType:     eventType,
		ActorID:       &reviewerID,
		EventData:     string(data),
	}
}
