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
	"github.com/homeshine/conflict-engine/internal/domain/workflow"
)

// SubmitAppealRequest carries everything needed to open an appeal.
type SubmitAppealRequest struct {
	AppointmentID  int64
	AppealerID     int64
	AppealerRole   entity.Role
	Category       entity.AppealCategory
	Severity       entity.Severity
	Description    string
	ContestedItems []entity.ContestedItem
}

// ResolveAppealRequest carries a reviewer's resolution of an appeal.
type ResolveAppealRequest struct {
	AppealID   int64
	Decision   entity.Decision
	Actions    []entity.ResolutionAction
	Notes      string
	ReviewerID int64
}

// AppealService drives the cancellation appeal workflow: submission,
// assignment, validated status transitions and resolution with monetary
// follow-through.
type AppealService interface {
	Submit(ctx context.Context, req SubmitAppealRequest) (*entity.Appeal, error)
	GetAppeal(ctx context.Context, id int64) (*entity.Appeal, error)
	ListAppeals(ctx context.Context, limit, offset int) ([]*entity.Appeal, error)
	Assign(ctx context.Context, appealID, assigneeID, actorID int64) error
	UpdateStatus(ctx context.Context, appealID int64, newStatus entity.AppealStatus, actorID int64, notes string) error
	Resolve(ctx context.Context, req ResolveAppealRequest) (*entity.Appeal, error)
}

type appealServiceImpl struct {
	appealRepo       port.AppealRepository
	appointmentStore port.AppointmentStore
	userStore        port.UserStore
	money            MoneyMovementService
	scrutiny         ScrutinyService
	audit            AuditService
	events           dispatcher.Dispatcher
	txManager        port.TransactionManager
	logger           Logger
}

// NewAppealService creates a new AppealService
func NewAppealService(
	appealRepo port.AppealRepository,
	appointmentStore port.AppointmentStore,
	userStore port.UserStore,
	money MoneyMovementService,
	scrutiny ScrutinyService,
	audit AuditService,
	events dispatcher.Dispatcher,
	txManager port.TransactionManager,
	logger Logger,
) AppealService {
	return &appealServiceImpl{
		appealRepo:       appealRepo,
		appointmentStore: appointmentStore,
		userStore:        userStore,
		money:            money,
		scrutiny:         scrutiny,
		audit:            audit,
		events:           events,
		txManager:        txManager,
		logger:           logger,
	}
}

// Submit opens a new appeal on a cancelled appointment. The SLA deadline is
// fixed at submission and never recomputed.
func (s *appealServiceImpl) Submit(ctx context.Context, req SubmitAppealRequest) (*entity.Appeal, error) {
	if err := validateSubmit(req); err != nil {
		return nil, err
	}

	appointment, err := s.appointmentStore.GetByID(ctx, req.AppointmentID)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appointment == nil {
		return nil, fmt.Errorf("%w: appointment %d", entity.ErrNotFound, req.AppointmentID)
	}

	now := time.Now()
	if !appointment.Cancelled {
		return nil, fmt.Errorf("%w: appointment %d", entity.ErrNotCancelled, appointment.ID)
	}
	if deadline := appointment.AppealDeadline(); !deadline.IsZero() && now.After(deadline) {
		return nil, fmt.Errorf("%w: window closed at %s", entity.ErrWindowExpired, deadline.Format(time.RFC3339))
	}

	existing, err := s.appealRepo.GetOpenByAppointmentID(ctx, appointment.ID)
	if err != nil {
		return nil, fmt.Errorf("check open appeal: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: appeal %d", entity.ErrDuplicateOpenAppeal, existing.ID)
	}

	level := entity.ScrutinyNone
	if appealer, err := s.userStore.GetByID(ctx, req.AppealerID); err == nil && appealer != nil {
		level = appealer.ScrutinyLevel()
	}

	appeal := &entity.Appeal{
		AppointmentID:  appointment.ID,
		AppealerID:     req.AppealerID,
		AppealerRole:   req.AppealerRole,
		Category:       req.Category,
		Severity:       req.Severity,
		Description:    req.Description,
		Status:         entity.AppealStatusSubmitted,
		Priority:       entity.ComputePriority(level, req.Severity),
		ContestedItems: entity.EncodeContestedItems(req.ContestedItems),
		SubmittedAt:    now,
		SLADeadline:    now.Add(entity.AppealSLA),
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.appealRepo.Create(txCtx, appeal); err != nil {
			return fmt.Errorf("create appeal: %w", err)
		}
		return s.appointmentStore.SetOpenAppeal(txCtx, appointment.ID, true)
	})
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, &entity.AuditEvent{
		AppointmentID: &appeal.AppointmentID,
		CaseID:        &appeal.ID,
		CaseType:      entity.CaseTypeAppeal,
		EventType:     entity.AuditAppealSubmitted,
		ActorID:       &appeal.AppealerID,
		ActorRole:     appeal.AppealerRole,
		NewState:      appeal.Status.String(),
		EventData:     mustJSON(map[string]interface{}{"category": appeal.Category, "severity": appeal.Severity, "priority": appeal.Priority}),
	})

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeAppealSubmitted, appeal.ID, entity.AppealCaseNumber(appeal.ID), map[string]interface{}{
		"appointment_id": appeal.AppointmentID,
		"priority":       string(appeal.Priority),
	}))

	s.logger.Info("Appeal submitted",
		"appeal_id", appeal.ID,
		"appointment_id", appeal.AppointmentID,
		"priority", appeal.Priority,
		"sla_deadline", appeal.SLADeadline,
	)
	return appeal, nil
}

func validateSubmit(req SubmitAppealRequest) error {
	if req.AppealerRole != entity.RoleHomeowner && req.AppealerRole != entity.RoleCleaner {
		return fmt.Errorf("%w: appealer must be a homeowner or cleaner", entity.ErrValidation)
	}
	if !req.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", entity.ErrValidation, req.Category)
	}
	if !req.Severity.IsValid() {
		return fmt.Errorf("%w: unknown severity %q", entity.ErrValidation, req.Severity)
	}
	if req.Description == "" {
		return fmt.Errorf("%w: description is required", entity.ErrValidation)
	}
	return nil
}

// GetAppeal retrieves an appeal by id
func (s *appealServiceImpl) GetAppeal(ctx context.Context, id int64) (*entity.Appeal, error) {
	appeal, err := s.appealRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appeal: %w", err)
	}
	if appeal == nil {
		return nil, fmt.Errorf("%w: appeal %d", entity.ErrNotFound, id)
	}
	return appeal, nil
}

// ListAppeals returns appeals ordered by submission time
func (s *appealServiceImpl) ListAppeals(ctx context.Context, limit, offset int) ([]*entity.Appeal, error) {
	appeals, err := s.appealRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appeals: %w", err)
	}
	return appeals, nil
}

// Assign hands the appeal to a reviewer with the hr or owner role. A freshly
// submitted appeal moves to under_review on assignment.
func (s *appealServiceImpl) Assign(ctx context.Context, appealID, assigneeID, actorID int64) error {
	appeal, err := s.appealRepo.GetByID(ctx, appealID)
	if err != nil {
		return fmt.Errorf("get appeal: %w", err)
	}
	if appeal == nil {
		return fmt.Errorf("%w: appeal %d", entity.ErrNotFound, appealID)
	}
	if appeal.Status.IsTerminal() {
		return fmt.Errorf("%w: appeal %d", entity.ErrClosedAppeal, appealID)
	}

	assignee, err := s.userStore.GetByID(ctx, assigneeID)
	if err != nil {
		return fmt.Errorf("get assignee: %w", err)
	}
	if assignee == nil || !assignee.Role.CanReviewAppeals() {
		return fmt.Errorf("%w: user %d", entity.ErrInvalidAssignee, assigneeID)
	}

	previous := appeal.Status
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.appealRepo.UpdateAssignee(txCtx, appealID, assigneeID); err != nil {
			return fmt.Errorf("update assignee: %w", err)
		}
		if appeal.Status == entity.AppealStatusSubmitted {
			if err := s.appealRepo.UpdateStatus(txCtx, appealID, entity.AppealStatusUnderReview); err != nil {
				return fmt.Errorf("update status: %w", err)
			}
			appeal.Status = entity.AppealStatusUnderReview
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.audit.Log(ctx, &entity.AuditEvent{
		AppointmentID: &appeal.AppointmentID,
		CaseID:        &appeal.ID,
		CaseType:      entity.CaseTypeAppeal,
		EventType:     entity.AuditAppealAssigned,
		ActorID:       &actorID,
		PreviousState: previous.String(),
		NewState:      appeal.Status.String(),
		EventData:     mustJSON(map[string]interface{}{"assignee_id": assigneeID}),
	})

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeAppealAssigned, appeal.ID, entity.AppealCaseNumber(appeal.ID), map[string]interface{}{
		"assignee_id": assigneeID,
	}))

	s.logger.Info("Appeal assigned", "appeal_id", appealID, "assignee_id", assigneeID)
	return nil
}

// UpdateStatus moves an appeal between non-terminal states. Terminal states
// are reached only through Resolve, which carries the resolution payload.
func (s *appealServiceImpl) UpdateStatus(ctx context.Context, appealID int64, newStatus entity.AppealStatus, actorID int64, notes string) error {
	if newStatus.IsTerminal() {
		return fmt.Errorf("%w: terminal status %q requires resolve", entity.ErrValidation, newStatus)
	}

	appeal, err := s.appealRepo.GetByID(ctx, appealID)
	if err != nil {
		return fmt.Errorf("get appeal: %w", err)
	}
	if appeal == nil {
		return fmt.Errorf("%w: appeal %d", entity.ErrNotFound, appealID)
	}
	if appeal.Status.IsTerminal() {
		return fmt.Errorf("%w: appeal %d", entity.ErrClosedAppeal, appealID)
	}

	if err := fireTransition(ctx, appeal.Status, newStatus); err != nil {
		return err
	}

	previous := appeal.Status
	if err := s.appealRepo.UpdateStatus(ctx, appealID, newStatus); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.audit.Log(ctx, &entity.AuditEvent{
		AppointmentID: &appeal.AppointmentID,
		CaseID:        &appeal.ID,
		CaseType:      entity.CaseTypeAppeal,
		EventType:     entity.AuditAppealStatusChanged,
		ActorID:       &actorID,
		PreviousState: previous.String(),
		NewState:      newStatus.String(),
		EventData:     mustJSON(map[string]interface{}{"notes": notes}),
	})

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeAppealStatusChanged, appeal.ID, entity.AppealCaseNumber(appeal.ID), map[string]interface{}{
		"previous": previous.String(),
		"status":   newStatus.String(),
	}))

	s.logger.Info("Appeal status changed",
		"appeal_id", appealID,
		"previous", previous,
		"status", newStatus,
	)
	return nil
}

// Resolve closes an appeal with a decision. The status transition and
// open-appeal flag clear commit in one transaction; monetary actions are
// applied afterwards and are best-effort relative to the transition: a
// gateway failure is audited for manual follow-up, never rolled back. The
// appealer's scrutiny profile is recomputed after every resolution.
func (s *appealServiceImpl) Resolve(ctx context.Context, req ResolveAppealRequest) (*entity.Appeal, error) {
	if !req.Decision.IsValid() {
		return nil, fmt.Errorf("%w: unknown decision %q", entity.ErrValidation, req.Decision)
	}

	appeal, err := s.appealRepo.GetByID(ctx, req.AppealID)
	if err != nil {
		return nil, fmt.Errorf("get appeal: %w", err)
	}
	if appeal == nil {
		return nil, fmt.Errorf("%w: appeal %d", entity.ErrNotFound, req.AppealID)
	}
	if appeal.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: appeal %d", entity.ErrClosedAppeal, req.AppealID)
	}

	targetStatus := statusForDecision(req.Decision)
	if err := fireTransition(ctx, appeal.Status, targetStatus); err != nil {
		return nil, err
	}

	previous := appeal.Status
	now := time.Now()
	actionsJSON := entity.EncodeResolutionActions(req.Actions)

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.appealRepo.UpdateResolution(txCtx, appeal.ID, targetStatus, req.Decision, actionsJSON, req.Notes, req.ReviewerID, now); err != nil {
			return fmt.Errorf("update resolution: %w", err)
		}
		return s.appointmentStore.SetOpenAppeal(txCtx, appeal.AppointmentID, false)
	})
	if err != nil {
		return nil, err
	}

	appeal.Status = targetStatus
	appeal.Decision = req.Decision
	appeal.ResolutionActions = actionsJSON
	appeal.ResolutionNotes = req.Notes
	appeal.ReviewedBy = &req.ReviewerID
	appeal.ClosedAt = &now

	if req.Decision != entity.DecisionDeny {
		s.applyResolutionActions(ctx, appeal, req)
	}

	if _, err := s.scrutiny.Recompute(ctx, appeal.AppealerID); err != nil {
		s.logger.Error("Failed to recompute scrutiny profile", "error", err, "user_id", appeal.AppealerID)
	}

	s.audit.Log(ctx, &entity.AuditEvent{
		AppointmentID: &appeal.AppointmentID,
		CaseID:        &appeal.ID,
		CaseType:      entity.CaseTypeAppeal,
		EventType:     entity.AuditAppealResolved,
		ActorID:       &req.ReviewerID,
		PreviousState: previous.String(),
		NewState:      targetStatus.String(),
		EventData:     mustJSON(map[string]interface{}{"decision": req.Decision, "notes": req.Notes}),
	})

	s.events.DispatchAsync(ctx, event.NewEvent(event.TypeAppealResolved, appeal.ID, entity.AppealCaseNumber(appeal.ID), map[string]interface{}{
		"decision": string(req.Decision),
	}))

	s.logger.Info("Appeal resolved",
		"appeal_id", appeal.ID,
		"decision", req.Decision,
		"status", targetStatus,
	)
	return appeal, nil
}

// applyResolutionActions executes the reviewer's actions. Failures are
// recorded as distinct audit events and do not unwind the resolution.
func (s *appealServiceImpl) applyResolutionActions(ctx context.Context, appeal *entity.Appeal, req ResolveAppealRequest) {
	for _, action := range req.Actions {
		var err error
		switch action.Type {
		case entity.ActionRefund, entity.ActionFeeReversal:
			reason := fmt.Sprintf("appeal %s: %s", entity.AppealCaseNumber(appeal.ID), action.Type)
			_, err = s.money.Refund(ctx, appeal.ID, entity.CaseTypeAppeal, action.AmountCents, reason, req.ReviewerID)
		case entity.ActionUnfreezeAccount:
			err = s.userStore.SetFrozen(ctx, appeal.AppealerID, false)
		case entity.ActionClearFlags:
			err = s.userStore.ClearWarnings(ctx, appeal.AppealerID)
		default:
			err = fmt.Errorf("%w: unknown action %q", entity.ErrValidation, action.Type)
		}

		if err != nil {
			s.logger.Error("Resolution action failed",
				"error", err,
				"appeal_id", appeal.ID,
				"action", action.Type,
			)
			s.audit.Log(ctx, &entity.AuditEvent{
				AppointmentID: &appeal.AppointmentID,
				CaseID:        &appeal.ID,
				CaseType:      entity.CaseTypeAppeal,
				EventType:     entity.AuditActionFailed,
				ActorID:       &req.ReviewerID,
				EventData:     mustJSON(map[string]interface{}{"action": action.Type, "error": err.Error()}),
			})
		}
	}
}

// fireTransition validates current→target against the appeal state machine.
func fireTransition(ctx context.Context, current entity.AppealStatus, target entity.AppealStatus) error {
	trigger, ok := workflow.TriggerForState(workflow.State(target))
	if !ok {
		return fmt.Errorf("%w: %s -> %s", workflow.ErrInvalidTransition, current, target)
	}
	machine := workflow.BuildAppealStateMachine(workflow.State(current))
	return machine.Fire(ctx, trigger)
}

func statusForDecision(decision entity.Decision) entity.AppealStatus {
	switch decision {
	case entity.DecisionApprove:
		return entity.AppealStatusApproved
	case entity.DecisionPartial:
		return entity.AppealStatusPartiallyApproved
	default:
		return entity.AppealStatusDenied
	}
}

func mustJSON(v map[string]interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
