package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// AuditService records the immutable audit trail. Log never returns an
// error: audit logging must not block or abort the primary workflow, so
// storage failures are swallowed and logged separately.
type AuditService interface {
	Log(ctx context.Context, event *entity.AuditEvent)
	GetAuditTrail(ctx context.Context, appointmentID int64) ([]*entity.AuditEvent, error)
	Search(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(auditRepo port.AuditRepository, logger Logger) AuditService {
	return &auditServiceImpl{
		auditRepo: auditRepo,
		logger:    logger,
	}
}

// Log appends an audit event, filling in timestamp and request id when
// absent. Failures are logged and dropped.
func (s *auditServiceImpl) Log(ctx context.Context, event *entity.AuditEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = uuid.NewString()
	}

	if err := s.auditRepo.Create(ctx, event); err != nil {
		s.logger.Error("Failed to write audit event",
			"error", err,
			"event_type", event.EventType,
			"request_id", event.RequestID,
		)
	}
}

// GetAuditTrail returns all events recorded for an appointment
func (s *auditServiceImpl) GetAuditTrail(ctx context.Context, appointmentID int64) ([]*entity.AuditEvent, error) {
	events, err := s.auditRepo.Search(ctx, entity.AuditFilter{AppointmentID: &appointmentID})
	if err != nil {
		s.logger.Error("Failed to get audit trail", "error", err, "appointment_id", appointmentID)
		return nil, fmt.Errorf("get audit trail: %w", err)
	}
	return events, nil
}

// Search filters audit events by case, actor, date range and free text
func (s *auditServiceImpl) Search(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	events, err := s.auditRepo.Search(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to search audit events", "error", err)
		return nil, fmt.Errorf("search audit events: %w", err)
	}
	return events, nil
}
