package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// AuditRepository implements port.AuditRepository over sqlite. Events are
// write-once: there is no UPDATE or DELETE statement in this file.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit event repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit event
func (r *AuditRepository) Create(ctx context.Context, event *entity.AuditEvent) error {
	query := `
		INSERT INTO audit_events (
			appointment_id, case_id, case_type, event_type, actor_id,
			actor_role, event_data, previous_state, new_state, occurred_at,
			request_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		event.AppointmentID,
		event.CaseID,
		event.CaseType,
		event.EventType,
		event.ActorID,
		event.ActorRole,
		event.EventData,
		event.PreviousState,
		event.NewState,
		event.OccurredAt,
		event.RequestID,
	)
	if err != nil {
		r.logger.Error("Failed to create audit event", zap.Error(err))
		return fmt.Errorf("create audit event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	event.ID = id
	return nil
}

// Search filters audit events. All filter fields are optional and combine
// with AND; free text matches against the event data payload.
func (r *AuditRepository) Search(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error) {
	query := `
		SELECT id, appointment_id, case_id, case_type, event_type, actor_id,
			actor_role, event_data, previous_state, new_state, occurred_at,
			request_id
		FROM audit_events
		WHERE 1 = 1
	`
	var args []interface{}

	if filter.AppointmentID != nil {
		query += " AND appointment_id = ?"
		args = append(args, *filter.AppointmentID)
	}
	if filter.CaseID != nil {
		query += " AND case_id = ?"
		args = append(args, *filter.CaseID)
	}
	if filter.CaseType != "" {
		query += " AND case_type = ?"
		args = append(args, filter.CaseType)
	}
	if filter.EventType != "" {
		query += " AND event_type = ?"
		args = append(args, filter.EventType)
	}
	if filter.ActorID != nil {
		query += " AND actor_id = ?"
		args = append(args, *filter.ActorID)
	}
	if filter.From != nil {
		query += " AND occurred_at >= ?"
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		query += " AND occurred_at <= ?"
		args = append(args, *filter.To)
	}
	if filter.Text != "" {
		query += " AND event_data LIKE ?"
		args = append(args, "%"+filter.Text+"%")
	}

	query += " ORDER BY occurred_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to search audit events", zap.Error(err))
		return nil, fmt.Errorf("search audit events: %w", err)
	}
	defer rows.Close()

	var events []*entity.AuditEvent
	for rows.Next() {
		event, err := scanAuditEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func scanAuditEvent(row rowScanner) (*entity.AuditEvent, error) {
	var event entity.AuditEvent
	var appointmentID, caseID, actorID sql.NullInt64
	var caseType, actorRole, eventData, previousState, newState, requestID sql.NullString

	err := row.Scan(
		&event.ID,
		&appointmentID,
		&caseID,
		&caseType,
		&event.EventType,
		&actorID,
		&actorRole,
		&eventData,
		&previousState,
		&newState,
		&event.OccurredAt,
		&requestID,
	)
	if err != nil {
		return nil, err
	}

	if appointmentID.Valid {
		event.AppointmentID = &appointmentID.Int64
	}
	if caseID.Valid {
		event.CaseID = &caseID.Int64
	}
	if actorID.Valid {
		event.ActorID = &actorID.Int64
	}
	event.CaseType = entity.CaseType(caseType.String)
	event.ActorRole = entity.Role(actorRole.String)
	event.EventData = eventData.String
	event.PreviousState = previousState.String
	event.NewState = newState.String
	event.RequestID = requestID.String

	return &event, nil
}
