package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// AppealRepository implements port.AppealRepository over sqlite
type AppealRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAppealRepository creates a new appeal repository
func NewAppealRepository(db *sql.DB, logger *zap.Logger) port.AppealRepository {
	return &AppealRepository{
		db:     db,
		logger: logger,
	}
}

const appealColumns = `
	id, appointment_id, appealer_id, appealer_role, category, severity,
	description, status, priority, contested_items, submitted_at,
	sla_deadline, assigned_to, reviewed_by, decision, resolution_actions,
	resolution_notes, closed_at, created_at, updated_at
`

// Create inserts a new appeal. The partial unique index on open appeals
// turns a concurrent duplicate submit into a constraint error here.
func (r *AppealRepository) Create(ctx context.Context, appeal *entity.Appeal) error {
	query := `
		INSERT INTO appeals (
			appointment_id, appealer_id, appealer_role, category, severity,
			description, status, priority, contested_items, submitted_at,
			sla_deadline
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		appeal.AppointmentID,
		appeal.AppealerID,
		appeal.AppealerRole,
		appeal.Category,
		appeal.Severity,
		appeal.Description,
		appeal.Status,
		appeal.Priority,
		appeal.ContestedItems,
		appeal.SubmittedAt,
		appeal.SLADeadline,
	)
	if err != nil {
		r.logger.Error("Failed to create appeal", zap.Error(err))
		return fmt.Errorf("create appeal: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	appeal.ID = id
	return nil
}

// GetByID retrieves an appeal by ID, nil when missing
func (r *AppealRepository) GetByID(ctx context.Context, id int64) (*entity.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id)
	appeal, err := scanAppeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get appeal", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("get appeal: %w", err)
	}
	return appeal, nil
}

// GetOpenByAppointmentID returns the open appeal for an appointment, or nil
func (r *AppealRepository) GetOpenByAppointmentID(ctx context.Context, appointmentID int64) (*entity.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE appointment_id = ? AND ` + appealOpenCondition + ` LIMIT 1`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, appointmentID)
	appeal, err := scanAppeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get open appeal", zap.Int64("appointment_id", appointmentID), zap.Error(err))
		return nil, fmt.Errorf("get open appeal: %w", err)
	}
	return appeal, nil
}

// GetByAppealerSince returns appeals submitted by a user at or after since
func (r *AppealRepository) GetByAppealerSince(ctx context.Context, appealerID int64, since time.Time) ([]*entity.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE appealer_id = ? AND submitted_at >= ? ORDER BY submitted_at DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, appealerID, since)
	if err != nil {
		r.logger.Error("Failed to list appeals by appealer", zap.Int64("appealer_id", appealerID), zap.Error(err))
		return nil, fmt.Errorf("list appeals by appealer: %w", err)
	}
	defer rows.Close()

	return scanAppeals(rows)
}

// List returns appeals ordered by submission time, newest first
func (r *AppealRepository) List(ctx context.Context, limit, offset int) ([]*entity.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals ORDER BY submitted_at DESC LIMIT ? OFFSET ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list appeals", zap.Error(err))
		return nil, fmt.Errorf("list appeals: %w", err)
	}
	defer rows.Close()

	return scanAppeals(rows)
}

// ListOpen returns all non-terminal appeals
func (r *AppealRepository) ListOpen(ctx context.Context) ([]*entity.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE ` + appealOpenCondition + ` ORDER BY submitted_at ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list open appeals", zap.Error(err))
		return nil, fmt.Errorf("list open appeals: %w", err)
	}
	defer rows.Close()

	return scanAppeals(rows)
}

// UpdateStatus changes the appeal status
func (r *AppealRepository) UpdateStatus(ctx context.Context, id int64, status entity.AppealStatus) error {
	query := `UPDATE appeals SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, id); err != nil {
		r.logger.Error("Failed to update appeal status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("update appeal status: %w", err)
	}
	return nil
}

// UpdateAssignee sets the reviewer the appeal is assigned to
func (r *AppealRepository) UpdateAssignee(ctx context.Context, id int64, assigneeID int64) error {
	query := `UPDATE appeals SET assigned_to = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, assigneeID, id); err != nil {
		r.logger.Error("Failed to update appeal assignee", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("update appeal assignee: %w", err)
	}
	return nil
}

// UpdateResolution writes the terminal status and resolution payload in one
// statement
func (r *AppealRepository) UpdateResolution(ctx context.Context, id int64, status entity.AppealStatus, decision entity.Decision, actions, notes string, reviewedBy int64, closedAt time.Time) error {
	query := `
		UPDATE appeals
		SET status = ?, decision = ?, resolution_actions = ?,
			resolution_notes = ?, reviewed_by = ?, closed_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, decision, actions, notes, reviewedBy, closedAt, id); err != nil {
		r.logger.Error("Failed to update appeal resolution", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("update appeal resolution: %w", err)
	}
	return nil
}

// CountOpen counts non-terminal appeals
func (r *AppealRepository) CountOpen(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM appeals WHERE ` + appealOpenCondition

	var count int
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count open appeals: %w", err)
	}
	return count, nil
}

// CountOverdue counts non-terminal appeals past their SLA deadline
func (r *AppealRepository) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM appeals WHERE ` + appealOpenCondition + ` AND sla_deadline < ?`

	var count int
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count overdue appeals: %w", err)
	}
	return count, nil
}

// CountByPriority counts non-terminal appeals at the given priority
func (r *AppealRepository) CountByPriority(ctx context.Context, priority entity.Priority) (int, error) {
	query := `SELECT COUNT(*) FROM appeals WHERE ` + appealOpenCondition + ` AND priority = ?`

	var count int
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, priority).Scan(&count); err != nil {
		return 0, fmt.Errorf("count appeals by priority: %w", err)
	}
	return count, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppeal(row rowScanner) (*entity.Appeal, error) {
	var appeal entity.Appeal
	var contestedItems, decision, resolutionActions, resolutionNotes sql.NullString
	var assignedTo, reviewedBy sql.NullInt64
	var closedAt sql.NullTime

	err := row.Scan(
		&appeal.ID,
		&appeal.AppointmentID,
		&appeal.AppealerID,
		&appeal.AppealerRole,
		&appeal.Category,
		&appeal.Severity,
		&appeal.Description,
		&appeal.Status,
		&appeal.Priority,
		&contestedItems,
		&appeal.SubmittedAt,
		&appeal.SLADeadline,
		&assignedTo,
		&reviewedBy,
		&decision,
		&resolutionActions,
		&resolutionNotes,
		&closedAt,
		&appeal.CreatedAt,
		&appeal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	appeal.ContestedItems = contestedItems.String
	appeal.Decision = entity.Decision(decision.String)
	appeal.ResolutionActions = resolutionActions.String
	appeal.ResolutionNotes = resolutionNotes.String
	if assignedTo.Valid {
		appeal.AssignedTo = &assignedTo.Int64
	}
	if reviewedBy.Valid {
		appeal.ReviewedBy = &reviewedBy.Int64
	}
	if closedAt.Valid {
		appeal.ClosedAt = &closedAt.Time
	}

	return &appeal, nil
}

func scanAppeals(rows *sql.Rows) ([]*entity.Appeal, error) {
	var appeals []*entity.Appeal
	for rows.Next() {
		appeal, err := scanAppeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appeal: %w", err)
		}
		appeals = append(appeals, appeal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appeals: %w", err)
	}
	return appeals, nil
}
