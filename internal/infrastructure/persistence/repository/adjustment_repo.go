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

// AdjustmentRepository implements port.AdjustmentRepository over sqlite
type AdjustmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAdjustmentRepository creates a new adjustment case repository
func NewAdjustmentRepository(db *sql.DB, logger *zap.Logger) port.AdjustmentRepository {
	return &AdjustmentRepository{
		db:     db,
		logger: logger,
	}
}

const adjustmentColumns = `
	id, appointment_id, cleaner_id, homeowner_id, assigned_to,
	original_size, reported_size, price_delta_cents, status, expires_at,
	resolved_by, resolved_at, resolution_notes, created_at, updated_at
`

// Create inserts a new adjustment case
func (r *AdjustmentRepository) Create(ctx context.Context, c *entity.AdjustmentCase) error {
	query := `
		INSERT INTO adjustment_cases (
			appointment_id, cleaner_id, homeowner_id, original_size,
			reported_size, price_delta_cents, status, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		c.AppointmentID,
		c.CleanerID,
		c.HomeownerID,
		c.OriginalSize,
		c.ReportedSize,
		c.PriceDeltaCents,
		c.Status,
		c.ExpiresAt,
	)
	if err != nil {
		r.logger.Error("Failed to create adjustment case", zap.Error(err))
		return fmt.Errorf("create adjustment case: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	c.ID = id
	return nil
}

// GetByID retrieves an adjustment case by ID, nil when missing
func (r *AdjustmentRepository) GetByID(ctx context.Context, id int64) (*entity.AdjustmentCase, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM adjustment_cases WHERE id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id)
	c, err := scanAdjustment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get adjustment case", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("get adjustment case: %w", err)
	}
	return c, nil
}

// List returns adjustment cases ordered by creation time, newest first
func (r *AdjustmentRepository) List(ctx context.Context, limit, offset int) ([]*entity.AdjustmentCase, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM adjustment_cases ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list adjustment cases", zap.Error(err))
		return nil, fmt.Errorf("list adjustment cases: %w", err)
	}
	defer rows.Close()

	return scanAdjustments(rows)
}

// ListPending returns all non-terminal adjustment cases
func (r *AdjustmentRepository) ListPending(ctx context.Context) ([]*entity.AdjustmentCase, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM adjustment_cases WHERE ` + adjustmentPendingCondition + ` ORDER BY created_at ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list pending adjustment cases", zap.Error(err))
		return nil, fmt.Errorf("list pending adjustment cases: %w", err)
	}
	defer rows.Close()

	return scanAdjustments(rows)
}

// UpdateResolution stamps the resolver, timestamp and terminal status
func (r *AdjustmentRepository) UpdateResolution(ctx context.Context, id int64, status entity.AdjustmentStatus, resolvedBy int64, notes string, resolvedAt time.Time) error {
	query := `
		UPDATE adjustment_cases
		SET status = ?, resolved_by = ?, resolution_notes = ?,
			resolved_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, resolvedBy, notes, resolvedAt, id); err != nil {
		r.logger.Error("Failed to update adjustment resolution", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("update adjustment resolution: %w", err)
	}
	return nil
}

// CountPending counts non-terminal cases still inside their response window
func (r *AdjustmentRepository) CountPending(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM adjustment_cases WHERE ` + adjustmentPendingCondition + ` AND expires_at >= ?`

	var count int
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, time.Now()).Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending adjustment cases: %w", err)
	}
	return count, nil
}

// CountExpired counts unresolved cases whose response window has passed.
// Expiry is derived, so this compares against the clock rather than a
// stored status.
func (r *AdjustmentRepository) CountExpired(ctx context.Context, now time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM adjustment_cases WHERE ` + adjustmentPendingCondition + ` AND expires_at < ?`

	var count int
	if err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("count expired adjustment cases: %w", err)
	}
	return count, nil
}

func scanAdjustment(row rowScanner) (*entity.AdjustmentCase, error) {
	var c entity.AdjustmentCase
	var assignedTo, resolvedBy sql.NullInt64
	var resolvedAt sql.NullTime
	var resolutionNotes sql.NullString

	err := row.Scan(
		&c.ID,
		&c.AppointmentID,
		&c.CleanerID,
		&c.HomeownerID,
		&assignedTo,
		&c.OriginalSize,
		&c.ReportedSize,
		&c.PriceDeltaCents,
		&c.Status,
		&c.ExpiresAt,
		&resolvedBy,
		&resolvedAt,
		&resolutionNotes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		c.AssignedTo = &assignedTo.Int64
	}
	if resolvedBy.Valid {
		c.ResolvedBy = &resolvedBy.Int64
	}
	if resolvedAt.Valid {
		c.ResolvedAt = &resolvedAt.Time
	}
	c.ResolutionNotes = resolutionNotes.String

	return &c, nil
}

func scanAdjustments(rows *sql.Rows) ([]*entity.AdjustmentCase, error) {
	var cases []*entity.AdjustmentCase
	for rows.Next() {
		c, err := scanAdjustment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan adjustment case: %w", err)
		}
		cases = append(cases, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate adjustment cases: %w", err)
	}
	return cases, nil
}
