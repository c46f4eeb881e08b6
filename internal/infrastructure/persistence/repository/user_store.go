package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// UserStore implements port.UserStore over sqlite. The scrutiny profile is
// denormalized onto the user row since it is recomputed wholesale.
type UserStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserStore creates a new user store
func NewUserStore(db *sql.DB, logger *zap.Logger) port.UserStore {
	return &UserStore{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a user by ID, nil when missing
func (s *UserStore) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `
		SELECT id, name, role, payout_destination, frozen, warnings,
			scrutiny_level, scrutiny_reason, scrutiny_recent_appeals,
			scrutiny_recent_denials, scrutiny_category_counts,
			scrutiny_approval_rate, scrutiny_computed_at,
			created_at, updated_at
		FROM users
		WHERE id = ?
	`

	var user entity.User
	var payoutDestination, scrutinyLevel, scrutinyReason, categoryCounts sql.NullString
	var recentAppeals, recentDenials sql.NullInt64
	var approvalRate sql.NullFloat64
	var computedAt sql.NullTime

	err := getExecutor(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&payoutDestination,
		&user.Frozen,
		&user.Warnings,
		&scrutinyLevel,
		&scrutinyReason,
		&recentAppeals,
		&recentDenials,
		&categoryCounts,
		&approvalRate,
		&computedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.PayoutDestination = payoutDestination.String

	if scrutinyLevel.Valid && scrutinyLevel.String != "" {
		user.Scrutiny = &entity.ScrutinyProfile{
			UserID:         user.ID,
			Level:          entity.ScrutinyLevel(scrutinyLevel.String),
			Reason:         scrutinyReason.String,
			RecentAppeals:  int(recentAppeals.Int64),
			RecentDenials:  int(recentDenials.Int64),
			CategoryCounts: categoryCounts.String,
			ApprovalRate:   approvalRate.Float64,
		}
		if computedAt.Valid {
			user.Scrutiny.ComputedAt = computedAt.Time
		}
	}

	return &user, nil
}

// GetNames batch-resolves display names for the given user ids
func (s *UserStore) GetNames(ctx context.Context, ids []int64) (map[int64]string, error) {
	if len(ids) == 0 {
		return map[int64]string{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT id, name FROM users WHERE id IN (` + placeholders + `)`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := getExecutor(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to resolve user names", zap.Error(err))
		return nil, fmt.Errorf("resolve user names: %w", err)
	}
	defer rows.Close()

	names := make(map[int64]string, len(ids))
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan user name: %w", err)
		}
		names[id] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user names: %w", err)
	}
	return names, nil
}

// SaveScrutinyProfile overwrites the user's scrutiny fields with a freshly
// recomputed profile
func (s *UserStore) SaveScrutinyProfile(ctx context.Context, profile *entity.ScrutinyProfile) error {
	query := `
		UPDATE users
		SET scrutiny_level = ?, scrutiny_reason = ?,
			scrutiny_recent_appeals = ?, scrutiny_recent_denials = ?,
			scrutiny_category_counts = ?, scrutiny_approval_rate = ?,
			scrutiny_computed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, s.db).ExecContext(ctx, query,
		profile.Level,
		profile.Reason,
		profile.RecentAppeals,
		profile.RecentDenials,
		profile.CategoryCounts,
		profile.ApprovalRate,
		profile.ComputedAt,
		profile.UserID,
	); err != nil {
		s.logger.Error("Failed to save scrutiny profile", zap.Int64("user_id", profile.UserID), zap.Error(err))
		return fmt.Errorf("save scrutiny profile: %w", err)
	}
	return nil
}

// SetFrozen flips the user's frozen flag
func (s *UserStore) SetFrozen(ctx context.Context, id int64, frozen bool) error {
	query := `UPDATE users SET frozen = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := getExecutor(ctx, s.db).ExecContext(ctx, query, frozen, id); err != nil {
		s.logger.Error("Failed to set frozen flag", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("set frozen flag: %w", err)
	}
	return nil
}

// ClearWarnings resets the user's warning count
func (s *UserStore) ClearWarnings(ctx context.Context, id int64) error {
	query := `UPDATE users SET warnings = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`

	if _, err := getExecutor(ctx, s.db).ExecContext(ctx, query, id); err != nil {
		s.logger.Error("Failed to clear warnings", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("clear warnings: %w", err)
	}
	return nil
}
