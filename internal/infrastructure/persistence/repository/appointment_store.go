package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// AppointmentStore implements port.AppointmentStore over sqlite. Only the
// fields this engine owns are written; booking mechanics live elsewhere.
type AppointmentStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAppointmentStore creates a new appointment store
func NewAppointmentStore(db *sql.DB, logger *zap.Logger) port.AppointmentStore {
	return &AppointmentStore{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves an appointment by ID, nil when missing
func (s *AppointmentStore) GetByID(ctx context.Context, id int64) (*entity.Appointment, error) {
	query := `
		SELECT id, homeowner_id, price_cents, cancelled, cancelled_at,
			payment_ref, refund_total_cents, has_open_appeal,
			created_at, updated_at
		FROM appointments
		WHERE id = ?
	`

	var appointment entity.Appointment
	var cancelledAt sql.NullTime
	var paymentRef sql.NullString

	err := getExecutor(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&appointment.ID,
		&appointment.HomeownerID,
		&appointment.PriceCents,
		&appointment.Cancelled,
		&cancelledAt,
		&paymentRef,
		&appointment.RefundTotalCents,
		&appointment.HasOpenAppeal,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("Failed to get appointment", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("get appointment: %w", err)
	}

	if cancelledAt.Valid {
		appointment.CancelledAt = &cancelledAt.Time
	}
	appointment.PaymentRef = paymentRef.String

	return &appointment, nil
}

// AddToRefundTotal increments the appointment's running refund total
func (s *AppointmentStore) AddToRefundTotal(ctx context.Context, id int64, amountCents int64) error {
	query := `
		UPDATE appointments
		SET refund_total_cents = refund_total_cents + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, s.db).ExecContext(ctx, query, amountCents, id); err != nil {
		s.logger.Error("Failed to update refund total", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("update refund total: %w", err)
	}
	return nil
}

// SetOpenAppeal flips the appointment's open-appeal flag
func (s *AppointmentStore) SetOpenAppeal(ctx context.Context, id int64, open bool) error {
	query := `
		UPDATE appointments
		SET has_open_appeal = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, s.db).ExecContext(ctx, query, open, id); err != nil {
		s.logger.Error("Failed to set open appeal flag", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("set open appeal flag: %w", err)
	}
	return nil
}
