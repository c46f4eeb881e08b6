package port

import (
	"context"
	"time"

	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// AppealRepository defines persistence operations for Appeal
type AppealRepository interface {
	Create(ctx context.Context, appeal *entity.Appeal) error
	GetByID(ctx context.Context, id int64) (*entity.Appeal, error)

	// GetOpenByAppointmentID returns the open (non-terminal) appeal for an
	// appointment, or nil when none exists.
	GetOpenByAppointmentID(ctx context.Context, appointmentID int64) (*entity.Appeal, error)

	// GetByAppealerSince returns appeals submitted by a user at or after
	// the given time, for scrutiny recomputation.
	GetByAppealerSince(ctx context.Context, appealerID int64, since time.Time) ([]*entity.Appeal, error)

	List(ctx context.Context, limit, offset int) ([]*entity.Appeal, error)

	// ListOpen returns all non-terminal appeals for queue merging.
	ListOpen(ctx context.Context) ([]*entity.Appeal, error)

	UpdateStatus(ctx context.Context, id int64, status entity.AppealStatus) error
	UpdateAssignee(ctx context.Context, id int64, assigneeID int64) error

	// UpdateResolution writes the resolution payload and terminal status in
	// one statement.
	UpdateResolution(ctx context.Context, id int64, status entity.AppealStatus, decision entity.Decision, actions, notes string, reviewedBy int64, closedAt time.Time) error

	CountOpen(ctx context.Context) (int, error)
	CountOverdue(ctx context.Context, now time.Time) (int, error)
	CountByPriority(ctx context.Context, priority entity.Priority) (int, error)
}

// AdjustmentRepository defines persistence operations for AdjustmentCase
type AdjustmentRepository interface {
	Create(ctx context.Context, c *entity.AdjustmentCase) error
	GetByID(ctx context.Context, id int64) (*entity.AdjustmentCase, error)
	List(ctx context.Context, limit, offset int) ([]*entity.AdjustmentCase, error)

	// ListPending returns all non-terminal cases for queue merging.
	ListPending(ctx context.Context) ([]*entity.AdjustmentCase, error)

	// UpdateResolution stamps the resolver, timestamp and terminal status.
	UpdateResolution(ctx context.Context, id int64, status entity.AdjustmentStatus, resolvedBy int64, notes string, resolvedAt time.Time) error

	CountPending(ctx context.Context) (int, error)
	CountExpired(ctx context.Context, now time.Time) (int, error)
}

// LedgerRepository defines persistence operations for LedgerEntry.
// Entries are append-only; the only UPDATE path touches reconciliation fields.
type LedgerRepository interface {
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	GetByID(ctx context.Context, id int64) (*entity.LedgerEntry, error)
	GetByAppointmentID(ctx context.Context, appointmentID int64) ([]*entity.LedgerEntry, error)
	List(ctx context.Context, limit, offset int) ([]*entity.LedgerEntry, error)

	// ListByTaxYear returns entries effective in the given tax year.
	ListByTaxYear(ctx context.Context, year int) ([]*entity.LedgerEntry, error)

	// GetUnreconciled returns up to limit unreconciled entries that carry an
	// external gateway reference.
	GetUnreconciled(ctx context.Context, limit int) ([]*entity.LedgerEntry, error)

	// UpdateReconciliation mutates only the reconciliation fields.
	UpdateReconciliation(ctx context.Context, id int64, reconciled bool, discrepancyCents int64, note string, at time.Time) error
}

// AuditRepository defines persistence operations for AuditEvent.
// Events are write-once.
type AuditRepository interface {
	Create(ctx context.Context, event *entity.AuditEvent) error
	Search(ctx context.Context, filter entity.AuditFilter) ([]*entity.AuditEvent, error)
}

// AppointmentStore reads and updates the appointment fields this engine owns.
type AppointmentStore interface {
	GetByID(ctx context.Context, id int64) (*entity.Appointment, error)

	// AddToRefundTotal increments the appointment's running refund total.
	AddToRefundTotal(ctx context.Context, id int64, amountCents int64) error

	SetOpenAppeal(ctx context.Context, id int64, open bool) error
}

// UserStore reads and updates the user fields this engine owns.
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)

	// GetNames batch-resolves display names for queue normalization.
	GetNames(ctx context.Context, ids []int64) (map[int64]string, error)

	SaveScrutinyProfile(ctx context.Context, profile *entity.ScrutinyProfile) error
	SetFrozen(ctx context.Context, id int64, frozen bool) error
	ClearWarnings(ctx context.Context, id int64) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
