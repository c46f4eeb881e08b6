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

// LedgerRepository implements port.LedgerRepository over sqlite. Entries
// are append-only; the only UPDATE statement touches reconciliation fields.
type LedgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sql.DB, logger *zap.Logger) port.LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

const ledgerColumns = `
	id, appointment_id, entry_type, amount_cents, direction, account_type,
	party_type, party_id, external_ref, effective_at, tax_year, tax_quarter,
	tax_category, form_1099_eligible, reconciled, reconciled_at,
	discrepancy_cents, discrepancy_note, description, created_at
`

// Create appends a ledger entry
func (r *LedgerRepository) Create(ctx context.Context, entry *entity.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (
			appointment_id, entry_type, amount_cents, direction,
			account_type, party_type, party_id, external_ref, effective_at,
			tax_year, tax_quarter, tax_category, form_1099_eligible,
			description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		entry.AppointmentID,
		entry.EntryType,
		entry.AmountCents,
		entry.Direction,
		entry.AccountType,
		entry.PartyType,
		entry.PartyID,
		entry.ExternalRef,
		entry.EffectiveAt,
		entry.TaxYear,
		entry.TaxQuarter,
		entry.TaxCategory,
		entry.Form1099Eligible,
		entry.Description,
	)
	if err != nil {
		r.logger.Error("Failed to create ledger entry", zap.Error(err))
		return fmt.Errorf("create ledger entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	entry.ID = id
	return nil
}

// GetByID retrieves a ledger entry by ID, nil when missing
func (r *LedgerRepository) GetByID(ctx context.Context, id int64) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE id = ?`

	row := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id)
	entry, err := scanLedgerEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get ledger entry", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return entry, nil
}

// GetByAppointmentID returns all entries posted against an appointment
func (r *LedgerRepository) GetByAppointmentID(ctx context.Context, appointmentID int64) ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE appointment_id = ? ORDER BY effective_at ASC, id ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, appointmentID)
	if err != nil {
		r.logger.Error("Failed to list ledger entries by appointment", zap.Int64("appointment_id", appointmentID), zap.Error(err))
		return nil, fmt.Errorf("list ledger entries by appointment: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// List returns entries ordered by effective date, newest first
func (r *LedgerRepository) List(ctx context.Context, limit, offset int) ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries ORDER BY effective_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", zap.Error(err))
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// ListByTaxYear returns entries effective in the given tax year
func (r *LedgerRepository) ListByTaxYear(ctx context.Context, year int) ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM ledger_entries WHERE tax_year = ? ORDER BY effective_at ASC, id ASC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, year)
	if err != nil {
		r.logger.Error("Failed to list ledger entries by tax year", zap.Int("year", year), zap.Error(err))
		return nil, fmt.Errorf("list ledger entries by tax year: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// GetUnreconciled returns up to limit unreconciled entries carrying an
// external gateway reference
func (r *LedgerRepository) GetUnreconciled(ctx context.Context, limit int) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM ledger_entries
		WHERE reconciled = 0 AND external_ref != ''
		ORDER BY effective_at ASC, id ASC
		LIMIT ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list unreconciled ledger entries", zap.Error(err))
		return nil, fmt.Errorf("list unreconciled ledger entries: %w", err)
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

// UpdateReconciliation mutates only the reconciliation fields
func (r *LedgerRepository) UpdateReconciliation(ctx context.Context, id int64, reconciled bool, discrepancyCents int64, note string, at time.Time) error {
	query := `
		UPDATE ledger_entries
		SET reconciled = ?, reconciled_at = ?, discrepancy_cents = ?,
			discrepancy_note = ?
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, reconciled, at, discrepancyCents, note, id); err != nil {
		r.logger.Error("Failed to update reconciliation", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("update reconciliation: %w", err)
	}
	return nil
}

func scanLedgerEntry(row rowScanner) (*entity.LedgerEntry, error) {
	var entry entity.LedgerEntry
	var externalRef, discrepancyNote, description sql.NullString
	var reconciledAt sql.NullTime

	err := row.Scan(
		&entry.ID,
		&entry.AppointmentID,
		&entry.EntryType,
		&entry.AmountCents,
		&entry.Direction,
		&entry.AccountType,
		&entry.PartyType,
		&entry.PartyID,
		&externalRef,
		&entry.EffectiveAt,
		&entry.TaxYear,
		&entry.TaxQuarter,
		&entry.TaxCategory,
		&entry.Form1099Eligible,
		&entry.Reconciled,
		&reconciledAt,
		&entry.DiscrepancyCents,
		&discrepancyNote,
		&description,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.ExternalRef = externalRef.String
	entry.DiscrepancyNote = discrepancyNote.String
	entry.Description = description.String
	if reconciledAt.Valid {
		entry.ReconciledAt = &reconciledAt.Time
	}

	return &entry, nil
}

func scanLedgerEntries(rows *sql.Rows) ([]*entity.LedgerEntry, error) {
	var entries []*entity.LedgerEntry
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}
	return entries, nil
}
