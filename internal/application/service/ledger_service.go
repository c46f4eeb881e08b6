package service

import (
	"context"
	"fmt"
	"time"

	"github.com/homeshine/conflict-engine/internal/application/port"
	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// LedgerService manages the append-only double-entry ledger and its
// reconciliation against the payment gateway's records.
type LedgerService interface {
	Record(ctx context.Context, entry *entity.LedgerEntry) error
	RecordCancellation(ctx context.Context, appointmentID int64, details *entity.CancellationDetails) ([]*entity.LedgerEntry, error)
	GetByAppointment(ctx context.Context, appointmentID int64) ([]*entity.LedgerEntry, error)
	ListByTaxYear(ctx context.Context, year int) ([]*entity.LedgerEntry, error)

	CalculateBalance(entries []*entity.LedgerEntry) int64
	CalculateSummary(entries []*entity.LedgerEntry) *entity.LedgerSummary

	// Reconcile processes one bounded batch of unreconciled entries.
	Reconcile(ctx context.Context, batchSize int) (*entity.ReconcileResult, error)
}

type ledgerServiceImpl struct {
	ledgerRepo port.LedgerRepository
	gateway    port.PaymentGateway
	txManager  port.TransactionManager
	logger     Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	ledgerRepo port.LedgerRepository,
	gateway port.PaymentGateway,
	txManager port.TransactionManager,
	logger Logger,
) LedgerService {
	return &ledgerServiceImpl{
		ledgerRepo: ledgerRepo,
		gateway:    gateway,
		txManager:  txManager,
		logger:     logger,
	}
}

// Record validates and appends one ledger entry, deriving the tax fields
// from the effective date and entry type.
func (s *ledgerServiceImpl) Record(ctx context.Context, entry *entity.LedgerEntry) error {
	if err := s.prepare(entry); err != nil {
		return err
	}

	if err := s.ledgerRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record ledger entry", "error", err, "entry_type", entry.EntryType)
		return fmt.Errorf("record ledger entry: %w", err)
	}

	s.logger.Info("Ledger entry recorded",
		"entry_id", entry.ID,
		"entry_type", entry.EntryType,
		"amount_cents", entry.AmountCents,
		"direction", entry.Direction,
	)
	return nil
}

// prepare validates the entry and stamps derived fields.
func (s *ledgerServiceImpl) prepare(entry *entity.LedgerEntry) error {
	if !entry.EntryType.IsValid() {
		return fmt.Errorf("%w: unknown entry type %q", entity.ErrValidation, entry.EntryType)
	}
	if entry.AmountCents < 0 {
		return fmt.Errorf("%w: amount must not be negative", entity.ErrValidation)
	}
	if !entry.Direction.IsValid() {
		return fmt.Errorf("%w: direction must be credit or debit", entity.ErrValidation)
	}

	if entry.EffectiveAt.IsZero() {
		entry.EffectiveAt = time.Now()
	}
	entry.TaxYear = entry.EffectiveAt.Year()
	entry.TaxQuarter = (int(entry.EffectiveAt.Month())-1)/3 + 1
	entry.TaxCategory = entity.TaxCategoryFor(entry.EntryType)
	entry.Form1099Eligible = entry.PartyType == entity.PartyCleaner &&
		entry.AmountCents >= entity.Form1099ThresholdCents

	return nil
}

// RecordCancellation posts the full set of entries for a cancelled
// appointment in one atomic transaction: the homeowner refund, the
// cancellation-fee revenue, one payout and platform-fee pair per cleaner,
// and processor fees. Any insert failure rolls back the whole set.
func (s *ledgerServiceImpl) RecordCancellation(ctx context.Context, appointmentID int64, details *entity.CancellationDetails) ([]*entity.LedgerEntry, error) {
	if details == nil {
		return nil, fmt.Errorf("%w: cancellation details are required", entity.ErrValidation)
	}
	if details.RefundAmountCents > details.OriginalAmountCents {
		return nil, fmt.Errorf("%w: refund exceeds original amount", entity.ErrValidation)
	}

	effectiveAt := details.EffectiveAt
	if effectiveAt.IsZero() {
		effectiveAt = time.Now()
	}

	var entries []*entity.LedgerEntry

	if details.RefundAmountCents > 0 {
		refundType := entity.EntryCancellationRefund
		if details.RefundAmountCents < details.OriginalAmountCents {
			refundType = entity.EntryCancellationPartialRefund
		}
		entries = append(entries, &entity.LedgerEntry{
			AppointmentID: appointmentID,
			EntryType:     refundType,
			AmountCents:   details.RefundAmountCents,
			Direction:     entity.DirectionDebit,
			AccountType:   entity.AccountRefundsPayable,
			PartyType:     entity.PartyHomeowner,
			PartyID:       details.HomeownerID,
			ExternalRef:   details.PaymentRef,
			EffectiveAt:   effectiveAt,
		})
	}

	if details.CancellationFeeCents > 0 {
		entries = append(entries, &entity.LedgerEntry{
			AppointmentID: appointmentID,
			EntryType:     entity.EntryCancellationFee,
			AmountCents:   details.CancellationFeeCents,
			Direction:     entity.DirectionCredit,
			AccountType:   entity.AccountRevenue,
			PartyType:     entity.PartyPlatform,
			EffectiveAt:   effectiveAt,
		})
	}

	for _, share := range details.CleanerShares {
		if share.PayoutCents > 0 {
			entries = append(entries, &entity.LedgerEntry{
				AppointmentID: appointmentID,
				EntryType:     entity.EntryCancellationPayout,
				AmountCents:   share.PayoutCents,
				Direction:     entity.DirectionDebit,
				AccountType:   entity.AccountPayoutsPayable,
				PartyType:     entity.PartyCleaner,
				PartyID:       share.CleanerID,
				EffectiveAt:   effectiveAt,
			})
		}
		if share.PlatformFeeCents > 0 {
			entries = append(entries, &entity.LedgerEntry{
				AppointmentID: appointmentID,
				EntryType:     entity.EntryPlatformFee,
				AmountCents:   share.PlatformFeeCents,
				Direction:     entity.DirectionCredit,
				AccountType:   entity.AccountRevenue,
				PartyType:     entity.PartyPlatform,
				EffectiveAt:   effectiveAt,
			})
		}
	}

	if details.ProcessorFeeCents > 0 {
		entries = append(entries, &entity.LedgerEntry{
			AppointmentID: appointmentID,
			EntryType:     entity.EntryProcessorFee,
			AmountCents:   details.ProcessorFeeCents,
			Direction:     entity.DirectionDebit,
			AccountType:   entity.AccountProcessingCosts,
			PartyType:     entity.PartyProcessor,
			EffectiveAt:   effectiveAt,
		})
	}

	for _, entry := range entries {
		if err := s.prepare(entry); err != nil {
			return nil, err
		}
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, entry := range entries {
			if err := s.ledgerRepo.Create(txCtx, entry); err != nil {
				return fmt.Errorf("record cancellation entry %s: %w", entry.EntryType, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to record cancellation", "error", err, "appointment_id", appointmentID)
		return nil, err
	}

	s.logger.Info("Cancellation recorded",
		"appointment_id", appointmentID,
		"entry_count", len(entries),
		"refund_cents", details.RefundAmountCents,
	)
	return entries, nil
}

// GetByAppointment returns all ledger entries posted against an appointment
func (s *ledgerServiceImpl) GetByAppointment(ctx context.Context, appointmentID int64) ([]*entity.LedgerEntry, error) {
	entries, err := s.ledgerRepo.GetByAppointmentID(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("get ledger entries: %w", err)
	}
	return entries, nil
}

// ListByTaxYear returns entries effective in the given tax year
func (s *ledgerServiceImpl) ListByTaxYear(ctx context.Context, year int) ([]*entity.LedgerEntry, error) {
	entries, err := s.ledgerRepo.ListByTaxYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries for %d: %w", year, err)
	}
	return entries, nil
}

// CalculateBalance sums credits minus debits
func (s *ledgerServiceImpl) CalculateBalance(entries []*entity.LedgerEntry) int64 {
	var balance int64
	for _, entry := range entries {
		balance += entry.SignedAmount()
	}
	return balance
}

// CalculateSummary buckets entries by type and rolls up the headline totals
func (s *ledgerServiceImpl) CalculateSummary(entries []*entity.LedgerEntry) *entity.LedgerSummary {
	summary := &entity.LedgerSummary{
		ByType: make(map[entity.LedgerEntryType]entity.EntryTypeSummary),
	}

	for _, entry := range entries {
		bucket := summary.ByType[entry.EntryType]
		bucket.Count++
		bucket.TotalCents += entry.AmountCents
		summary.ByType[entry.EntryType] = bucket

		switch entity.TaxCategoryFor(entry.EntryType) {
		case entity.TaxIncome:
			summary.TotalRevenueCents += entry.AmountCents
		case entity.TaxRefund:
			summary.TotalRefundsCents += entry.AmountCents
		case entity.TaxPayout:
			summary.TotalPayoutsCents += entry.AmountCents
		}
	}

	summary.NetPlatformRevenue = summary.TotalRevenueCents - summary.TotalRefundsCents
	return summary
}

// Reconcile fetches the gateway object behind each unreconciled entry and
// compares amounts. It only ever touches reconciliation fields, so it is
// safe to run concurrently with new entry creation. Errors are isolated per
// entry: one stuck external call does not block the rest of the batch.
func (s *ledgerServiceImpl) Reconcile(ctx context.Context, batchSize int) (*entity.ReconcileResult, error) {
	if batchSize <= 0 {
		batchSize = 100
	}

	entries, err := s.ledgerRepo.GetUnreconciled(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("load unreconciled entries: %w", err)
	}

	result := &entity.ReconcileResult{Batch: len(entries)}
	now := time.Now()

	for _, entry := range entries {
		obj, err := s.gateway.Retrieve(ctx, gatewayObjectTypeFor(entry.EntryType), entry.ExternalRef)
		if err != nil {
			result.Errors++
			note := fmt.Sprintf("gateway fetch failed: %v", err)
			if uerr := s.ledgerRepo.UpdateReconciliation(ctx, entry.ID, false, entry.DiscrepancyCents, note, now); uerr != nil {
				s.logger.Error("Failed to record reconciliation error", "error", uerr, "entry_id", entry.ID)
			}
			continue
		}

		if obj.AmountCents == entry.AmountCents {
			result.Matched++
			if uerr := s.ledgerRepo.UpdateReconciliation(ctx, entry.ID, true, 0, "", now); uerr != nil {
				s.logger.Error("Failed to mark entry reconciled", "error", uerr, "entry_id", entry.ID)
				result.Errors++
			}
			continue
		}

		result.Mismatched++
		diff := entry.AmountCents - obj.AmountCents
		if diff < 0 {
			diff = -diff
		}
		note := fmt.Sprintf("amount mismatch: ledger=%d gateway=%d", entry.AmountCents, obj.AmountCents)
		if uerr := s.ledgerRepo.UpdateReconciliation(ctx, entry.ID, false, diff, note, now); uerr != nil {
			s.logger.Error("Failed to record discrepancy", "error", uerr, "entry_id", entry.ID)
		}
	}

	s.logger.Info("Reconciliation batch completed",
		"batch", result.Batch,
		"matched", result.Matched,
		"mismatched", result.Mismatched,
		"errors", result.Errors,
	)
	return result, nil
}

// gatewayObjectTypeFor maps an entry type to the gateway object it
// reconciles against.
func gatewayObjectTypeFor(entryType entity.LedgerEntryType) string {
	switch entity.TaxCategoryFor(entryType) {
	case entity.TaxRefund:
		return port.GatewayObjectRefund
	case entity.TaxPayout:
		return port.GatewayObjectTransfer
	default:
		return port.GatewayObjectCharge
	}
}
