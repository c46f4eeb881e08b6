package reporting

import (
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/homeshine/conflict-engine/internal/domain/entity"
)

// LedgerExporter writes a tax-year ledger report as an Excel workbook:
// one summary sheet, one sheet with every entry, and a 1099 sheet rolling
// up reportable cleaner payouts.
type LedgerExporter struct {
	logger *zap.Logger
}

// NewLedgerExporter creates a new ledger exporter
func NewLedgerExporter(logger *zap.Logger) *LedgerExporter {
	return &LedgerExporter{logger: logger}
}

// ExportTaxYear writes the workbook for one tax year to outputPath
func (e *LedgerExporter) ExportTaxYear(year int, entries []*entity.LedgerEntry, summary *entity.LedgerSummary, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeSummarySheet(f, year, summary); err != nil {
		return err
	}
	if err := e.writeEntriesSheet(f, entries); err != nil {
		return err
	}
	if err := e.write1099Sheet(f, entries); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(outputPath); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	e.logger.Info("Ledger report exported",
		zap.Int("tax_year", year),
		zap.Int("entries", len(entries)),
		zap.String("path", outputPath),
	)
	return nil
}

func (e *LedgerExporter) writeSummarySheet(f *excelize.File, year int, summary *entity.LedgerSummary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}

	setCell(f, sheet, "A1", fmt.Sprintf("Ledger summary %d", year))
	setCell(f, sheet, "A3", "Total revenue")
	setCell(f, sheet, "B3", dollars(summary.TotalRevenueCents))
	setCell(f, sheet, "A4", "Total refunds")
	setCell(f, sheet, "B4", dollars(summary.TotalRefundsCents))
	setCell(f, sheet, "A5", "Total payouts")
	setCell(f, sheet, "B5", dollars(summary.TotalPayoutsCents))
	setCell(f, sheet, "A6", "Net platform revenue")
	setCell(f, sheet, "B6", dollars(summary.NetPlatformRevenue))

	setCell(f, sheet, "A8", "Entry type")
	setCell(f, sheet, "B8", "Count")
	setCell(f, sheet, "C8", "Total")

	types := make([]entity.LedgerEntryType, 0, len(summary.ByType))
	for t := range summary.ByType {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	row := 9
	for _, t := range types {
		bucket := summary.ByType[t]
		setCell(f, sheet, fmt.Sprintf("A%d", row), string(t))
		setCell(f, sheet, fmt.Sprintf("B%d", row), bucket.Count)
		setCell(f, sheet, fmt.Sprintf("C%d", row), dollars(bucket.TotalCents))
		row++
	}
	return nil
}

func (e *LedgerExporter) writeEntriesSheet(f *excelize.File, entries []*entity.LedgerEntry) error {
	const sheet = "Entries"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create entries sheet: %w", err)
	}

	headers := []string{
		"ID", "Appointment", "Type", "Amount", "Direction", "Account",
		"Party type", "Party", "External ref", "Effective", "Quarter",
		"Tax category", "1099", "Reconciled",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		setCell(f, sheet, cell, h)
	}

	for i, entry := range entries {
		row := i + 2
		values := []interface{}{
			entry.ID,
			entry.AppointmentID,
			string(entry.EntryType),
			dollars(entry.AmountCents),
			string(entry.Direction),
			string(entry.AccountType),
			string(entry.PartyType),
			entry.PartyID,
			entry.ExternalRef,
			entry.EffectiveAt.Format("2006-01-02"),
			fmt.Sprintf("Q%d", entry.TaxQuarter),
			string(entry.TaxCategory),
			entry.Form1099Eligible,
			entry.Reconciled,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			setCell(f, sheet, cell, v)
		}
	}
	return nil
}

// write1099Sheet aggregates payout totals per cleaner. A cleaner appears
// when their aggregate payouts for the year cross the reporting threshold,
// even if no single entry did.
func (e *LedgerExporter) write1099Sheet(f *excelize.File, entries []*entity.LedgerEntry) error {
	const sheet = "1099 Cleaners"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create 1099 sheet: %w", err)
	}

	totals := make(map[int64]int64)
	for _, entry := range entries {
		if entry.PartyType == entity.PartyCleaner && entity.TaxCategoryFor(entry.EntryType) == entity.TaxPayout {
			totals[entry.PartyID] += entry.AmountCents
		}
	}

	cleanerIDs := make([]int64, 0, len(totals))
	for id, total := range totals {
		if total >= entity.Form1099ThresholdCents {
			cleanerIDs = append(cleanerIDs, id)
		}
	}
	sort.Slice(cleanerIDs, func(i, j int) bool { return cleanerIDs[i] < cleanerIDs[j] })

	setCell(f, sheet, "A1", "Cleaner ID")
	setCell(f, sheet, "B1", "Total payouts")

	for i, id := range cleanerIDs {
		row := i + 2
		setCell(f, sheet, fmt.Sprintf("A%d", row), id)
		setCell(f, sheet, fmt.Sprintf("B%d", row), dollars(totals[id]))
	}
	return nil
}

func setCell(f *excelize.File, sheet, cell string, value interface{}) {
	// SetCellValue only fails on malformed coordinates, which are all
	// generated here.
	_ = f.SetCellValue(sheet, cell, value)
}

func dollars(cents int64) float64 {
	return float64(cents) / 100
}
