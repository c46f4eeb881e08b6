package entity

import "time"

// EntryDirection is the double-entry side of a ledger entry.
type EntryDirection string

const (
	DirectionCredit EntryDirection = "credit"
	DirectionDebit  EntryDirection = "debit"
)

// IsValid returns true if the direction is credit or debit.
func (d EntryDirection) IsValid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// AccountType is the platform account a ledger entry posts against.
type AccountType string

const (
	AccountRevenue         AccountType = "revenue"
	AccountRefundsPayable  AccountType = "refunds_payable"
	AccountPayoutsPayable  AccountType = "payouts_payable"
	AccountProcessingCosts AccountType = "processing_costs"
	AccountEscrow          AccountType = "escrow"
)

// PartyType identifies whose money a ledger entry concerns.
type PartyType string

const (
	PartyHomeowner PartyType = "homeowner"
	PartyCleaner   PartyType = "cleaner"
	PartyPlatform  PartyType = "platform"
	PartyProcessor PartyType = "processor"
)

// LedgerEntryType is the closed set of financial event categories.
type LedgerEntryType string

const (
	EntryBookingPayment            LedgerEntryType = "booking_payment"
	EntryBookingRevenue            LedgerEntryType = "booking_revenue"
	EntryPlatformFee               LedgerEntryType = "platform_fee"
	EntryCleanerPayout             LedgerEntryType = "cleaner_payout"
	EntryCancellationFee           LedgerEntryType = "cancellation_fee"
	EntryCancellationRefund        LedgerEntryType = "cancellation_refund"
	EntryCancellationPartialRefund LedgerEntryType = "cancellation_partial_refund"
	EntryCancellationPayout        LedgerEntryType = "cancellation_payout"
	EntryProcessorFee              LedgerEntryType = "processor_fee"
	EntryRefund                    LedgerEntryType = "refund"
	EntryFeeReversal               LedgerEntryType = "fee_reversal"
	EntryPayout                    LedgerEntryType = "payout"
	EntrySizeAdjustmentCharge      LedgerEntryType = "size_adjustment_charge"
	EntrySizeAdjustmentCredit      LedgerEntryType = "size_adjustment_credit"
	EntryTipPayout                 LedgerEntryType = "tip_payout"
	EntryBonusPayout               LedgerEntryType = "bonus_payout"
	EntryChargeback                LedgerEntryType = "chargeback"
	EntryChargebackReversal        LedgerEntryType = "chargeback_reversal"
	EntryPromoCredit               LedgerEntryType = "promo_credit"
	EntryReferralCredit            LedgerEntryType = "referral_credit"
)

// TaxCategory buckets entry types for tax reporting.
type TaxCategory string

const (
	TaxIncome  TaxCategory = "income"
	TaxRefund  TaxCategory = "refund"
	TaxPayout  TaxCategory = "payout"
	TaxExpense TaxCategory = "expense"
	TaxOther   TaxCategory = "other"
)

var entryTaxCategories = map[LedgerEntryType]TaxCategory{
	EntryBookingPayment:            TaxIncome,
	EntryBookingRevenue:            TaxIncome,
	EntryPlatformFee:               TaxIncome,
	EntryCancellationFee:           TaxIncome,
	EntryChargebackReversal:        TaxIncome,
	EntryCancellationRefund:        TaxRefund,
	EntryCancellationPartialRefund: TaxRefund,
	EntryRefund:                    TaxRefund,
	EntryFeeReversal:               TaxRefund,
	EntryChargeback:                TaxRefund,
	EntrySizeAdjustmentCredit:      TaxRefund,
	EntryCleanerPayout:             TaxPayout,
	EntryCancellationPayout:        TaxPayout,
	EntryPayout:                    TaxPayout,
	EntryTipPayout:                 TaxPayout,
	EntryBonusPayout:               TaxPayout,
	EntryProcessorFee:              TaxExpense,
	EntrySizeAdjustmentCharge:      TaxOther,
	EntryPromoCredit:               TaxOther,
	EntryReferralCredit:            TaxOther,
}

// TaxCategoryFor returns the fixed tax bucket for an entry type.
// Unknown types map to TaxOther.
func TaxCategoryFor(t LedgerEntryType) TaxCategory {
	if c, ok := entryTaxCategories[t]; ok {
		return c
	}
	return TaxOther
}

// IsValid returns true if the entry type belongs to the closed set.
func (t LedgerEntryType) IsValid() bool {
	_, ok := entryTaxCategories[t]
	return ok
}

// Form1099ThresholdCents is the US contractor tax-reporting threshold ($600).
const Form1099ThresholdCents int64 = 60000

// LedgerEntry is one append-only double-entry accounting fact tied to an
// appointment. Only the reconciliation fields may be mutated after creation.
type LedgerEntry struct {
	ID            int64           `json:"id"`
	AppointmentID int64           `json:"appointment_id"`
	EntryType     LedgerEntryType `json:"entry_type"`
	AmountCents   int64           `json:"amount_cents"`
	Direction     EntryDirection  `json:"direction"`
	AccountType   AccountType     `json:"account_type"`
	PartyType     PartyType       `json:"party_type"`
	PartyID       int64           `json:"party_id"`

	// ExternalRef is the gateway object id this entry reconciles against.
	ExternalRef string `json:"external_ref,omitempty"`

	EffectiveAt time.Time   `json:"effective_at"`
	TaxYear     int         `json:"tax_year"`
	TaxQuarter  int         `json:"tax_quarter"`
	TaxCategory TaxCategory `json:"tax_category"`

	Form1099Eligible bool `json:"form_1099_eligible"`

	// Reconciliation-only fields, the single mutable region of the entry.
	Reconciled       bool       `json:"reconciled"`
	ReconciledAt     *time.Time `json:"reconciled_at,omitempty"`
	DiscrepancyCents int64      `json:"discrepancy_cents"`
	DiscrepancyNote  string     `json:"discrepancy_note,omitempty"`

	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SignedAmount returns the entry amount with credits positive and debits
// negative, the convention used by balance calculation.
func (e *LedgerEntry) SignedAmount() int64 {
	if e.Direction == DirectionDebit {
		return -e.AmountCents
	}
	return e.AmountCents
}

// CleanerShare is one cleaner's slice of a cancellation settlement.
type CleanerShare struct {
	CleanerID        int64 `json:"cleaner_id"`
	PayoutCents      int64 `json:"payout_cents"`
	PlatformFeeCents int64 `json:"platform_fee_cents"`
}

// CancellationDetails carries everything needed to post the atomic set of
// ledger entries for a cancelled appointment.
type CancellationDetails struct {
	HomeownerID          int64          `json:"homeowner_id"`
	OriginalAmountCents  int64          `json:"original_amount_cents"`
	RefundAmountCents    int64          `json:"refund_amount_cents"`
	CancellationFeeCents int64          `json:"cancellation_fee_cents"`
	ProcessorFeeCents    int64          `json:"processor_fee_cents"`
	PaymentRef           string         `json:"payment_ref,omitempty"`
	CleanerShares        []CleanerShare `json:"cleaner_shares,omitempty"`
	EffectiveAt          time.Time      `json:"effective_at"`
}

// EntryTypeSummary is the per-type bucket inside a ledger summary.
type EntryTypeSummary struct {
	Count      int   `json:"count"`
	TotalCents int64 `json:"total_cents"`
}

// LedgerSummary rolls up a set of ledger entries for reporting.
type LedgerSummary struct {
	ByType             map[LedgerEntryType]EntryTypeSummary `json:"by_type"`
	TotalRevenueCents  int64                                `json:"total_revenue_cents"`
	TotalRefundsCents  int64                                `json:"total_refunds_cents"`
	TotalPayoutsCents  int64                                `json:"total_payouts_cents"`
	NetPlatformRevenue int64                                `json:"net_platform_revenue_cents"`
}

// ReconcileResult reports the outcome of one reconciliation batch.
type ReconcileResult struct {
	Matched    int `json:"matched"`
	Mismatched int `json:"mismatched"`
	Errors     int `json:"errors"`
	Batch      int `json:"batch"`
}
