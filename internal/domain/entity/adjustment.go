package entity

import "time"

// AdjustmentStatus tracks the lifecycle of a home-size billing dispute.
type AdjustmentStatus string

const (
	AdjustmentPendingHomeowner AdjustmentStatus = "pending_homeowner"
	AdjustmentPendingOwner     AdjustmentStatus = "pending_owner"
	AdjustmentApproved         AdjustmentStatus = "approved"
	AdjustmentDenied           AdjustmentStatus = "denied"
	AdjustmentOwnerApproved    AdjustmentStatus = "owner_approved"
	AdjustmentOwnerDenied      AdjustmentStatus = "owner_denied"
	AdjustmentExpired          AdjustmentStatus = "expired"
)

var adjustmentTerminalStatuses = map[AdjustmentStatus]bool{
	AdjustmentApproved:      true,
	AdjustmentDenied:        true,
	AdjustmentOwnerApproved: true,
	AdjustmentOwnerDenied:   true,
	AdjustmentExpired:       true,
}

// IsTerminal returns true once the case has been decided or has expired;
// terminal cases are immutable.
func (s AdjustmentStatus) IsTerminal() bool {
	return adjustmentTerminalStatuses[s]
}

// String returns the string representation of the status.
func (s AdjustmentStatus) String() string {
	return string(s)
}

// AdjustmentCase is a dispute over home-size-based repricing: the cleaner
// reported a different home size than the homeowner declared at booking.
type AdjustmentCase struct {
	ID            int64  `json:"id"`
	AppointmentID int64  `json:"appointment_id"`
	CleanerID     int64  `json:"cleaner_id"`
	HomeownerID   int64  `json:"homeowner_id"`
	AssignedTo    *int64 `json:"assigned_to,omitempty"`

	OriginalSize string `json:"original_size"`
	ReportedSize string `json:"reported_size"`

	// PriceDeltaCents is the computed price difference: positive means the
	// homeowner owes more, negative means a credit back.
	PriceDeltaCents int64 `json:"price_delta_cents"`

	Status    AdjustmentStatus `json:"status"`
	ExpiresAt time.Time        `json:"expires_at"`

	ResolvedBy      *int64     `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsExpired reports whether a still-pending case has outlived its response
// window. Expiry is derived from the clock, never written as a transition.
func (c *AdjustmentCase) IsExpired(now time.Time) bool {
	return !c.Status.IsTerminal() && now.After(c.ExpiresAt)
}

// EffectiveStatus folds derived expiry into the stored status for reads.
func (c *AdjustmentCase) EffectiveStatus(now time.Time) AdjustmentStatus {
	if c.IsExpired(now) {
		return AdjustmentExpired
	}
	return c.Status
}
