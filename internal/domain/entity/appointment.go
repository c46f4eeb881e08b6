package entity

import "time"

// Appointment is the slice of a cleaning appointment this engine reads and
// writes: cancellation state, the gateway payment reference, the running
// refund total and the open-appeal flag. Booking mechanics live elsewhere.
type Appointment struct {
	ID          int64 `json:"id"`
	HomeownerID int64 `json:"homeowner_id"`

	PriceCents int64 `json:"price_cents"`

	Cancelled   bool       `json:"cancelled"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// PaymentRef is the external gateway charge reference; required before
	// any refund can be executed.
	PaymentRef string `json:"payment_ref,omitempty"`

	RefundTotalCents int64 `json:"refund_total_cents"`
	HasOpenAppeal    bool  `json:"has_open_appeal"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppealDeadline returns the end of the post-cancellation appeal window,
// or the zero time when the appointment has not been cancelled.
func (a *Appointment) AppealDeadline() time.Time {
	if a.CancelledAt == nil {
		return time.Time{}
	}
	return a.CancelledAt.Add(AppealWindow)
}
