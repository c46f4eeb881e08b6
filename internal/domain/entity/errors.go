package entity

import "errors"

// Sentinel errors for the conflict engine. Services wrap these with
// fmt.Errorf("%w: ...") so callers can classify failures with errors.Is
// while still receiving a message naming the failed precondition.
var (
	// ErrValidation rejects bad input before any side effect.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound signals a missing case, appointment or user.
	ErrNotFound = errors.New("not found")

	// ErrNotCancelled rejects an appeal on an appointment that was not
	// cancelled.
	ErrNotCancelled = errors.New("appointment is not cancelled")

	// ErrWindowExpired rejects an appeal submitted after the
	// post-cancellation window.
	ErrWindowExpired = errors.New("appeal window has expired")

	// ErrDuplicateOpenAppeal rejects a second open appeal on the same
	// appointment.
	ErrDuplicateOpenAppeal = errors.New("an open appeal already exists for this appointment")

	// ErrInvalidAssignee rejects assignment to a user who cannot review
	// appeals.
	ErrInvalidAssignee = errors.New("assignee cannot review appeals")

	// ErrClosedAppeal rejects mutation of a terminal appeal.
	ErrClosedAppeal = errors.New("appeal is closed")

	// ErrCaseClosed rejects mutation of a terminal or expired adjustment
	// case.
	ErrCaseClosed = errors.New("adjustment case is closed")

	// ErrGateway wraps payment gateway failures for refund and payout
	// calls.
	ErrGateway = errors.New("payment gateway error")
)
