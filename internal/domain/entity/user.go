package entity

import "time"

// User is the slice of a platform account this engine needs: role, payout
// destination, moderation flags and the attached scrutiny profile. Account
// CRUD and PII handling are upstream concerns.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`

	// PayoutDestination is the gateway destination reference for cleaners;
	// empty when no payable destination is on file.
	PayoutDestination string `json:"payout_destination,omitempty"`

	Frozen   bool `json:"frozen"`
	Warnings int  `json:"warnings"`

	Scrutiny *ScrutinyProfile `json:"scrutiny,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScrutinyLevel returns the user's current risk tier, defaulting to none
// when no profile has been computed yet.
func (u *User) ScrutinyLevel() ScrutinyLevel {
	if u.Scrutiny == nil {
		return ScrutinyNone
	}
	return u.Scrutiny.Level
}
