package entity

import "time"

// ScrutinyLevel is the computed abuse-risk tier of a user.
type ScrutinyLevel string

const (
	ScrutinyNone     ScrutinyLevel = "none"
	ScrutinyWatch    ScrutinyLevel = "watch"
	ScrutinyHighRisk ScrutinyLevel = "high_risk"
)

// ScrutinyWindow is the rolling window scrutiny is computed over.
const ScrutinyWindow = 6 * 30 * 24 * time.Hour

// ScrutinyProfile is derived from a user's appeal history. It is recomputed
// as a pure function of history after every appeal resolution, never
// incrementally mutated.
type ScrutinyProfile struct {
	UserID int64         `json:"user_id"`
	Level  ScrutinyLevel `json:"level"`
	Reason string        `json:"reason,omitempty"`

	// Rolling 6-month counts.
	RecentAppeals int `json:"recent_appeals"`
	RecentDenials int `json:"recent_denials"`

	// CategoryCounts is stored as a JSON object of category -> count.
	CategoryCounts string  `json:"category_counts,omitempty"`
	ApprovalRate   float64 `json:"approval_rate"`

	ComputedAt time.Time `json:"computed_at"`
}

// ComputeScrutinyLevel applies the fixed thresholds to rolling counts.
func ComputeScrutinyLevel(recentAppeals, recentDenials int) (ScrutinyLevel, string) {
	switch {
	case recentAppeals >= 5:
		return ScrutinyHighRisk, "5 or more appeals in 6 months"
	case recentDenials >= 3:
		return ScrutinyHighRisk, "3 or more denied appeals in 6 months"
	case recentAppeals >= 3:
		return ScrutinyWatch, "3 or more appeals in 6 months"
	case recentDenials >= 2:
		return ScrutinyWatch, "2 or more denied appeals in 6 months"
	default:
		return ScrutinyNone, ""
	}
}
