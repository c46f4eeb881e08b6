package entity

// Role identifies the capacity a user acts in.
type Role string

const (
	RoleHomeowner Role = "homeowner"
	RoleCleaner   Role = "cleaner"
	RoleHR        Role = "hr"
	RoleOwner     Role = "owner"
	RoleSystem    Role = "system"
)

// CanReviewAppeals reports whether the role is allowed to be assigned appeals.
func (r Role) CanReviewAppeals() bool {
	return r == RoleHR || r == RoleOwner
}

// CaseType distinguishes the two dispute record shapes in the conflict queue.
type CaseType string

const (
	CaseTypeAppeal     CaseType = "appeal"
	CaseTypeAdjustment CaseType = "adjustment"
)

// IsValid returns true if the case type is one of the two modeled types.
func (c CaseType) IsValid() bool {
	return c == CaseTypeAppeal || c == CaseTypeAdjustment
}

// Priority orders cases in the conflict queue.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
)

// Rank returns the sort weight of the priority, lower sorts first.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	default:
		return 2
	}
}

// Severity is the reporter-declared seriousness of an appeal.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var validSeverities = map[Severity]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

// IsValid returns true if the severity is a known value.
func (s Severity) IsValid() bool {
	return validSeverities[s]
}

// AppealCategory classifies what the appeal contests.
type AppealCategory string

const (
	CategoryCancellationFee AppealCategory = "cancellation_fee"
	CategoryServiceQuality  AppealCategory = "service_quality"
	CategoryBehavior        AppealCategory = "behavior"
	CategoryBilling         AppealCategory = "billing"
	CategoryOther           AppealCategory = "other"
)

var validCategories = map[AppealCategory]bool{
	CategoryCancellationFee: true,
	CategoryServiceQuality:  true,
	CategoryBehavior:        true,
	CategoryBilling:         true,
	CategoryOther:           true,
}

// IsValid returns true if the category is a known value.
func (c AppealCategory) IsValid() bool {
	return validCategories[c]
}

// Decision is the reviewer's resolution verdict on an appeal.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionPartial Decision = "partial"
	DecisionDeny    Decision = "deny"
)

// IsValid returns true if the decision is a known value.
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionPartial || d == DecisionDeny
}

// ResolutionActionType enumerates the moderation and monetary actions a
// reviewer can attach to an appeal resolution.
type ResolutionActionType string

const (
	ActionRefund          ResolutionActionType = "refund"
	ActionFeeReversal     ResolutionActionType = "fee_reversal"
	ActionUnfreezeAccount ResolutionActionType = "unfreeze_account"
	ActionClearFlags      ResolutionActionType = "clear_flags"
)

// IsMonetary reports whether the action moves money through the gateway.
func (a ResolutionActionType) IsMonetary() bool {
	return a == ActionRefund || a == ActionFeeReversal
}

// ResolutionAction is one action applied as part of an appeal resolution.
type ResolutionAction struct {
	Type        ResolutionActionType `json:"type"`
	AmountCents int64                `json:"amount_cents,omitempty"`
}
