package entity

import (
	"fmt"
	"time"
)

// Party is one person attached to a normalized conflict case.
type Party struct {
	ID   int64  `json:"id"`
	Role Role   `json:"role"`
	Name string `json:"name,omitempty"`
}

// ConflictCase is the single shape the queue exposes for both appeals and
// adjustment cases.
type ConflictCase struct {
	ID         int64    `json:"id"`
	CaseType   CaseType `json:"case_type"`
	CaseNumber string   `json:"case_number"`
	Status     string   `json:"status"`
	Priority   Priority `json:"priority"`

	SLADeadline *time.Time `json:"sla_deadline,omitempty"`
	IsPastSLA   bool       `json:"is_past_sla"`

	Parties              []Party `json:"parties"`
	FinancialImpactCents int64   `json:"financial_impact_cents"`

	Description string    `json:"description,omitempty"`
	AssignedTo  *int64    `json:"assigned_to,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Case number prefixes surfaced to the outside world.
const (
	appealCasePrefix     = "APL"
	adjustmentCasePrefix = "ADJ"
)

// AppealCaseNumber formats an appeal id as its external case number.
func AppealCaseNumber(id int64) string {
	return fmt.Sprintf("%s-%06d", appealCasePrefix, id)
}

// AdjustmentCaseNumber formats an adjustment case id as its external case number.
func AdjustmentCaseNumber(id int64) string {
	return fmt.Sprintf("%s-%06d", adjustmentCasePrefix, id)
}

// NormalizeAppeal converts an appeal into the shared queue shape. Party
// names are resolved by the caller via the names map; missing ids are left
// blank rather than failing the whole listing.
func NormalizeAppeal(a *Appeal, names map[int64]string, now time.Time) ConflictCase {
	deadline := a.SLADeadline
	var impact int64
	for _, item := range DecodeContestedItems(a.ContestedItems) {
		impact += item.AmountCents
	}
	return ConflictCase{
		ID:          a.ID,
		CaseType:    CaseTypeAppeal,
		CaseNumber:  AppealCaseNumber(a.ID),
		Status:      a.Status.String(),
		Priority:    a.Priority,
		SLADeadline: &deadline,
		IsPastSLA:   now.After(deadline),
		Parties: []Party{
			{ID: a.AppealerID, Role: a.AppealerRole, Name: names[a.AppealerID]},
		},
		FinancialImpactCents: impact,
		Description:          a.Description,
		AssignedTo:           a.AssignedTo,
		SubmittedAt:          a.SubmittedAt,
	}
}

// NormalizeAdjustment converts an adjustment case into the shared queue
// shape. Adjustment cases carry no reporter-declared severity so they enter
// the queue at normal priority; their response window doubles as the SLA.
func NormalizeAdjustment(c *AdjustmentCase, names map[int64]string, now time.Time) ConflictCase {
	deadline := c.ExpiresAt
	impact := c.PriceDeltaCents
	if impact < 0 {
		impact = -impact
	}
	return ConflictCase{
		ID:          c.ID,
		CaseType:    CaseTypeAdjustment,
		CaseNumber:  AdjustmentCaseNumber(c.ID),
		Status:      c.EffectiveStatus(now).String(),
		Priority:    PriorityNormal,
		SLADeadline: &deadline,
		IsPastSLA:   now.After(deadline),
		Parties: []Party{
			{ID: c.HomeownerID, Role: RoleHomeowner, Name: names[c.HomeownerID]},
			{ID: c.CleanerID, Role: RoleCleaner, Name: names[c.CleanerID]},
		},
		FinancialImpactCents: impact,
		Description:          fmt.Sprintf("home size %s reported as %s", c.OriginalSize, c.ReportedSize),
		AssignedTo:           c.AssignedTo,
		SubmittedAt:          c.CreatedAt,
	}
}
