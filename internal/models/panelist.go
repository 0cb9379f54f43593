package models

import "time"

// Panelist is a faculty member eligible to sit on defense panels.
type Panelist struct {
	ID         string    `db:"id" json:"id"`
	FullName   string    `db:"full_name" json:"full_name"`
	Email      string    `db:"email" json:"email"`
	Department string    `db:"department" json:"department"`
	CanChair   bool      `db:"can_chair" json:"can_chair"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// PanelistFilter captures filters for listing panelists.
type PanelistFilter struct {
	Department string
	Active     *bool
	CanChair   *bool
	Search     string
	Page       int
	PageSize   int
}

// PanelViolation is one specific defect in a proposed panel roster.
// Validation returns the full list so a caller can report every defect at
// once.
type PanelViolation struct {
	Slot    string `json:"slot"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Panel violation codes.
const (
	ViolationMissingChair    = "MISSING_CHAIRPERSON"
	ViolationDuplicateMember = "DUPLICATE_MEMBER"
	ViolationAdviserOnPanel  = "ADVISER_ON_PANEL"
	ViolationUnknownMember   = "UNKNOWN_MEMBER"
	ViolationInactiveMember  = "INACTIVE_MEMBER"
	ViolationNotChairEligible = "NOT_CHAIR_ELIGIBLE"
	ViolationTooManyMembers  = "TOO_MANY_MEMBERS"
)

// PanelValidationError carries the violation list for a rejected roster.
type PanelValidationError struct {
	Violations []PanelViolation `json:"violations"`
}

// Error implements the error interface.
func (e *PanelValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return "panel composition is invalid"
}
