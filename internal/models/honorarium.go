package models

import "time"

// PanelRole identifies the capacity a payee served in during a defense.
type PanelRole string

const (
	PanelRoleChairperson PanelRole = "CHAIRPERSON"
	PanelRolePanelist    PanelRole = "PANELIST"
	PanelRoleAdviser     PanelRole = "ADVISER"
)

// PaymentStatus tracks honorarium verification and release.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentVerified PaymentStatus = "VERIFIED"
	PaymentReleased PaymentStatus = "RELEASED"
)

// HonorariumRecord is one payable line item generated when a defense
// completes: one row per panel member and the adviser.
type HonorariumRecord struct {
	ID               string        `db:"id" json:"id"`
	DefenseRequestID string        `db:"defense_request_id" json:"defense_request_id"`
	PayeeID          string        `db:"payee_id" json:"payee_id"`
	PayeeName        string        `db:"payee_name" json:"payee_name"`
	Role             PanelRole     `db:"role" json:"role"`
	DefenseType      DefenseType   `db:"defense_type" json:"defense_type"`
	Amount           int64         `db:"amount" json:"amount"`
	Status           PaymentStatus `db:"status" json:"status"`
	VerifiedAt       *time.Time    `db:"verified_at" json:"verified_at,omitempty"`
	ReleasedAt       *time.Time    `db:"released_at" json:"released_at,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updated_at"`
}

// HonorariumFilter captures filters for listing honorarium records.
type HonorariumFilter struct {
	DefenseRequestID string
	PayeeID          string
	Status           PaymentStatus
	DefenseType      DefenseType
	Page             int
	PageSize         int
}
