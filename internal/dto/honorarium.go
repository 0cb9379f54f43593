package dto

import "github.com/noah-isme/gds-portal-api/internal/models"

// UpdatePaymentStatusRequest advances an honorarium record through
// pending, verified and released.
type UpdatePaymentStatusRequest struct {
	Status models.PaymentStatus `json:"status" validate:"required,oneof=PENDING VERIFIED RELEASED"`
}

// HonorariumQuery captures honorarium listing filters.
type HonorariumQuery struct {
	DefenseRequestID string `form:"defense_request_id"`
	PayeeID          string `form:"payee_id"`
	Status           string `form:"status"`
	DefenseType      string `form:"defense_type"`
	Page             int    `form:"page"`
	PageSize         int    `form:"limit"`
}

// CreatePanelistRequest registers a panelist-eligible faculty member.
type CreatePanelistRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
	CanChair   bool   `json:"can_chair"`
}

// UpdatePanelistRequest updates a panelist's roster entry.
type UpdatePanelistRequest struct {
	FullName   string `json:"full_name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Department string `json:"department" validate:"required"`
	CanChair   bool   `json:"can_chair"`
	Active     bool   `json:"active"`
}
