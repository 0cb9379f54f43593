package dto

import "github.com/noah-isme/gds-portal-api/internal/models"

// ConflictCheckRequest is the advisory conflict-detector payload: it runs
// the same overlap query as the scheduling transition without committing.
type ConflictCheckRequest struct {
	Date             string   `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime        string   `json:"start_time" validate:"required,datetime=15:04"`
	EndTime          string   `json:"end_time" validate:"required,datetime=15:04"`
	Venue            string   `json:"venue"`
	ParticipantIDs   []string `json:"participant_ids"`
	ExcludeRequestID string   `json:"exclude_request_id"`
}

// AvailablePanelistsQuery asks who is free for a proposed window.
type AvailablePanelistsQuery struct {
	Date      string `form:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `form:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `form:"end_time" validate:"required,datetime=15:04"`
	ChairOnly bool   `form:"chair_only"`
}

// AvailablePanelistsResponse lists conflict-free panelists for a window.
type AvailablePanelistsResponse struct {
	Panelists []models.Panelist `json:"panelists"`
}
