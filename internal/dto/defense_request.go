package dto

import "github.com/noah-isme/gds-portal-api/internal/models"

// CreateDefenseRequestRequest is the student/adviser submission payload.
type CreateDefenseRequestRequest struct {
	StudentFirstName  string             `json:"student_first_name" validate:"required"`
	StudentMiddleName string             `json:"student_middle_name"`
	StudentLastName   string             `json:"student_last_name" validate:"required"`
	SchoolID          string             `json:"school_id" validate:"required"`
	Program           string             `json:"program" validate:"required"`
	ThesisTitle       string             `json:"thesis_title" validate:"required"`
	DefenseType       models.DefenseType `json:"defense_type" validate:"required,oneof=Proposal Prefinal Final"`
	AdviserID         string             `json:"adviser_id" validate:"required"`
	Priority          int                `json:"priority" validate:"gte=0"`
}

// SchedulePayload carries the fields required by the transition into the
// scheduled state.
type SchedulePayload struct {
	Date      string             `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string             `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string             `json:"end_time" validate:"required,datetime=15:04"`
	Mode      models.DefenseMode `json:"mode" validate:"required,oneof=Face-to-Face Online"`
	Venue     string             `json:"venue"`
}

// PanelRosterPayload carries the proposed panel composition. A missing
// chairperson is reported by roster validation, not as a payload error, so
// composition defects surface together.
type PanelRosterPayload struct {
	ChairpersonID string   `json:"chairperson_id"`
	PanelistIDs   []string `json:"panelist_ids" validate:"max=4"`
}

// TransitionRequest is the body of a single state transition. ExpectedState
// is the optimistic concurrency token: when set, the transition fails if
// another writer moved the request first.
type TransitionRequest struct {
	TargetState   models.WorkflowState `json:"target_state" validate:"required"`
	ExpectedState models.WorkflowState `json:"expected_state"`
	Reason        string               `json:"reason"`
	Schedule      *SchedulePayload     `json:"schedule,omitempty"`
	Panels        *PanelRosterPayload  `json:"panels,omitempty"`
}

// BulkTransitionRequest applies one target transition to many requests.
type BulkTransitionRequest struct {
	IDs         []string             `json:"ids" validate:"required,min=1,dive,required"`
	TargetState models.WorkflowState `json:"target_state" validate:"required"`
	Reason      string               `json:"reason"`
}

// BulkIDsRequest is the body of the named bulk operations.
type BulkIDsRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,required"`
	Reason string   `json:"reason"`
}

// Bulk item outcomes.
const (
	OutcomeSuccess = "Success"
	OutcomeFailed  = "Failed"
)

// BulkItemResult reports the outcome for one id in a bulk operation.
type BulkItemResult struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Code    string `json:"code,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// BulkResult summarises a bulk operation. The call as a whole succeeds even
// with partial failures; callers inspect the per-item results.
type BulkResult struct {
	Results   []BulkItemResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// DefenseRequestItem is the list/detail projection of a request.
type DefenseRequestItem struct {
	models.DefenseRequest
	StudentName string `json:"student_name"`
}

// NewDefenseRequestItem builds the projection for responses.
func NewDefenseRequestItem(r models.DefenseRequest) DefenseRequestItem {
	return DefenseRequestItem{DefenseRequest: r, StudentName: r.StudentName()}
}
