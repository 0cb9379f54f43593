package models

import (
	"fmt"
	"time"
)

// WorkflowState is the position of a defense request in its
// approval/scheduling lifecycle. The set is closed; transitions are
// validated by the workflow service against the authorizer edge table.
type WorkflowState string

const (
	StateSubmitted           WorkflowState = "submitted"
	StateAdviserReview       WorkflowState = "adviser-review"
	StateAdviserApproved     WorkflowState = "adviser-approved"
	StateCoordinatorReview   WorkflowState = "coordinator-review"
	StateCoordinatorApproved WorkflowState = "coordinator-approved"
	StatePanelsAssigned      WorkflowState = "panels-assigned"
	StateScheduled           WorkflowState = "scheduled"
	StateCompleted           WorkflowState = "completed"
	StateAdviserRejected     WorkflowState = "adviser-rejected"
	StateCoordinatorRejected WorkflowState = "coordinator-rejected"
)

// WorkflowStates lists every valid state.
var WorkflowStates = []WorkflowState{
	StateSubmitted,
	StateAdviserReview,
	StateAdviserApproved,
	StateCoordinatorReview,
	StateCoordinatorApproved,
	StatePanelsAssigned,
	StateScheduled,
	StateCompleted,
	StateAdviserRejected,
	StateCoordinatorRejected,
}

// Valid reports whether the state belongs to the closed set.
func (s WorkflowState) Valid() bool {
	for _, state := range WorkflowStates {
		if s == state {
			return true
		}
	}
	return false
}

// Terminal reports whether no further workflow mutation is allowed
// (audit and report reads only).
func (s WorkflowState) Terminal() bool {
	return s == StateCompleted || s == StateAdviserRejected || s == StateCoordinatorRejected
}

// Rejection reports whether the state is one of the rejection branches.
func (s WorkflowState) Rejection() bool {
	return s == StateAdviserRejected || s == StateCoordinatorRejected
}

// DefenseType enumerates the defense variants.
type DefenseType string

const (
	DefenseProposal DefenseType = "Proposal"
	DefensePrefinal DefenseType = "Prefinal"
	DefenseFinal    DefenseType = "Final"
)

// Valid reports whether the defense type is known.
func (t DefenseType) Valid() bool {
	return t == DefenseProposal || t == DefensePrefinal || t == DefenseFinal
}

// DefenseMode enumerates how a defense is held.
type DefenseMode string

const (
	ModeFaceToFace DefenseMode = "Face-to-Face"
	ModeOnline     DefenseMode = "Online"
)

// Valid reports whether the mode is known.
func (m DefenseMode) Valid() bool {
	return m == ModeFaceToFace || m == ModeOnline
}

// ReviewStatus is the tri-state adviser/coordinator review outcome.
// It is causally linked to but independent of WorkflowState, so "pending"
// is a real value rather than an inferred absence.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "PENDING"
	ReviewApproved ReviewStatus = "APPROVED"
	ReviewRejected ReviewStatus = "REJECTED"
)

// MaxPanelists is the number of panelist slots besides the chairperson.
const MaxPanelists = 4

// DefenseRequest is the central workflow entity.
type DefenseRequest struct {
	ID string `db:"id" json:"id"`

	// Subject fields.
	StudentFirstName  string      `db:"student_first_name" json:"student_first_name"`
	StudentMiddleName *string     `db:"student_middle_name" json:"student_middle_name,omitempty"`
	StudentLastName   string      `db:"student_last_name" json:"student_last_name"`
	SchoolID          string      `db:"school_id" json:"school_id"`
	Program           string      `db:"program" json:"program"`
	ThesisTitle       string      `db:"thesis_title" json:"thesis_title"`
	DefenseType       DefenseType `db:"defense_type" json:"defense_type"`

	// Workflow fields.
	WorkflowState     WorkflowState `db:"workflow_state" json:"workflow_state"`
	Status            string        `db:"status" json:"status"`
	Priority          int           `db:"priority" json:"priority"`
	AdviserStatus     ReviewStatus  `db:"adviser_status" json:"adviser_status"`
	CoordinatorStatus ReviewStatus  `db:"coordinator_status" json:"coordinator_status"`
	RejectReason      *string       `db:"reject_reason" json:"reject_reason,omitempty"`

	// Assignment fields. Panel slots are ranked; nil means unassigned.
	AdviserID     *string `db:"adviser_id" json:"adviser_id,omitempty"`
	CoordinatorID *string `db:"coordinator_id" json:"coordinator_id,omitempty"`
	ChairpersonID *string `db:"chairperson_id" json:"chairperson_id,omitempty"`
	Panelist1ID   *string `db:"panelist1_id" json:"panelist1_id,omitempty"`
	Panelist2ID   *string `db:"panelist2_id" json:"panelist2_id,omitempty"`
	Panelist3ID   *string `db:"panelist3_id" json:"panelist3_id,omitempty"`
	Panelist4ID   *string `db:"panelist4_id" json:"panelist4_id,omitempty"`

	// Scheduling fields. Set only in panels-assigned and later states.
	ScheduledDate    *time.Time   `db:"scheduled_date" json:"scheduled_date,omitempty"`
	ScheduledTime    *string      `db:"scheduled_time" json:"scheduled_time,omitempty"`
	ScheduledEndTime *string      `db:"scheduled_end_time" json:"scheduled_end_time,omitempty"`
	DefenseMode      *DefenseMode `db:"defense_mode" json:"defense_mode,omitempty"`
	DefenseVenue     *string      `db:"defense_venue" json:"defense_venue,omitempty"`

	// Audit fields.
	SubmittedAt           time.Time  `db:"submitted_at" json:"submitted_at"`
	AdviserReviewedAt     *time.Time `db:"adviser_reviewed_at" json:"adviser_reviewed_at,omitempty"`
	CoordinatorReviewedAt *time.Time `db:"coordinator_reviewed_at" json:"coordinator_reviewed_at,omitempty"`
	PanelsAssignedAt      *time.Time `db:"panels_assigned_at" json:"panels_assigned_at,omitempty"`
	ScheduledAt           *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	CompletedAt           *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// StudentName returns the display name of the student.
func (r *DefenseRequest) StudentName() string {
	if r.StudentMiddleName != nil && *r.StudentMiddleName != "" {
		return fmt.Sprintf("%s %s %s", r.StudentFirstName, *r.StudentMiddleName, r.StudentLastName)
	}
	return fmt.Sprintf("%s %s", r.StudentFirstName, r.StudentLastName)
}

// PanelMemberIDs returns the assigned roster (chairperson first), skipping
// empty slots.
func (r *DefenseRequest) PanelMemberIDs() []string {
	slots := []*string{r.ChairpersonID, r.Panelist1ID, r.Panelist2ID, r.Panelist3ID, r.Panelist4ID}
	members := make([]string, 0, len(slots))
	for _, slot := range slots {
		if slot != nil && *slot != "" {
			members = append(members, *slot)
		}
	}
	return members
}

// ParticipantIDs returns everyone whose availability matters for
// scheduling: the adviser plus the panel roster.
func (r *DefenseRequest) ParticipantIDs() []string {
	ids := r.PanelMemberIDs()
	if r.AdviserID != nil && *r.AdviserID != "" {
		ids = append(ids, *r.AdviserID)
	}
	return ids
}

// ScheduledWindow combines the scheduled date and time fields into
// concrete instants. ok is false while the request is unscheduled.
func (r *DefenseRequest) ScheduledWindow() (start, end time.Time, ok bool) {
	if r.ScheduledDate == nil || r.ScheduledTime == nil || r.ScheduledEndTime == nil {
		return time.Time{}, time.Time{}, false
	}
	start, err := combineDateTime(*r.ScheduledDate, *r.ScheduledTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = combineDateTime(*r.ScheduledDate, *r.ScheduledEndTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func combineDateTime(date time.Time, clock string) (time.Time, error) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, date.Location()), nil
}

// DisplayStatusFor maps a workflow state onto the coarse display status
// shown in request listings.
func DisplayStatusFor(state WorkflowState) string {
	switch state {
	case StateSubmitted:
		return "Pending"
	case StateAdviserReview, StateCoordinatorReview:
		return "In Review"
	case StateAdviserApproved, StateCoordinatorApproved, StatePanelsAssigned:
		return "Approved"
	case StateScheduled:
		return "Scheduled"
	case StateCompleted:
		return "Completed"
	case StateAdviserRejected, StateCoordinatorRejected:
		return "Rejected"
	default:
		return string(state)
	}
}

// DefenseRequestFilter describes query params for listing requests.
type DefenseRequestFilter struct {
	WorkflowState WorkflowState
	DefenseType   DefenseType
	AdviserID     string
	CoordinatorID string
	Program       string
	Search        string
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}
