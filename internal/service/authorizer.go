package service

import (
	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

// TransitionEdge is one directed move in the workflow state machine.
type TransitionEdge struct {
	From models.WorkflowState
	To   models.WorkflowState
}

// RoleAuthorizer owns the complete (fromState, toState) -> allowedRoles
// table so the edge set stays auditable in one place instead of being
// re-derived per call site.
type RoleAuthorizer struct {
	edges     map[TransitionEdge][]models.UserRole
	shortcuts map[TransitionEdge]bool
	reverts   map[models.WorkflowState]models.WorkflowState
}

// NewRoleAuthorizer builds the authorizer with the portal's edge table.
func NewRoleAuthorizer() *RoleAuthorizer {
	coordinators := []models.UserRole{models.RoleCoordinator, models.RoleAdmin}
	advisers := []models.UserRole{models.RoleAdviser, models.RoleAdmin}
	executives := []models.UserRole{models.RoleDean, models.RoleRegistrar, models.RoleAdmin}
	closers := []models.UserRole{models.RoleCoordinator, models.RoleDean, models.RoleAdmin}
	retrievers := []models.UserRole{models.RoleCoordinator, models.RoleRegistrar, models.RoleAdmin}

	edges := map[TransitionEdge][]models.UserRole{
		// Forward path.
		{models.StateSubmitted, models.StateAdviserReview}:            advisers,
		{models.StateAdviserReview, models.StateAdviserApproved}:      advisers,
		{models.StateAdviserApproved, models.StateCoordinatorReview}:  coordinators,
		{models.StateCoordinatorReview, models.StateCoordinatorApproved}: {models.RoleCoordinator, models.RoleDean, models.RoleRegistrar, models.RoleAdmin},
		{models.StateCoordinatorApproved, models.StatePanelsAssigned}: coordinators,
		{models.StatePanelsAssigned, models.StateScheduled}:           coordinators,
		{models.StateScheduled, models.StateCompleted}:                closers,

		// Rejection branches.
		{models.StateAdviserReview, models.StateAdviserRejected}:         advisers,
		{models.StateCoordinatorReview, models.StateCoordinatorRejected}: coordinators,

		// Authorized shortcut: approve straight through to
		// coordinator-approved. The workflow service re-validates every
		// invariant the skipped edges would have checked.
		{models.StateSubmitted, models.StateCoordinatorApproved}:     executives,
		{models.StateAdviserReview, models.StateCoordinatorApproved}: executives,

		// Retrieve: return a request to submitted so the student can
		// amend and resubmit.
		{models.StateAdviserReview, models.StateSubmitted}:       retrievers,
		{models.StateCoordinatorReview, models.StateSubmitted}:   retrievers,
		{models.StateAdviserRejected, models.StateSubmitted}:     retrievers,
		{models.StateCoordinatorRejected, models.StateSubmitted}: retrievers,

		// Reschedule keeps the state but reruns the scheduling edge checks.
		{models.StateScheduled, models.StateScheduled}: coordinators,
	}

	shortcuts := map[TransitionEdge]bool{
		{models.StateSubmitted, models.StateCoordinatorApproved}:     true,
		{models.StateAdviserReview, models.StateCoordinatorApproved}: true,
	}

	reverts := map[models.WorkflowState]models.WorkflowState{
		models.StateAdviserRejected:     models.StateAdviserReview,
		models.StateCoordinatorRejected: models.StateCoordinatorReview,
	}

	return &RoleAuthorizer{edges: edges, shortcuts: shortcuts, reverts: reverts}
}

// Authorize checks that the edge exists and the acting role may take it.
// The edge check runs first: an undefined edge is an invalid transition
// regardless of who asks.
func (a *RoleAuthorizer) Authorize(from, to models.WorkflowState, role models.UserRole) error {
	roles, ok := a.edges[TransitionEdge{From: from, To: to}]
	if !ok {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move from "+string(from)+" to "+string(to))
	}
	for _, allowed := range roles {
		if role == allowed {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrForbidden, string(role)+" may not perform this transition")
}

// AllowedTargets lists the states the given role may move a request to
// from its current state.
func (a *RoleAuthorizer) AllowedTargets(from models.WorkflowState, role models.UserRole) []models.WorkflowState {
	var targets []models.WorkflowState
	for edge, roles := range a.edges {
		if edge.From != from {
			continue
		}
		for _, allowed := range roles {
			if role == allowed {
				targets = append(targets, edge.To)
				break
			}
		}
	}
	return targets
}

// IsShortcut reports whether the edge skips intermediate review states and
// therefore requires re-validating the skipped invariants.
func (a *RoleAuthorizer) IsShortcut(from, to models.WorkflowState) bool {
	return a.shortcuts[TransitionEdge{From: from, To: to}]
}

// RevertTarget returns the state a rejection reverts to, if defined.
func (a *RoleAuthorizer) RevertTarget(from models.WorkflowState) (models.WorkflowState, bool) {
	to, ok := a.reverts[from]
	return to, ok
}

// AuthorizeRevert checks the acting role may revert a rejection.
func (a *RoleAuthorizer) AuthorizeRevert(role models.UserRole) error {
	if !role.IsExecutive() {
		return appErrors.Clone(appErrors.ErrForbidden, string(role)+" may not revert a review decision")
	}
	return nil
}
