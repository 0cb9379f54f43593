package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gds-portal-api/internal/models"
	appErrors "github.com/noah-isme/gds-portal-api/pkg/errors"
)

func TestRoleAuthorizerForwardPath(t *testing.T) {
	auth := NewRoleAuthorizer()

	cases := []struct {
		name string
		from models.WorkflowState
		to   models.WorkflowState
		role models.UserRole
	}{
		{"adviser claims", models.StateSubmitted, models.StateAdviserReview, models.RoleAdviser},
		{"adviser approves", models.StateAdviserReview, models.StateAdviserApproved, models.RoleAdviser},
		{"coordinator claims", models.StateAdviserApproved, models.StateCoordinatorReview, models.RoleCoordinator},
		{"coordinator approves", models.StateCoordinatorReview, models.StateCoordinatorApproved, models.RoleCoordinator},
		{"dean approves", models.StateCoordinatorReview, models.StateCoordinatorApproved, models.RoleDean},
		{"coordinator assigns panels", models.StateCoordinatorApproved, models.StatePanelsAssigned, models.RoleCoordinator},
		{"coordinator schedules", models.StatePanelsAssigned, models.StateScheduled, models.RoleCoordinator},
		{"dean completes", models.StateScheduled, models.StateCompleted, models.RoleDean},
		{"admin anywhere", models.StateSubmitted, models.StateAdviserReview, models.RoleAdmin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NoError(t, auth.Authorize(tc.from, tc.to, tc.role))
		})
	}
}

func TestRoleAuthorizerUndefinedEdge(t *testing.T) {
	auth := NewRoleAuthorizer()

	err := auth.Authorize(models.StateSubmitted, models.StateScheduled, models.RoleAdmin)
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, typed.Code)
}

func TestRoleAuthorizerWrongRole(t *testing.T) {
	auth := NewRoleAuthorizer()

	err := auth.Authorize(models.StateAdviserReview, models.StateAdviserApproved, models.RoleStudent)
	require.Error(t, err)
	var typed *appErrors.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrForbidden.Code, typed.Code)

	err = auth.Authorize(models.StateCoordinatorReview, models.StateCoordinatorApproved, models.RoleAdviser)
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, appErrors.ErrForbidden.Code, typed.Code)
}

func TestRoleAuthorizerShortcuts(t *testing.T) {
	auth := NewRoleAuthorizer()

	for _, role := range []models.UserRole{models.RoleDean, models.RoleRegistrar, models.RoleAdmin} {
		assert.NoError(t, auth.Authorize(models.StateSubmitted, models.StateCoordinatorApproved, role))
		assert.NoError(t, auth.Authorize(models.StateAdviserReview, models.StateCoordinatorApproved, role))
	}
	err := auth.Authorize(models.StateSubmitted, models.StateCoordinatorApproved, models.RoleCoordinator)
	require.Error(t, err)

	assert.True(t, auth.IsShortcut(models.StateSubmitted, models.StateCoordinatorApproved))
	assert.True(t, auth.IsShortcut(models.StateAdviserReview, models.StateCoordinatorApproved))
	assert.False(t, auth.IsShortcut(models.StateCoordinatorReview, models.StateCoordinatorApproved))
}

func TestRoleAuthorizerRetrieveEdges(t *testing.T) {
	auth := NewRoleAuthorizer()

	froms := []models.WorkflowState{
		models.StateAdviserReview,
		models.StateCoordinatorReview,
		models.StateAdviserRejected,
		models.StateCoordinatorRejected,
	}
	for _, from := range froms {
		assert.NoError(t, auth.Authorize(from, models.StateSubmitted, models.RoleRegistrar), string(from))
	}
	err := auth.Authorize(models.StateScheduled, models.StateSubmitted, models.RoleRegistrar)
	require.Error(t, err)
}

func TestRoleAuthorizerReschedule(t *testing.T) {
	auth := NewRoleAuthorizer()

	assert.NoError(t, auth.Authorize(models.StateScheduled, models.StateScheduled, models.RoleCoordinator))
	err := auth.Authorize(models.StateScheduled, models.StateScheduled, models.RoleAdviser)
	require.Error(t, err)
}

func TestRoleAuthorizerAllowedTargets(t *testing.T) {
	auth := NewRoleAuthorizer()

	targets := auth.AllowedTargets(models.StateAdviserReview, models.RoleAdviser)
	assert.ElementsMatch(t, []models.WorkflowState{models.StateAdviserApproved, models.StateAdviserRejected}, targets)

	targets = auth.AllowedTargets(models.StateAdviserReview, models.RoleDean)
	assert.ElementsMatch(t, []models.WorkflowState{models.StateCoordinatorApproved}, targets)

	targets = auth.AllowedTargets(models.StateCompleted, models.RoleAdmin)
	assert.Empty(t, targets)
}

func TestRoleAuthorizerRevert(t *testing.T) {
	auth := NewRoleAuthorizer()

	target, ok := auth.RevertTarget(models.StateAdviserRejected)
	require.True(t, ok)
	assert.Equal(t, models.StateAdviserReview, target)

	target, ok = auth.RevertTarget(models.StateCoordinatorRejected)
	require.True(t, ok)
	assert.Equal(t, models.StateCoordinatorReview, target)

	_, ok = auth.RevertTarget(models.StateScheduled)
	assert.False(t, ok)

	assert.NoError(t, auth.AuthorizeRevert(models.RoleDean))
	assert.NoError(t, auth.AuthorizeRevert(models.RoleRegistrar))
	assert.Error(t, auth.AuthorizeRevert(models.RoleCoordinator))
	assert.Error(t, auth.AuthorizeRevert(models.RoleAdviser))
}
