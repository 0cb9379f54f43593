package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gds-portal-api/internal/models"
)

var panelistColumnList = []string{"id", "full_name", "email", "department", "can_chair", "active", "created_at", "updated_at"}

func addPanelistRow(rows *sqlmock.Rows, id, name string, canChair bool) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, name, name+"@university.edu", "Computer Science", canChair, true, now, now)
}

func TestPanelistRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPanelistRepository(db)

	rows := addPanelistRow(sqlmock.NewRows(panelistColumnList), "p-1", "chair", true)
	mock.ExpectQuery(`SELECT .+ FROM panelists WHERE 1=1 AND active = \$1 AND can_chair = \$2 ORDER BY full_name ASC LIMIT 20 OFFSET 0`).
		WithArgs(true, true).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM panelists WHERE 1=1 AND active = \$1 AND can_chair = \$2`).
		WithArgs(true, true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	active := true
	canChair := true
	panelists, total, err := repo.List(context.Background(), models.PanelistFilter{Active: &active, CanChair: &canChair})
	require.NoError(t, err)
	require.Len(t, panelists, 1)
	assert.True(t, panelists[0].CanChair)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPanelistRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPanelistRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM panelists WHERE 1=1 AND \(LOWER\(full_name\) LIKE \$1 OR LOWER\(email\) LIKE \$1\)`).
		WithArgs("%reyes%").
		WillReturnRows(sqlmock.NewRows(panelistColumnList))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM panelists`).
		WithArgs("%reyes%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), models.PanelistFilter{Search: "Reyes"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPanelistRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPanelistRepository(db)

	rows := addPanelistRow(sqlmock.NewRows(panelistColumnList), "p-1", "chair", true)
	addPanelistRow(rows, "p-2", "member", false)
	mock.ExpectQuery(`SELECT .+ FROM panelists WHERE id IN \(\?, \?\)`).
		WithArgs("p-1", "p-2").
		WillReturnRows(rows)

	panelists, err := repo.FindByIDs(context.Background(), []string{"p-1", "p-2"})
	require.NoError(t, err)
	require.Len(t, panelists, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPanelistRepositoryFindByIDsEmpty(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPanelistRepository(db)

	panelists, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, panelists)
}
