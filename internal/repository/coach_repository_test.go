package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
)

func TestCoachToggleStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoachRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("CASE WHEN status = 'active' THEN 'inactive' ELSE 'active' END")).
		WithArgs("coach-1", "inst-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("inactive"))

	status, err := repo.ToggleStatus(context.Background(), "inst-1", "coach-1")
	require.NoError(t, err)
	assert.Equal(t, models.CoachStatus("inactive"), status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoachToggleStatusOtherInstitute(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoachRepository(db)

	mock.ExpectQuery("UPDATE coaches SET status").WillReturnError(sql.ErrNoRows)

	_, err := repo.ToggleStatus(context.Background(), "other-inst", "coach-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCoachAssignedProgramIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCoachRepository(db)

	mock.ExpectQuery("SELECT program_id FROM program_coaches").
		WithArgs("coach-1").
		WillReturnRows(sqlmock.NewRows([]string{"program_id"}).AddRow("p1").AddRow("p2"))

	ids, err := repo.AssignedProgramIDs(context.Background(), "coach-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
