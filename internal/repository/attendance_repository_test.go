package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
)

func TestAttendanceInsertNormalisesDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (enrollment_id, date) DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "enr-1", day, models.AttendancePresent, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("att-1"))

	att := &models.Attendance{
		EnrollmentID: "enr-1",
		Date:         time.Date(2024, 5, 1, 17, 45, 0, 0, time.UTC),
		Status:       models.AttendancePresent,
	}
	inserted, err := repo.Insert(context.Background(), nil, att)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, day, att.Date)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceInsertConflictReportsFalse(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("INSERT INTO attendance").WillReturnError(sql.ErrNoRows)

	inserted, err := repo.Insert(context.Background(), nil, &models.Attendance{
		EnrollmentID: "enr-1",
		Date:         time.Now(),
		Status:       models.AttendanceAbsent,
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceExistsForDay(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("enr-1", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForDay(context.Background(), "enr-1", time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
