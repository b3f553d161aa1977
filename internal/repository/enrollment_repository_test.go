package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
)

func TestEnrollmentCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{
		ParentID:      "parent-1",
		ChildName:     "Mina",
		ProgramID:     "program-1",
		InstituteID:   "inst-1",
		Status:        models.EnrollmentStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}
	require.NoError(t, repo.Create(context.Background(), nil, enrollment))
	assert.NotEmpty(t, enrollment.ID)
	assert.False(t, enrollment.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCompletePaymentIsConditional(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	guard := regexp.QuoteMeta("WHERE id = $1 AND parent_id = $2 AND status = 'pending' AND payment_status = 'pending'")
	mock.ExpectExec(guard).
		WithArgs("enr-1", "parent-1", "fake-khalti-token", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(guard).
		WithArgs("enr-1", "parent-1", "fake-khalti-token", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	won, err := repo.CompletePayment(context.Background(), nil, "enr-1", "parent-1", "fake-khalti-token")
	require.NoError(t, err)
	assert.True(t, won)

	won, err = repo.CompletePayment(context.Background(), nil, "enr-1", "parent-1", "fake-khalti-token")
	require.NoError(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentDecideOnlyFromPending(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $1 AND institute_id = $2 AND status = 'pending'")).
		WithArgs("enr-1", "inst-1", models.EnrollmentStatusRejected, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err := repo.Decide(context.Background(), nil, "enr-1", "inst-1", models.EnrollmentStatusRejected)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentListByProgramsEmpty(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows, err := repo.ListByPrograms(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
