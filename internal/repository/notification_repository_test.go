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

func TestNotificationListNewestFirst(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND read = FALSE ORDER BY created_at DESC")).
		WithArgs("parent-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "type", "message", "details", "read", "created_at"}).
			AddRow("n2", "parent-1", models.NotificationPayment, "Payment received", nil, false, now).
			AddRow("n1", "parent-1", models.NotificationEnrollment, "Enrolled", nil, false, now.Add(-time.Hour)))

	rows, err := repo.ListByUser(context.Background(), "parent-1", true)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "n2", rows[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkReadForeignUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("UPDATE notifications SET read = TRUE").
		WithArgs("n1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkRead(context.Background(), "n1", "intruder")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
