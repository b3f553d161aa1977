package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
)

func TestAddPointsUpsertsLedger(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGamificationRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("points = gamification_ledgers.points + EXCLUDED.points")).
		WithArgs(sqlmock.AnyArg(), "parent-1", 5, pq.StringArray{}, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "points", "badges", "updated_at"}).
			AddRow("led-1", "parent-1", 15, "{}", now))

	ledger, err := repo.AddPoints(context.Background(), nil, "parent-1", 5, "")
	require.NoError(t, err)
	assert.Equal(t, 15, ledger.Points)
	assert.Empty(t, ledger.Badges)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPointsWithBadge(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGamificationRepository(db)

	mock.ExpectQuery("INSERT INTO gamification_ledgers").
		WithArgs(sqlmock.AnyArg(), "parent-1", 10, pq.StringArray{"Star"}, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "points", "badges", "updated_at"}).
			AddRow("led-1", "parent-1", 10, "{Star}", time.Now()))

	ledger, err := repo.AddPoints(context.Background(), nil, "parent-1", 10, "Star")
	require.NoError(t, err)
	assert.Equal(t, []string{"Star"}, []string(ledger.Badges))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertReward(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGamificationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (program_id, coach_id) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "program_id", "coach_id", "reward", "points_required", "updated_at"}).
			AddRow("rw-existing", "program-1", "coach-1", "Free kit", 50, time.Now()))

	reward := &models.ProgramReward{ProgramID: "program-1", CoachID: "coach-1", Reward: "Free kit", PointsRequired: 50}
	require.NoError(t, repo.UpsertReward(context.Background(), reward))
	assert.Equal(t, "rw-existing", reward.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
