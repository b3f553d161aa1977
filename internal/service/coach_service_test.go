package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type coachRepoStub struct {
	coaches   map[string]*models.Coach
	programs  map[string][]string
	createErr error
}

func newCoachRepoStub(coaches ...*models.Coach) *coachRepoStub {
	r := &coachRepoStub{coaches: map[string]*models.Coach{}, programs: map[string][]string{}}
	for _, c := range coaches {
		r.coaches[c.ID] = c
	}
	return r
}

func (r *coachRepoStub) FindByID(ctx context.Context, id string) (*models.Coach, error) {
	c, ok := r.coaches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (r *coachRepoStub) ListByInstitute(ctx context.Context, instituteID string) ([]models.Coach, error) {
	var out []models.Coach
	for _, c := range r.coaches {
		if c.InstituteID == instituteID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *coachRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, coach *models.Coach) error {
	if r.createErr != nil {
		return r.createErr
	}
	coach.ID = "coach-new"
	cp := *coach
	r.coaches[coach.ID] = &cp
	return nil
}

func (r *coachRepoStub) Update(ctx context.Context, coach *models.Coach) error {
	cp := *coach
	r.coaches[coach.ID] = &cp
	return nil
}

func (r *coachRepoStub) ToggleStatus(ctx context.Context, instituteID, id string) (models.CoachStatus, error) {
	c, ok := r.coaches[id]
	if !ok || c.InstituteID != instituteID {
		return "", sql.ErrNoRows
	}
	if c.Status == models.CoachStatusActive {
		c.Status = models.CoachStatusInactive
	} else {
		c.Status = models.CoachStatusActive
	}
	return c.Status, nil
}

func (r *coachRepoStub) AssignedProgramIDs(ctx context.Context, coachID string) ([]string, error) {
	return r.programs[coachID], nil
}

type userCreatorStub struct {
	created []*models.User
	err     error
}

func (u *userCreatorStub) Create(ctx context.Context, exec sqlx.ExtContext, user *models.User) error {
	if u.err != nil {
		return u.err
	}
	user.ID = "coach-user-new"
	u.created = append(u.created, user)
	return nil
}

func validCoachRequest() CreateCoachRequest {
	return CreateCoachRequest{
		Name:          "Ravi",
		Email:         "Ravi@Example.com",
		Password:      "secret1",
		Qualification: "UEFA C",
		Experience:    "5 years",
		Salary:        1200,
	}
}

func TestCoachServiceCreateIsTransactional(t *testing.T) {
	tx, mock := newTxProviderMock(t)
	repo := newCoachRepoStub()
	users := &userCreatorStub{}
	svc := NewCoachService(tx, repo, users, ownerInstitutes(), nil, nil)

	mock.ExpectBegin()
	mock.ExpectCommit()

	coach, err := svc.Create(context.Background(), "owner-1", validCoachRequest())
	require.NoError(t, err)
	assert.Equal(t, "coach-user-new", coach.UserID)
	assert.Equal(t, "inst-1", coach.InstituteID)
	assert.Equal(t, "ravi@example.com", coach.Email)
	assert.Equal(t, models.CoachStatusActive, coach.Status)
	require.Len(t, users.created, 1)
	assert.Equal(t, models.RoleCoach, users.created[0].Role)
	assert.NotEqual(t, "secret1", users.created[0].PasswordHash)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCoachServiceCreateFailuresRollBack(t *testing.T) {
	cases := []struct {
		name     string
		userErr  error
		coachErr error
		want     *appErrors.Error
	}{
		{"duplicate user email", &pq.Error{Code: "23505", Constraint: "users_email_key"}, nil, appErrors.ErrConflict},
		{"duplicate coach email", nil, &pq.Error{Code: "23505", Constraint: "coaches_email_key"}, appErrors.ErrConflict},
		{"profile insert failure", nil, errors.New("disk full"), appErrors.ErrInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx, mock := newTxProviderMock(t)
			repo := newCoachRepoStub()
			repo.createErr = tc.coachErr
			svc := NewCoachService(tx, repo, &userCreatorStub{err: tc.userErr}, ownerInstitutes(), nil, nil)

			mock.ExpectBegin()
			mock.ExpectRollback()

			_, err := svc.Create(context.Background(), "owner-1", validCoachRequest())
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Empty(t, repo.coaches)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCoachServiceUpdateToggleAndList(t *testing.T) {
	repo := newCoachRepoStub(
		&models.Coach{ID: "coach-1", InstituteID: "inst-1", Name: "Ravi", Email: "ravi@example.com", Status: models.CoachStatusActive},
		&models.Coach{ID: "coach-9", InstituteID: "inst-2", Name: "Other", Status: models.CoachStatusActive},
	)
	repo.programs["coach-1"] = []string{"program-1"}
	svc := NewCoachService(nil, repo, &userCreatorStub{}, ownerInstitutes(), nil, nil)

	updated, err := svc.Update(context.Background(), "owner-1", "coach-1", UpdateCoachRequest{Name: " Ravi K ", Qualification: "UEFA B", Experience: "6 years", Salary: 1500})
	require.NoError(t, err)
	assert.Equal(t, "Ravi K", updated.Name)
	assert.Equal(t, "ravi@example.com", updated.Email)

	_, err = svc.Update(context.Background(), "owner-1", "coach-9", UpdateCoachRequest{Name: "X", Qualification: "Q", Experience: "E"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	status, err := svc.ToggleStatus(context.Background(), "owner-1", "coach-1")
	require.NoError(t, err)
	assert.Equal(t, models.CoachStatusInactive, status)
	status, err = svc.ToggleStatus(context.Background(), "owner-1", "coach-1")
	require.NoError(t, err)
	assert.Equal(t, models.CoachStatusActive, status)
	_, err = svc.ToggleStatus(context.Background(), "owner-1", "coach-9")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	list, err := svc.List(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"program-1"}, list[0].AssignedPrograms)
}

func TestCoachServiceRenameDropsCachedCalendars(t *testing.T) {
	repo := newCoachRepoStub(&models.Coach{ID: "coach-1", InstituteID: "inst-1", Name: "Ravi", Status: models.CoachStatusActive})
	svc := NewCoachService(nil, repo, &userCreatorStub{}, ownerInstitutes(), nil, nil)
	cacheRepo := newMemoryCacheRepo()
	cacheRepo.items["calendar:parent:parent-1"] = []byte(`[]`)
	svc.UseCache(NewCacheService(cacheRepo, nil, time.Hour, nil, true))

	_, err := svc.Update(context.Background(), "owner-1", "coach-1", UpdateCoachRequest{Name: "Ravi K", Qualification: "UEFA B", Experience: "6 years"})
	require.NoError(t, err)
	assert.Empty(t, cacheRepo.items)
}
