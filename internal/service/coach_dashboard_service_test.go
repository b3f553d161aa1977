package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type dashboardCoachStub struct {
	coachLookupStub
	programs map[string][]string
}

func (d dashboardCoachStub) AssignedProgramIDs(ctx context.Context, coachID string) ([]string, error) {
	return d.programs[coachID], nil
}

type dashboardEnrollmentStub struct {
	details []models.EnrollmentDetail
}

func (d dashboardEnrollmentStub) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	for i := range d.details {
		if d.details[i].ID == id {
			return &d.details[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (d dashboardEnrollmentStub) ListByPrograms(ctx context.Context, programIDs []string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range d.details {
		if containsString(programIDs, e.ProgramID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d dashboardEnrollmentStub) ListByParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error) {
	var out []models.EnrollmentDetail
	for _, e := range d.details {
		if e.ParentID == parentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type attendanceHistoryStub map[string][]models.Attendance

func (a attendanceHistoryStub) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error) {
	return a[enrollmentID], nil
}

type progressHistoryStub map[string][]models.Progress

func (p progressHistoryStub) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Progress, error) {
	return p[enrollmentID], nil
}

type dashboardFeedStub struct {
	notifications []models.Notification
	schedules     []models.ScheduleRecord
	messages      []models.ChatMessageDetail
	rewards       []models.ProgramReward
	materials     map[string][]models.TrainingMaterial
}

func (f dashboardFeedStub) List(ctx context.Context, userID string) ([]models.ChatMessageDetail, error) {
	return f.messages, nil
}

func (f dashboardFeedStub) ListByCoach(ctx context.Context, coachID string) ([]models.ScheduleRecord, error) {
	return f.schedules, nil
}

func (f dashboardFeedStub) ListByPrograms(ctx context.Context, programIDs []string) ([]models.TrainingMaterial, error) {
	out := []models.TrainingMaterial{}
	for _, id := range programIDs {
		out = append(out, f.materials[id]...)
	}
	return out, nil
}

func (f dashboardFeedStub) Summary(ctx context.Context, parentID string) (*models.GamificationSummary, error) {
	return &models.GamificationSummary{Ledger: models.GamificationLedger{UserID: parentID, Points: 15}, Rewards: []models.ProgramReward{}}, nil
}

func (f dashboardFeedStub) CoachRewards(ctx context.Context, coachID string) ([]models.ProgramReward, error) {
	return f.rewards, nil
}

type unreadNotificationsStub []models.Notification

func (u unreadNotificationsStub) List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range u {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func newCoachDashboardForTest() *CoachDashboardService {
	enrollmentID := "enr-1"
	feed := dashboardFeedStub{
		schedules: []models.ScheduleRecord{{ProgramSchedule: models.ProgramSchedule{ID: "sched-1", ProgramID: strPtr("program-1"), CoachID: "coach-1"}}},
		messages: []models.ChatMessageDetail{
			{ChatMessage: models.ChatMessage{ID: "m-1", EnrollmentID: &enrollmentID}},
			{ChatMessage: models.ChatMessage{ID: "m-2"}},
		},
		rewards:   []models.ProgramReward{{ID: "r-1", ProgramID: "program-1", CoachID: "coach-1"}},
		materials: map[string][]models.TrainingMaterial{"program-1": {{ID: "mat-1", ProgramID: "program-1"}}},
	}
	enrollments := dashboardEnrollmentStub{details: []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "enr-1", ParentID: "parent-1", ProgramID: "program-1"}},
		{Enrollment: models.Enrollment{ID: "enr-2", ParentID: "parent-1", ProgramID: "program-2"}},
		{Enrollment: models.Enrollment{ID: "enr-3", ParentID: "parent-2", ProgramID: "program-1"}},
	}}
	return NewCoachDashboardService(CoachDashboardServiceParams{
		Coaches:     dashboardCoachStub{coachLookupStub: defaultCoaches(), programs: map[string][]string{"coach-1": {"program-1"}}},
		Enrollments: enrollments,
		Activity: EnrollmentActivity{
			Attendance: attendanceHistoryStub{"enr-1": {{ID: "att-1", EnrollmentID: "enr-1"}}},
			Progress:   progressHistoryStub{},
		},
		Notifications: unreadNotificationsStub{
			{ID: "n-1", UserID: "coach-user-1"},
			{ID: "n-2", UserID: "coach-user-1", Read: true},
		},
		Schedules:    feed,
		Materials:    feed,
		Chat:         feed,
		Gamification: feed,
	})
}

func TestCoachDashboardAggregates(t *testing.T) {
	svc := newCoachDashboardForTest()

	dash, err := svc.Dashboard(context.Background(), "coach-user-1")
	require.NoError(t, err)
	assert.Equal(t, "coach-1", dash.Coach.ID)
	assert.Equal(t, []string{"program-1"}, dash.ProgramIDs)
	assert.Len(t, dash.Enrollments, 2)
	require.Len(t, dash.Notifications, 1)
	assert.Equal(t, "n-1", dash.Notifications[0].ID)
	assert.Len(t, dash.Materials, 1)
	assert.Len(t, dash.Schedules, 1)
	assert.Len(t, dash.Rewards, 1)
}

func TestCoachDashboardWithoutPrograms(t *testing.T) {
	svc := newCoachDashboardForTest()

	dash, err := svc.Dashboard(context.Background(), "coach-user-2")
	require.NoError(t, err)
	assert.NotNil(t, dash.Enrollments)
	assert.Empty(t, dash.Enrollments)
	assert.Empty(t, dash.Materials)

	_, err = svc.Dashboard(context.Background(), "nobody")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestCoachStudentDetails(t *testing.T) {
	svc := newCoachDashboardForTest()

	details, err := svc.StudentDetails(context.Background(), "coach-user-1", "enr-1")
	require.NoError(t, err)
	assert.Len(t, details.Attendance, 1)
	assert.NotNil(t, details.Progress)
	require.Len(t, details.Messages, 1)
	assert.Equal(t, "m-1", details.Messages[0].ID)
	assert.Equal(t, 15, details.Gamification.Ledger.Points)
	assert.Len(t, details.Materials, 1)
	require.Len(t, details.OtherPrograms, 1)
	assert.Equal(t, "enr-2", details.OtherPrograms[0].ID)
}

func TestCoachStudentDetailsOutsideProgramsIsNotFound(t *testing.T) {
	svc := newCoachDashboardForTest()

	_, err := svc.StudentDetails(context.Background(), "coach-user-1", "enr-2")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.StudentDetails(context.Background(), "coach-user-1", "missing")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
