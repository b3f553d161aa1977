package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type dashboardCoachReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.Coach, error)
	AssignedProgramIDs(ctx context.Context, coachID string) ([]string, error)
}

type dashboardEnrollmentReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ListByPrograms(ctx context.Context, programIDs []string) ([]models.EnrollmentDetail, error)
	ListByParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error)
}

type dashboardActivityReader interface {
	ListAttendance(ctx context.Context, enrollmentID string) ([]models.Attendance, error)
	ListProgress(ctx context.Context, enrollmentID string) ([]models.Progress, error)
}

type attendanceHistory interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error)
}

type progressHistory interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Progress, error)
}

// EnrollmentActivity joins the attendance and progress stores behind one reader.
type EnrollmentActivity struct {
	Attendance attendanceHistory
	Progress   progressHistory
}

// ListAttendance returns the attendance rows of an enrollment.
func (a EnrollmentActivity) ListAttendance(ctx context.Context, enrollmentID string) ([]models.Attendance, error) {
	return a.Attendance.ListByEnrollment(ctx, enrollmentID)
}

// ListProgress returns the progress rows of an enrollment.
func (a EnrollmentActivity) ListProgress(ctx context.Context, enrollmentID string) ([]models.Progress, error) {
	return a.Progress.ListByEnrollment(ctx, enrollmentID)
}

type dashboardNotifications interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
}

type dashboardSchedules interface {
	ListByCoach(ctx context.Context, coachID string) ([]models.ScheduleRecord, error)
}

type dashboardMaterials interface {
	ListByPrograms(ctx context.Context, programIDs []string) ([]models.TrainingMaterial, error)
}

type dashboardChat interface {
	List(ctx context.Context, userID string) ([]models.ChatMessageDetail, error)
}

type dashboardGamification interface {
	Summary(ctx context.Context, parentID string) (*models.GamificationSummary, error)
	CoachRewards(ctx context.Context, coachID string) ([]models.ProgramReward, error)
}

// CoachDashboard is everything a coach sees on landing.
type CoachDashboard struct {
	Coach         models.Coach               `json:"coach"`
	ProgramIDs    []string                   `json:"program_ids"`
	Enrollments   []models.EnrollmentDetail  `json:"enrollments"`
	Notifications []models.Notification      `json:"notifications"`
	Schedules     []models.ScheduleRecord    `json:"program_schedules"`
	Materials     []models.TrainingMaterial  `json:"materials"`
	ChatMessages  []models.ChatMessageDetail `json:"chat_messages"`
	Rewards       []models.ProgramReward     `json:"rewards"`
}

// StudentDetails is one enrollment seen by its coach.
type StudentDetails struct {
	Enrollment    models.EnrollmentDetail    `json:"enrollment"`
	Attendance    []models.Attendance        `json:"attendance"`
	Progress      []models.Progress          `json:"progress"`
	Messages      []models.ChatMessageDetail `json:"messages"`
	Gamification  models.GamificationSummary `json:"gamification"`
	Materials     []models.TrainingMaterial  `json:"training_materials"`
	OtherPrograms []models.EnrollmentDetail  `json:"other_programs"`
}

// CoachDashboardServiceParams groups constructor dependencies.
type CoachDashboardServiceParams struct {
	Coaches       dashboardCoachReader
	Enrollments   dashboardEnrollmentReader
	Activity      dashboardActivityReader
	Notifications dashboardNotifications
	Schedules     dashboardSchedules
	Materials     dashboardMaterials
	Chat          dashboardChat
	Gamification  dashboardGamification
	Logger        *zap.Logger
}

// CoachDashboardService composes the coach landing page and per-student views.
type CoachDashboardService struct {
	coaches       dashboardCoachReader
	enrollments   dashboardEnrollmentReader
	activity      dashboardActivityReader
	notifications dashboardNotifications
	schedules     dashboardSchedules
	materials     dashboardMaterials
	chat          dashboardChat
	gamification  dashboardGamification
	logger        *zap.Logger
}

// NewCoachDashboardService constructs CoachDashboardService.
func NewCoachDashboardService(params CoachDashboardServiceParams) *CoachDashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CoachDashboardService{
		coaches:       params.Coaches,
		enrollments:   params.Enrollments,
		activity:      params.Activity,
		notifications: params.Notifications,
		schedules:     params.Schedules,
		materials:     params.Materials,
		chat:          params.Chat,
		gamification:  params.Gamification,
		logger:        logger,
	}
}

// Dashboard builds the landing payload for the coach behind userID.
func (s *CoachDashboardService) Dashboard(ctx context.Context, userID string) (*CoachDashboard, error) {
	coach, programIDs, err := s.coach(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := &CoachDashboard{Coach: *coach, ProgramIDs: programIDs}

	if out.Enrollments, err = s.enrollmentsFor(ctx, programIDs); err != nil {
		return nil, err
	}
	if out.Notifications, err = s.notifications.List(ctx, userID, true); err != nil {
		return nil, err
	}
	schedules, err := s.schedules.ListByCoach(ctx, coach.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if schedules == nil {
		schedules = []models.ScheduleRecord{}
	}
	out.Schedules = schedules
	if out.Materials, err = s.materials.ListByPrograms(ctx, programIDs); err != nil {
		return nil, err
	}
	if out.ChatMessages, err = s.chat.List(ctx, userID); err != nil {
		return nil, err
	}
	if out.Rewards, err = s.gamification.CoachRewards(ctx, coach.ID); err != nil {
		return nil, err
	}
	return out, nil
}

// StudentDetails returns one enrollment in the coach's programs with its history.
// Enrollments outside those programs are reported as not found.
func (s *CoachDashboardService) StudentDetails(ctx context.Context, userID, enrollmentID string) (*StudentDetails, error) {
	_, programIDs, err := s.coach(ctx, userID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.enrollments.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if !containsString(programIDs, enrollment.ProgramID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}

	out := &StudentDetails{Enrollment: *enrollment}
	if out.Attendance, err = s.activity.ListAttendance(ctx, enrollmentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if out.Attendance == nil {
		out.Attendance = []models.Attendance{}
	}
	if out.Progress, err = s.activity.ListProgress(ctx, enrollmentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress")
	}
	if out.Progress == nil {
		out.Progress = []models.Progress{}
	}

	messages, err := s.chat.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.Messages = []models.ChatMessageDetail{}
	for _, m := range messages {
		if m.EnrollmentID != nil && *m.EnrollmentID == enrollmentID {
			out.Messages = append(out.Messages, m)
		}
	}

	summary, err := s.gamification.Summary(ctx, enrollment.ParentID)
	if err != nil {
		return nil, err
	}
	out.Gamification = *summary
	if out.Materials, err = s.materials.ListByPrograms(ctx, []string{enrollment.ProgramID}); err != nil {
		return nil, err
	}

	others, err := s.enrollments.ListByParent(ctx, enrollment.ParentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	out.OtherPrograms = []models.EnrollmentDetail{}
	for _, e := range others {
		if e.ID != enrollmentID {
			out.OtherPrograms = append(out.OtherPrograms, e)
		}
	}
	return out, nil
}

func (s *CoachDashboardService) coach(ctx context.Context, userID string) (*models.Coach, []string, error) {
	coach, err := (coachAccess{coaches: s.coaches}).coach(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	ids, err := s.coaches.AssignedProgramIDs(ctx, coach.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assigned programs")
	}
	if ids == nil {
		ids = []string{}
	}
	return coach, ids, nil
}

func (s *CoachDashboardService) enrollmentsFor(ctx context.Context, programIDs []string) ([]models.EnrollmentDetail, error) {
	if len(programIDs) == 0 {
		return []models.EnrollmentDetail{}, nil
	}
	rows, err := s.enrollments.ListByPrograms(ctx, programIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	if rows == nil {
		rows = []models.EnrollmentDetail{}
	}
	return rows, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
