package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/pkg/database"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type attendanceRepository interface {
	ExistsForDay(ctx context.Context, enrollmentID string, day time.Time) (bool, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, attendance *models.Attendance) (bool, error)
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Attendance, error)
}

type pointsLedger interface {
	AddPoints(ctx context.Context, exec sqlx.ExtContext, userID string, points int, badge string) (*models.GamificationLedger, error)
}

// RecordAttendanceRequest marks one enrollment present or absent for a day.
type RecordAttendanceRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required"`
	Date         string `json:"date" validate:"required"`
	Status       string `json:"status" validate:"required,attendance_status"`
}

// AttendanceService records daily attendance and awards points for presence.
type AttendanceService struct {
	tx               txProvider
	repo             attendanceRepository
	ledger           pointsLedger
	access           coachAccess
	enrollments      enrollmentReader
	attendancePoints int
	metrics          *MetricsService
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewAttendanceService constructs AttendanceService. points is credited to the parent per present record.
func NewAttendanceService(
	tx txProvider,
	repo attendanceRepository,
	ledger pointsLedger,
	coaches coachLookup,
	assignments assignmentChecker,
	enrollments enrollmentReader,
	points int,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		switch models.AttendanceStatus(fl.Field().String()) {
		case models.AttendancePresent, models.AttendanceAbsent:
			return true
		}
		return false
	})
	return &AttendanceService{
		tx:               tx,
		repo:             repo,
		ledger:           ledger,
		access:           coachAccess{coaches: coaches, assignments: assignments, enrollments: enrollments},
		enrollments:      enrollments,
		attendancePoints: points,
		metrics:          metrics,
		validator:        validate,
		logger:           logger,
	}
}

// Record stores the attendance for the UTC day of req.Date. A second record for the same day is a
// DUPLICATE_ATTENDANCE conflict. Present records credit the parent's ledger in the same transaction.
func (s *AttendanceService) Record(ctx context.Context, coachUserID string, req RecordAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	day, err := parseDay(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance date")
	}
	coach, err := s.access.activeCoach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.access.enrollment(ctx, coach, req.EnrollmentID)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsForDay(ctx, enrollment.ID, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateAttendance, "")
	}

	attendance := &models.Attendance{
		EnrollmentID: enrollment.ID,
		Date:         day,
		Status:       models.AttendanceStatus(req.Status),
	}
	awarded := 0
	err = database.WithTx(ctx, s.tx, func(tx *sqlx.Tx) error {
		inserted, err := s.repo.Insert(ctx, tx, attendance)
		if err != nil {
			return err
		}
		if !inserted {
			return appErrors.Clone(appErrors.ErrDuplicateAttendance, "")
		}
		if attendance.Status != models.AttendancePresent || s.attendancePoints <= 0 {
			return nil
		}
		if _, err := s.ledger.AddPoints(ctx, tx, enrollment.ParentID, s.attendancePoints, ""); err != nil {
			return err
		}
		awarded = s.attendancePoints
		return nil
	})
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.metrics.AddAttendancePoints(awarded)
	s.logger.Debug("attendance recorded",
		zap.String("enrollment_id", enrollment.ID),
		zap.Time("date", day),
		zap.String("status", req.Status),
		zap.Int("points", awarded),
	)
	return attendance, nil
}

// ListForParent returns attendance for one of the parent's enrollments, latest day first.
func (s *AttendanceService) ListForParent(ctx context.Context, parentID, enrollmentID string) ([]models.Attendance, error) {
	if _, err := parentEnrollment(ctx, s.enrollments, parentID, enrollmentID); err != nil {
		return nil, err
	}
	return s.list(ctx, enrollmentID)
}

// ListForCoach returns attendance for an enrollment in one of the coach's programs.
func (s *AttendanceService) ListForCoach(ctx context.Context, coachUserID, enrollmentID string) ([]models.Attendance, error) {
	coach, err := s.access.coach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.enrollment(ctx, coach, enrollmentID); err != nil {
		return nil, err
	}
	return s.list(ctx, enrollmentID)
}

func (s *AttendanceService) list(ctx context.Context, enrollmentID string) ([]models.Attendance, error) {
	rows, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	if rows == nil {
		rows = []models.Attendance{}
	}
	return rows, nil
}

var dayLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseDay reads a date or timestamp and returns its UTC calendar day.
func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range dayLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return models.UTCDay(t), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
