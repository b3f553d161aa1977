package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/export"
)

type progressRepository interface {
	Create(ctx context.Context, progress *models.Progress) error
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.Progress, error)
}

// RecordProgressRequest is a coach's scored observation. Date defaults to now.
type RecordProgressRequest struct {
	EnrollmentID string  `json:"enrollmentId" validate:"required"`
	Date         string  `json:"date"`
	Metrics      float64 `json:"metrics" validate:"gte=0,lte=100"`
	Notes        *string `json:"notes" validate:"omitempty,max=2000"`
}

// ProgressReport is a rendered progress export.
type ProgressReport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ProgressService records progress notes and exports them as reports.
type ProgressService struct {
	repo        progressRepository
	access      coachAccess
	enrollments enrollmentReader
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

func NewProgressService(repo progressRepository, coaches coachLookup, assignments assignmentChecker, enrollments enrollmentReader, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		repo:        repo,
		access:      coachAccess{coaches: coaches, assignments: assignments, enrollments: enrollments},
		enrollments: enrollments,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Record stores a progress entry for an enrollment in one of the coach's programs.
func (s *ProgressService) Record(ctx context.Context, coachUserID string, req RecordProgressRequest) (*models.Progress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload")
	}
	date := s.now().UTC()
	if strings.TrimSpace(req.Date) != "" {
		parsed, err := parseTimestamp(req.Date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress date")
		}
		date = parsed
	}
	coach, err := s.access.activeCoach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.access.enrollment(ctx, coach, req.EnrollmentID)
	if err != nil {
		return nil, err
	}

	progress := &models.Progress{
		EnrollmentID: enrollment.ID,
		CoachID:      coach.ID,
		CoachName:    coach.Name,
		Date:         date,
		Metrics:      req.Metrics,
		Notes:        req.Notes,
	}
	if err := s.repo.Create(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record progress")
	}
	return progress, nil
}

// ListForParent returns progress on one of the parent's enrollments.
func (s *ProgressService) ListForParent(ctx context.Context, parentID, enrollmentID string) ([]models.Progress, error) {
	if _, err := parentEnrollment(ctx, s.enrollments, parentID, enrollmentID); err != nil {
		return nil, err
	}
	return s.list(ctx, enrollmentID)
}

// ListForCoach returns progress on an enrollment in one of the coach's programs.
func (s *ProgressService) ListForCoach(ctx context.Context, coachUserID, enrollmentID string) ([]models.Progress, error) {
	coach, err := s.access.coach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.enrollment(ctx, coach, enrollmentID); err != nil {
		return nil, err
	}
	return s.list(ctx, enrollmentID)
}

// Report renders the enrollment's progress history as pdf or csv.
func (s *ProgressService) Report(ctx context.Context, coachUserID, enrollmentID, format string) (*ProgressReport, error) {
	renderer, err := export.ForFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be pdf or csv")
	}
	coach, err := s.access.coach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.access.enrollment(ctx, coach, enrollmentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.list(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   fmt.Sprintf("Progress report: %s", enrollment.ChildName),
		Columns: []string{"Date", "Score", "Coach", "Notes"},
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, entry := range entries {
		notes := ""
		if entry.Notes != nil {
			notes = *entry.Notes
		}
		table.Rows = append(table.Rows, []string{
			entry.Date.UTC().Format("2006-01-02"),
			strconv.FormatFloat(entry.Metrics, 'f', -1, 64),
			entry.CoachName,
			notes,
		})
	}

	content, err := renderer.Render(table)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return &ProgressReport{
		Filename:    fmt.Sprintf("progress-%s.%s", enrollment.ID, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

func (s *ProgressService) list(ctx context.Context, enrollmentID string) ([]models.Progress, error) {
	rows, err := s.repo.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list progress")
	}
	if rows == nil {
		rows = []models.Progress{}
	}
	return rows, nil
}

// parseTimestamp accepts RFC3339 timestamps or bare dates, returning UTC.
func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range dayLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
