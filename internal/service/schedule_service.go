package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/playpulse/playpulse-api/internal/models"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
)

type scheduleRepository interface {
	Upsert(ctx context.Context, schedule *models.ProgramSchedule, startDate *time.Time) error
	ListByCoach(ctx context.Context, coachID string) ([]models.ScheduleRecord, error)
}

// UpsertScheduleRequest replaces a coach's schedule for one program.
type UpsertScheduleRequest struct {
	ProgramID string                 `json:"programId" validate:"required"`
	Duration  *float64               `json:"duration" validate:"omitempty,gte=0,lte=24"`
	StartDate string                 `json:"startDate"`
	Schedule  []models.ScheduleEntry `json:"schedule" validate:"required,dive"`
}

// ScheduleService stores coach schedules. There is one schedule per (program, coach).
type ScheduleService struct {
	repo      scheduleRepository
	access    coachAccess
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService. cache may be nil.
func NewScheduleService(repo scheduleRepository, coaches coachLookup, assignments assignmentChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		access:    coachAccess{coaches: coaches, assignments: assignments},
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

// Upsert finds or creates the schedule for (program, coach) and replaces its entries.
// A missing start date keeps the stored one, or defaults to now on creation.
func (s *ScheduleService) Upsert(ctx context.Context, coachUserID string, req UpsertScheduleRequest) (*models.ProgramSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if req.Duration != nil && (math.IsNaN(*req.Duration) || math.IsInf(*req.Duration, 0)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration must be a finite number of hours")
	}
	for i, entry := range req.Schedule {
		raw, _ := json.Marshal(entry.Date)
		if _, ok := parseScheduleDate(raw); !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("schedule[%d].date is not a valid date", i))
		}
	}
	var startDate *time.Time
	if strings.TrimSpace(req.StartDate) != "" {
		parsed, err := parseTimestamp(req.StartDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
		}
		startDate = &parsed
	}

	coach, err := s.access.activeCoach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	if err := s.access.requireAssigned(ctx, coach, req.ProgramID); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(req.Schedule)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode schedule")
	}
	programID := req.ProgramID
	schedule := &models.ProgramSchedule{
		ProgramID: &programID,
		CoachID:   coach.ID,
		Duration:  req.Duration,
		Schedule:  types.JSONText(payload),
	}
	if err := s.repo.Upsert(ctx, schedule, startDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save schedule")
	}

	if _, err := s.cache.InvalidateCalendars(ctx); err != nil {
		s.logger.Warn("calendar cache not invalidated", zap.String("schedule_id", schedule.ID), zap.Error(err))
	}
	return schedule, nil
}

// ListForCoach returns the coach's schedules with program names.
func (s *ScheduleService) ListForCoach(ctx context.Context, coachUserID string) ([]models.ScheduleRecord, error) {
	coach, err := s.access.coach(ctx, coachUserID)
	if err != nil {
		return nil, err
	}
	records, err := s.repo.ListByCoach(ctx, coach.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	if records == nil {
		records = []models.ScheduleRecord{}
	}
	return records, nil
}
